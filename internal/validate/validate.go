// Package validate decides whether user input is an acceptable QR target URL.
package validate

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest URL (in characters) we agree to encode.
const MaxLength = 300

// Kind classifies a validation failure.
type Kind int

const (
	Empty Kind = iota + 1
	Invalid
	TooLong
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case Invalid:
		return "INVALID"
	case TooLong:
		return "TOO_LONG"
	default:
		return "UNKNOWN"
	}
}

// Error is returned by URL. Its message is meant for the user.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string {
	switch e.Kind {
	case Empty:
		return "URL cannot be empty."
	case Invalid:
		return "The URL provided is not valid."
	case TooLong:
		return "The URL is too long to be encoded in a QR code."
	default:
		return "invalid URL"
	}
}

// Is makes errors.Is match on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmpty   = &Error{Kind: Empty}
	ErrInvalid = &Error{Kind: Invalid}
	ErrTooLong = &Error{Kind: TooLong}
)

// URL checks emptiness, then absolute-URL syntax, then length. The first
// failing check wins.
func URL(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmpty
	}
	if !absolute(s) {
		return ErrInvalid
	}
	if utf8.RuneCountInString(s) > MaxLength {
		return ErrTooLong
	}
	return nil
}

func absolute(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Opaque != "" {
		return true
	}
	return u.Host != "" || u.Path != ""
}
