// Package qr turns record URLs into QR symbols for the terminal and for
// PNG export.
package qr

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Makepad-fr/qrgen/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DisplayCap is the longest URL shown on a card before truncation.
	DisplayCap = 50
	// DefaultSize is the exported PNG edge in pixels.
	DefaultSize = 1500
)

// Render returns a half-block drawing of the symbol for url. Only the URL
// is encoded.
func Render(url string) (string, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return strings.TrimRight(q.ToSmallString(false), "\n"), nil
}

// Truncate shortens s for display to max characters including the
// trailing ellipsis. Cuts fall on rune boundaries.
func Truncate(s string, max int) string {
	if max < 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

// RasterError reports a failed export. Record state is never touched.
type RasterError struct {
	ID  string
	Err error
}

func (e *RasterError) Error() string { return fmt.Sprintf("export %s: %v", e.ID, e.Err) }
func (e *RasterError) Unwrap() error { return e.Err }

// FileName is the export name for record id at t.
func FileName(id string, t time.Time) string {
	return fmt.Sprintf("qrcode-%s-%d.png", id, t.UnixMilli())
}

// Exporter writes PNG files. Zero Size means DefaultSize; nil Now means
// time.Now.
type Exporter struct {
	Dir  string
	Size int
	Now  func() time.Time
}

// Export rasterizes rec.URL on a white background and returns the path
// written.
func (x Exporter) Export(rec model.Record) (string, error) {
	size := x.Size
	if size <= 0 {
		size = DefaultSize
	}
	now := x.Now
	if now == nil {
		now = time.Now
	}

	q, err := qrcode.New(rec.URL, qrcode.Medium)
	if err != nil {
		return "", &RasterError{ID: rec.ID, Err: err}
	}
	q.BackgroundColor = color.White
	q.ForegroundColor = color.Black
	png, err := q.PNG(size)
	if err != nil {
		return "", &RasterError{ID: rec.ID, Err: err}
	}

	if x.Dir != "" {
		if err := os.MkdirAll(x.Dir, 0o755); err != nil {
			return "", &RasterError{ID: rec.ID, Err: err}
		}
	}
	path := filepath.Join(x.Dir, FileName(rec.ID, now()))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", &RasterError{ID: rec.ID, Err: err}
	}
	return path, nil
}
