package model

import "github.com/google/uuid"

// Record is one generated QR code entry. Only URL is encoded into the
// symbol; Title is shown next to it.
type Record struct {
	ID    string `json:"id" csv:"id"`
	Title string `json:"title" csv:"title"`
	URL   string `json:"url" csv:"url"`
}

// NewID returns a fresh stable record identifier.
func NewID() string { return uuid.NewString() }

// IndexOf returns the position of the record with the given id, or -1.
func IndexOf(records []Record, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// ShortID is the id prefix shown in lists.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
