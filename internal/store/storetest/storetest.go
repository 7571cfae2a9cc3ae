// Package storetest provides in-memory fakes for store tests.
package storetest

import (
	"context"
	"sync"

	"github.com/Makepad-fr/qrgen/internal/model"
)

// MemSlot is a Slot held in memory. LoadErr and SaveErr, when set, are
// returned by the matching call.
type MemSlot struct {
	mu      sync.Mutex
	Data    []byte
	Saves   int
	LoadErr error
	SaveErr error
}

func (m *MemSlot) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]byte(nil), m.Data...), nil
}

func (m *MemSlot) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// RemoveCall is one recorded Mirror.Remove.
type RemoveCall struct {
	Index int
	ID    string
}

// Mirror records calls and fails with Err when it is set.
type Mirror struct {
	mu      sync.Mutex
	Err     error
	Saved   []model.Record
	Removed []RemoveCall
}

func (f *Mirror) Save(_ context.Context, rec model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Saved = append(f.Saved, rec)
	return f.Err
}

func (f *Mirror) Remove(_ context.Context, index int, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, RemoveCall{Index: index, ID: id})
	return f.Err
}

// SetErr changes the failure returned by later calls.
func (f *Mirror) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}
