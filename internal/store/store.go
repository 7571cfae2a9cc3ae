// Package store keeps the ordered list of QR records. Every mutation is
// written to a local Slot before it is visible, then offered to a remote
// Mirror through a Notify the caller runs whenever it likes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/remote"
	"github.com/charmbracelet/log"
)

// Key names the single slot entry holding the list.
const Key = "qrCodes"

// Slot is one durable keyed entry. Load returns (nil, nil) when nothing has
// been saved yet.
type Slot interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Notify delivers one mutation to the mirror. A nil Notify means there is
// nothing to send.
type Notify func(ctx context.Context) error

// SyncError reports a failed mirror notification. Local state is kept.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("mirror %s: %v", e.Op, e.Err) }
func (e *SyncError) Unwrap() error { return e.Err }

type Store struct {
	mu      sync.Mutex
	slot    Slot
	mirror  remote.Mirror
	log     *log.Logger
	records []model.Record
}

func New(slot Slot, mirror remote.Mirror, logger *log.Logger) *Store {
	if mirror == nil {
		mirror = remote.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{slot: slot, mirror: mirror, log: logger}
}

// Load replaces the in-memory list with the slot contents. Absent or
// unreadable contents yield an empty list.
func (s *Store) Load() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = []model.Record{}
	data, err := s.slot.Load()
	if err != nil {
		s.log.Warn("read slot failed", "key", Key, "err", err)
		return s.copyLocked()
	}
	if len(data) == 0 {
		return s.copyLocked()
	}
	var recs []model.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		s.log.Warn("slot contents unparsable, starting empty", "key", Key, "err", err)
		return s.copyLocked()
	}

	upgraded := 0
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = model.NewID()
			upgraded++
		}
	}
	if upgraded > 0 {
		if err := s.writeLocked(recs); err != nil {
			s.log.Warn("persist upgraded ids failed", "err", err)
		} else {
			s.log.Info("assigned ids to legacy records", "count", upgraded)
		}
	}
	s.records = recs
	return s.copyLocked()
}

// Records returns a copy of the current list.
func (s *Store) Records() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Upsert replaces the record with editID, or appends rec when editID is
// empty or unknown. The slot is written before memory changes; on a write
// error the list is left as it was.
func (s *Store) Upsert(rec model.Record, editID string) ([]model.Record, Notify, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	if i := model.IndexOf(next, editID); i >= 0 {
		rec.ID = editID
		next[i] = rec
	} else {
		if rec.ID == "" || model.IndexOf(next, rec.ID) >= 0 {
			rec.ID = model.NewID()
		}
		next = append(next, rec)
	}

	if err := s.writeLocked(next); err != nil {
		return s.copyLocked(), nil, err
	}
	s.records = next
	s.log.Debug("record saved", "id", rec.ID, "count", len(next))

	mirror, logger := s.mirror, s.log
	notify := func(ctx context.Context) error {
		if err := mirror.Save(ctx, rec); err != nil {
			logger.Warn("mirror save failed", "id", rec.ID, "err", err)
			return &SyncError{Op: "save", Err: err}
		}
		return nil
	}
	return s.copyLocked(), notify, nil
}

// Remove deletes the record with id. Unknown or empty ids are a no-op and
// return a nil Notify.
func (s *Store) Remove(id string) ([]model.Record, Notify, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := model.IndexOf(s.records, id)
	if idx < 0 {
		return s.copyLocked(), nil, nil
	}
	next := make([]model.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)

	if err := s.writeLocked(next); err != nil {
		return s.copyLocked(), nil, err
	}
	s.records = next
	s.log.Debug("record removed", "id", id, "index", idx)

	mirror, logger := s.mirror, s.log
	notify := func(ctx context.Context) error {
		if err := mirror.Remove(ctx, idx, id); err != nil {
			logger.Warn("mirror remove failed", "id", id, "index", idx, "err", err)
			return &SyncError{Op: "remove", Err: err}
		}
		return nil
	}
	return s.copyLocked(), notify, nil
}

func (s *Store) writeLocked(recs []model.Record) error {
	if recs == nil {
		recs = []model.Record{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.slot.Save(b); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

func (s *Store) copyLocked() []model.Record {
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// IsSyncError reports whether err came from a mirror notification.
func IsSyncError(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}
