package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// maxEvents bounds the in-memory journal; older entries are dropped.
const maxEvents = 1000

// Event is one notification received by the development mirror.
type Event struct {
	Op     string        `json:"op"`
	At     time.Time     `json:"at"`
	Record *model.Record `json:"record,omitempty"`
	Index  *int          `json:"index,omitempty"`
	ID     string        `json:"id,omitempty"`
}

// Journal keeps received notifications in memory. It is not a store of
// record: nothing reads it back into clients.
type Journal struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

func NewJournal() *Journal {
	return &Journal{now: time.Now}
}

func (j *Journal) append(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ev.At = j.now().UTC()
	j.events = append(j.events, ev)
	if len(j.events) > maxEvents {
		j.events = append([]Event(nil), j.events[len(j.events)-maxEvents:]...)
	}
}

// Events returns a copy of the journal, oldest first.
func (j *Journal) Events() []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// NewRouter serves both mirror endpoints plus /health and /api/events.
func NewRouter(j *Journal, logger *log.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			logger.Debug("health write failed", "err", err)
		}
	}).Methods(http.MethodGet)
	r.HandleFunc(SavePath, saveHandler(j, logger)).Methods(http.MethodPost)
	r.HandleFunc(RemovePath, removeHandler(j, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, j.Events())
	}).Methods(http.MethodGet)
	return r
}

func saveHandler(j *Journal, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec model.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if rec.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url required"})
			return
		}
		j.append(Event{Op: "save", Record: &rec, ID: rec.ID})
		logger.Info("saved", "id", rec.ID, "url", rec.URL)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func removeHandler(j *Journal, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Index < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must not be negative"})
			return
		}
		idx := req.Index
		j.append(Event{Op: "remove", Index: &idx, ID: req.ID})
		logger.Info("removed", "index", req.Index, "id", req.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
