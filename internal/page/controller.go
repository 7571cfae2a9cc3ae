// Package page holds the interactive page state machine. It knows nothing
// about terminals; the TUI and the CLI both drive it.
package page

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/pager"
	"github.com/Makepad-fr/qrgen/internal/store"
	"github.com/Makepad-fr/qrgen/internal/validate"
	"github.com/charmbracelet/log"
)

var (
	ErrBusy     = errors.New("a submit is already in progress")
	ErrNotFound = errors.New("no QR code with that id")
)

// Exporter rasterizes a record to a file and returns its path.
type Exporter interface {
	Export(rec model.Record) (string, error)
}

// Export runs one download. It touches no controller state so it can run
// off the event loop; report its result with DownloadDone.
type Export func() (string, error)

type Options struct {
	PageSize int
	Exporter Exporter
	Logger   *log.Logger
}

type Controller struct {
	store    *store.Store
	exporter Exporter
	log      *log.Logger
	size     int

	records []model.Record
	title   string
	url     string
	form    Form
	pending *PendingDelete
	page    int
	msg     Message
	busy    bool
}

// New loads the store and starts on page 1 with an idle form.
func New(st *store.Store, opt Options) *Controller {
	if opt.PageSize <= 0 {
		opt.PageSize = pager.DefaultSize
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Controller{
		store:    st,
		exporter: opt.Exporter,
		log:      opt.Logger,
		size:     opt.PageSize,
		records:  st.Load(),
		form:     Idle{},
		page:     1,
	}
}

func (c *Controller) SetInput(title, url string) { c.title, c.url = title, url }
func (c *Controller) Input() (title, url string) { return c.title, c.url }

func (c *Controller) Form() Form              { return c.form }
func (c *Controller) Pending() *PendingDelete { return c.pending }
func (c *Controller) Message() Message        { return c.msg }
func (c *Controller) Busy() bool              { return c.busy }
func (c *Controller) PageSize() int           { return c.size }
func (c *Controller) CurrentPage() int        { return c.page }
func (c *Controller) PageCount() int          { return pager.PageCount(len(c.records), c.size) }
func (c *Controller) Pages() []int            { return pager.Pages(c.PageCount()) }
func (c *Controller) ShowPagination() bool    { return pager.ShowControls(len(c.records), c.size) }
func (c *Controller) Visible() []model.Record { return pager.Window(c.records, c.page, c.size) }
func (c *Controller) ClearMessage()           { c.msg = Message{} }
func (c *Controller) SetMessage(m Message)    { c.msg = m }

// Records returns a copy of the whole list.
func (c *Controller) Records() []model.Record {
	out := make([]model.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Record looks up a record by id.
func (c *Controller) Record(id string) (model.Record, bool) {
	i := model.IndexOf(c.records, id)
	if i < 0 {
		return model.Record{}, false
	}
	return c.records[i], true
}

// SubmitLabel is the text of the submit button in the current state.
func (c *Controller) SubmitLabel() string {
	switch {
	case c.busy:
		return LabelGenerating
	case c.editingID() != "":
		return LabelSave
	default:
		return LabelGenerate
	}
}

func (c *Controller) editingID() string {
	if e, ok := c.form.(Editing); ok {
		return e.ID
	}
	return ""
}

// Submit validates the inputs and commits them locally. Invalid input only
// sets the message. On success the inputs are cleared, the form returns to
// Idle and the controller stays busy until SubmitDone is called with the
// result of the returned Notify.
func (c *Controller) Submit() (store.Notify, error) {
	if c.busy {
		return nil, ErrBusy
	}
	url := strings.TrimSpace(c.url)
	if err := validate.URL(url); err != nil {
		c.msg = Message{Text: err.Error(), Error: true}
		return nil, err
	}

	rec := model.Record{Title: c.title, URL: url}
	recs, notify, err := c.store.Upsert(rec, c.editingID())
	if err != nil {
		c.log.Error("save record failed", "err", err)
		c.msg = Message{Text: MsgSaveFailed, Error: true}
		return nil, err
	}

	c.records = recs
	c.title, c.url = "", ""
	c.form = Idle{}
	c.msg = Message{}
	c.busy = true
	return notify, nil
}

// SubmitDone ends the busy state with the mirror outcome.
func (c *Controller) SubmitDone(err error) {
	c.busy = false
	if err != nil {
		c.msg = Message{Text: MsgSaveFailed, Error: true}
	}
}

// StartEditing pre-fills the form from the record and enters Editing.
func (c *Controller) StartEditing(id string) error {
	rec, ok := c.Record(id)
	if !ok {
		return ErrNotFound
	}
	c.title, c.url = rec.Title, rec.URL
	c.form = Editing{ID: id}
	c.msg = Message{}
	return nil
}

// CancelEditing clears the form and returns to Idle.
func (c *Controller) CancelEditing() {
	c.title, c.url = "", ""
	c.form = Idle{}
}

func (c *Controller) RequestDelete(id string) error {
	if _, ok := c.Record(id); !ok {
		return ErrNotFound
	}
	c.pending = &PendingDelete{ID: id}
	return nil
}

func (c *Controller) CancelDelete() { c.pending = nil }

// ConfirmDelete removes the pending record. A nil Notify with a nil error
// means nothing was pending.
func (c *Controller) ConfirmDelete() (store.Notify, error) {
	if c.pending == nil {
		return nil, nil
	}
	id := c.pending.ID
	c.pending = nil

	recs, notify, err := c.store.Remove(id)
	if err != nil {
		c.log.Error("remove record failed", "id", id, "err", err)
		c.msg = Message{Text: MsgRemoveFailed, Error: true}
		return nil, err
	}
	c.records = recs
	c.page = pager.Clamp(c.page, c.PageCount())
	if c.editingID() == id {
		c.CancelEditing()
	}
	return notify, nil
}

// RemoveDone reports the mirror outcome of a delete.
func (c *Controller) RemoveDone(err error) {
	if err != nil {
		c.msg = Message{Text: MsgRemoveFailed, Error: true}
	}
}

func (c *Controller) PrevPage() { c.page = pager.Prev(c.page) }
func (c *Controller) NextPage() { c.page = pager.Next(c.page, c.PageCount()) }

// GoToPage selects page n; pages outside the valid range are ignored.
func (c *Controller) GoToPage(n int) bool {
	if !pager.Valid(n, c.PageCount()) {
		return false
	}
	c.page = n
	return true
}

// Download prepares the export of the record with id.
func (c *Controller) Download(id string) (Export, error) {
	rec, ok := c.Record(id)
	if !ok {
		return nil, ErrNotFound
	}
	if c.exporter == nil {
		return nil, fmt.Errorf("download %s: no exporter configured", id)
	}
	x := c.exporter
	return func() (string, error) { return x.Export(rec) }, nil
}

// DownloadDone records the export outcome. Failures are logged; records
// never change.
func (c *Controller) DownloadDone(path string, err error) {
	if err != nil {
		c.log.Error("export failed", "err", err)
		c.msg = Message{Text: MsgDownloadFailed, Error: true}
		return
	}
	c.log.Info("exported", "path", path)
	c.msg = Message{Text: "Saved " + path}
}
