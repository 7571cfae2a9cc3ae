package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Makepad-fr/qrgen/internal/config"
	"github.com/Makepad-fr/qrgen/internal/logging"
	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/page"
	"github.com/Makepad-fr/qrgen/internal/qr"
	"github.com/Makepad-fr/qrgen/internal/remote"
	"github.com/Makepad-fr/qrgen/internal/store"
	"github.com/Makepad-fr/qrgen/internal/store/jsonstore"
	"github.com/Makepad-fr/qrgen/internal/store/sqlitestore"
	"github.com/Makepad-fr/qrgen/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. Tests swap the writers and the
// confirm prompt.
type app struct {
	out    io.Writer
	errOut io.Writer

	// root flags
	cfgPath   string
	dataDir   string
	slot      string
	mirrorURL string
	logLevel  string
	theme     string

	cfg     *config.Config
	log     *log.Logger
	confirm func(title, description string) (bool, error)
	closers []io.Closer
}

func newApp() *app {
	return &app{
		out:     os.Stdout,
		errOut:  os.Stderr,
		confirm: huhConfirm,
	}
}

func huhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

// loadConfig resolves config and applies root flags over it.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("slot") {
		cfg.Slot = a.slot
	}
	if flags.Changed("mirror-url") {
		cfg.Mirror.URL = a.mirrorURL
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("theme") {
		cfg.UI.Theme = a.theme
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	ui.SetTheme(cfg.UI.Theme)
	a.log = logging.New(a.errOut, cfg.Logging.Level)
	return nil
}

// logToFile redirects logging away from the terminal for the TUI.
func (a *app) logToFile() error {
	f, err := logging.OpenFile(a.cfg.LogPath())
	if err != nil {
		return err
	}
	a.closers = append(a.closers, f)
	a.log = logging.New(f, a.cfg.Logging.Level)
	return nil
}

func (a *app) openSlot() (store.Slot, error) {
	switch a.cfg.Slot {
	case config.SlotSQLite:
		db, err := sqlitestore.Open(a.cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		return db.Slot(store.Key), nil
	default:
		return jsonstore.New(a.cfg.Dir(), store.Key), nil
	}
}

func (a *app) mirror() remote.Mirror {
	if a.cfg.Mirror.URL == "" {
		return remote.Nop{}
	}
	return remote.NewClient(a.cfg.Mirror.URL, a.cfg.MirrorTimeout())
}

// controller wires slot, mirror and exporter into a loaded page controller.
func (a *app) controller(exportDir string) (*page.Controller, error) {
	slot, err := a.openSlot()
	if err != nil {
		return nil, fmt.Errorf("open slot: %w", err)
	}
	if exportDir == "" {
		exportDir = a.cfg.Export.Dir
	}
	st := store.New(slot, a.mirror(), a.log)
	return page.New(st, page.Options{
		PageSize: a.cfg.UI.PageSize,
		Exporter: qr.Exporter{Dir: exportDir, Size: a.cfg.Export.Size},
		Logger:   a.log,
	}), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.log != nil {
			a.log.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

var errAmbiguousID = errors.New("id prefix matches more than one QR code")

// resolve accepts a full id or a unique prefix of one.
func resolve(ctrl *page.Controller, arg string) (model.Record, error) {
	if rec, ok := ctrl.Record(arg); ok {
		return rec, nil
	}
	var found []model.Record
	for _, rec := range ctrl.Records() {
		if arg != "" && strings.HasPrefix(rec.ID, arg) {
			found = append(found, rec)
		}
	}
	switch len(found) {
	case 0:
		return model.Record{}, fmt.Errorf("%s: %w", arg, page.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return model.Record{}, fmt.Errorf("%s: %w", arg, errAmbiguousID)
	}
}
