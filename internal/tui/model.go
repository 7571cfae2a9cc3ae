// Package tui is the interactive terminal page. It translates key presses
// into page.Controller calls and runs mirror and export work as commands.
package tui

import (
	"context"
	"strconv"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/page"
	"github.com/Makepad-fr/qrgen/internal/store"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type focus int

const (
	focusTitle focus = iota
	focusURL
	focusList
	focusCount
)

// Results of work started by Update.
type (
	submitDoneMsg struct{ err error }
	removeDoneMsg struct{ err error }
	exportDoneMsg struct {
		path string
		err  error
	}
	copiedMsg struct {
		url string
		err error
	}
)

type Options struct {
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Logger    *log.Logger
}

type Model struct {
	ctrl   *page.Controller
	inputs [2]textinput.Model
	focus  focus
	cursor int
	keys   keyMap
	help   help.Model
	copy   func(string) error
	log    *log.Logger

	// qr renderings keyed by URL; shared across Model copies.
	qrCache map[string]string
	width   int
}

func New(ctrl *page.Controller, opt Options) Model {
	if opt.Clipboard == nil {
		opt.Clipboard = clipboard.WriteAll
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}

	title := textinput.New()
	title.Prompt = "Title › "
	title.Placeholder = "optional"
	title.CharLimit = 100

	url := textinput.New()
	url.Prompt = "URL   › "
	url.Placeholder = "https://example.com"

	m := Model{
		ctrl:    ctrl,
		inputs:  [2]textinput.Model{title, url},
		keys:    defaultKeys(),
		help:    help.New(),
		copy:    opt.Clipboard,
		log:     opt.Logger,
		qrCache: map[string]string{},
	}
	m.setFocus(focusURL)
	return m
}

// Run starts the page on the alternate screen and blocks until quit.
func Run(ctrl *page.Controller, opt Options) error {
	_, err := tea.NewProgram(New(ctrl, opt), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case submitDoneMsg:
		m.ctrl.SubmitDone(msg.err)
		return m, nil
	case removeDoneMsg:
		m.ctrl.RemoveDone(msg.err)
		return m, nil
	case exportDoneMsg:
		m.ctrl.DownloadDone(msg.path, msg.err)
		return m, nil
	case copiedMsg:
		if msg.err != nil {
			m.log.Warn("clipboard write failed", "err", msg.err)
			m.ctrl.SetMessage(page.Message{Text: "Could not copy URL.", Error: true})
		} else {
			m.ctrl.SetMessage(page.Message{Text: "Copied " + msg.url})
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQ) {
			return m, tea.Quit
		}
		if m.ctrl.Pending() != nil {
			return m.updateDialog(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Next):
			m.setFocus((m.focus + 1) % focusCount)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, nil
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateForm(msg)
	}

	if m.focus != focusList {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Cancel):
		if _, editing := m.ctrl.Form().(page.Editing); editing {
			m.ctrl.CancelEditing()
			m.syncInputs()
		} else {
			m.setFocus(focusList)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.ctrl.Visible()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		m.ctrl.PrevPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.NextPage):
		m.ctrl.NextPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.Cancel):
		if _, editing := m.ctrl.Form().(page.Editing); editing {
			m.ctrl.CancelEditing()
			m.syncInputs()
		}
	case key.Matches(msg, m.keys.Submit):
		m.setFocus(focusURL)
	default:
		rec, ok := m.selected()
		if !ok {
			return m.gotoPage(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Edit):
			if err := m.ctrl.StartEditing(rec.ID); err == nil {
				m.syncInputs()
				m.setFocus(focusURL)
			}
		case key.Matches(msg, m.keys.Delete):
			_ = m.ctrl.RequestDelete(rec.ID)
		case key.Matches(msg, m.keys.Download):
			export, err := m.ctrl.Download(rec.ID)
			if err != nil {
				m.ctrl.DownloadDone("", err)
				return m, nil
			}
			return m, func() tea.Msg {
				path, err := export()
				return exportDoneMsg{path: path, err: err}
			}
		case key.Matches(msg, m.keys.Copy):
			copyFn, url := m.copy, rec.URL
			return m, func() tea.Msg { return copiedMsg{url: url, err: copyFn(url)} }
		default:
			return m.gotoPage(msg)
		}
	}
	return m, nil
}

// gotoPage handles the digit keys 1-9.
func (m Model) gotoPage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(msg.String())
	if err == nil && m.ctrl.GoToPage(n) {
		m.cursor = 0
	}
	return m, nil
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		notify, err := m.ctrl.ConfirmDelete()
		m.syncInputs()
		m.clampCursor()
		if err != nil || notify == nil {
			return m, nil
		}
		return m, runNotify(notify, func(err error) tea.Msg { return removeDoneMsg{err: err} })
	case key.Matches(msg, m.keys.Deny):
		m.ctrl.CancelDelete()
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.ctrl.SetInput(m.inputs[focusTitle].Value(), m.inputs[focusURL].Value())
	notify, err := m.ctrl.Submit()
	if err != nil {
		return m, nil
	}
	m.syncInputs()
	m.clampCursor()
	return m, runNotify(notify, func(err error) tea.Msg { return submitDoneMsg{err: err} })
}

func runNotify(notify store.Notify, done func(error) tea.Msg) tea.Cmd {
	return func() tea.Msg { return done(notify(context.Background())) }
}

// syncInputs copies the controller's form values into the text inputs.
func (m *Model) syncInputs() {
	title, url := m.ctrl.Input()
	m.inputs[focusTitle].SetValue(title)
	m.inputs[focusURL].SetValue(url)
	m.inputs[focusURL].CursorEnd()
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	for i := range m.inputs {
		if focus(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (model.Record, bool) {
	visible := m.ctrl.Visible()
	if m.focus != focusList || m.cursor < 0 || m.cursor >= len(visible) {
		return model.Record{}, false
	}
	return visible[m.cursor], true
}
