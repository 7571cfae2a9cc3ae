package tui

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/page"
	"github.com/Makepad-fr/qrgen/internal/qr"
	"github.com/Makepad-fr/qrgen/internal/ui"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	t := ui.Current()
	sections := []string{
		t.Title.Render("QR Code Generator"),
		m.formView(),
	}
	if msg := m.ctrl.Message(); msg.Text != "" {
		style := t.Success
		if msg.Error {
			style = t.Error
		}
		sections = append(sections, style.Render(msg.Text))
	}

	if p := m.ctrl.Pending(); p != nil {
		sections = append(sections, m.dialogView(*p))
	} else {
		sections = append(sections, m.cardsView())
		if m.ctrl.ShowPagination() {
			sections = append(sections, m.pageBar())
		}
		sections = append(sections, m.help.View(m.keys))
	}
	return ui.PanelString(strings.Join(sections, "\n\n"))
}

func (m Model) formView() string {
	t := ui.Current()
	button := t.Button
	if m.ctrl.Busy() {
		button = t.Muted.Padding(0, 1)
	}
	heading := "New QR code"
	if e, ok := m.ctrl.Form().(page.Editing); ok {
		heading = "Editing " + model.ShortID(e.ID)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Muted.Render(heading),
		m.inputs[focusTitle].View(),
		m.inputs[focusURL].View(),
		button.Render(m.ctrl.SubmitLabel()),
	)
}

func (m Model) cardsView() string {
	visible := m.ctrl.Visible()
	m.pruneSymbols(visible)
	if len(visible) == 0 {
		return ui.Current().Muted.Render("No QR codes yet. Type a URL above and press enter.")
	}
	cards := make([]string, 0, len(visible))
	for i, rec := range visible {
		cards = append(cards, m.card(rec, m.focus == focusList && i == m.cursor))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if m.width > 0 && lipgloss.Width(row) > m.width-4 {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return row
}

func (m Model) card(rec model.Record, selected bool) string {
	t := ui.Current()
	title := rec.Title
	if title == "" {
		title = t.Muted.Render("(untitled)")
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.symbol(rec.URL),
		t.Title.Render(title),
		t.Accent.Render(qr.Truncate(rec.URL, qr.DisplayCap)),
	)
	border := t.BorderColor
	if selected {
		border = t.Accent.GetForeground()
	}
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Render(body)
}

// pruneSymbols drops cached drawings for URLs no longer on screen.
func (m Model) pruneSymbols(visible []model.Record) {
	keep := make(map[string]bool, len(visible))
	for _, rec := range visible {
		keep[rec.URL] = true
	}
	for url := range m.qrCache {
		if !keep[url] {
			delete(m.qrCache, url)
		}
	}
}

// symbol renders url once and reuses the drawing on later frames.
func (m Model) symbol(url string) string {
	if s, ok := m.qrCache[url]; ok {
		return s
	}
	s, err := qr.Render(url)
	if err != nil {
		m.log.Error("render qr failed", "url", url, "err", err)
		s = ui.Current().Error.Render("cannot render QR code")
	}
	m.qrCache[url] = s
	return s
}

func (m Model) pageBar() string {
	t := ui.Current()
	cur := m.ctrl.CurrentPage()
	parts := make([]string, 0, len(m.ctrl.Pages())+2)
	if cur > 1 {
		parts = append(parts, t.Accent.Render("‹"))
	}
	for _, n := range m.ctrl.Pages() {
		label := fmt.Sprintf(" %d ", n)
		if n == cur {
			parts = append(parts, t.Selected.Render(label))
		} else {
			parts = append(parts, t.Muted.Render(label))
		}
	}
	if cur < m.ctrl.PageCount() {
		parts = append(parts, t.Accent.Render("›"))
	}
	return strings.Join(parts, " ")
}

func (m Model) dialogView(p page.PendingDelete) string {
	t := ui.Current()
	target := p.ID
	if rec, ok := m.ctrl.Record(p.ID); ok {
		target = qr.Truncate(rec.URL, qr.DisplayCap)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Error.GetForeground()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			t.Title.Render(page.ConfirmTitle),
			t.Muted.Render(page.ConfirmDescription),
			target,
			"",
			m.help.ShortHelpView(m.keys.dialogHelp()),
		))
}
