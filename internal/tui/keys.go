package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Edit     key.Binding
	Download key.Binding
	Delete   key.Binding
	Copy     key.Binding
	Confirm  key.Binding
	Deny     key.Binding
	Quit     key.Binding
	ForceQ   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate/save")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel edit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy url")),
		Confirm:  key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "delete")),
		Deny:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQ:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// ShortHelp and FullHelp implement help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Edit, k.Download, k.Delete, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Submit, k.Cancel},
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Edit, k.Download, k.Delete, k.Copy, k.Quit},
	}
}

// dialogHelp is shown while a delete waits for confirmation.
func (k keyMap) dialogHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Deny}
}
