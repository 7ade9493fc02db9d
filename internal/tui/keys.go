package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Surface key.Binding
	Density key.Binding
	Wiggle  key.Binding
	Volume  key.Binding
	Clear   key.Binding

	Prev      key.Binding
	Next      key.Binding
	Narrower  key.Binding
	Wider     key.Binding
	Preset    key.Binding
	NextPoint key.Binding
	AddPoint  key.Binding
	DelPoint  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoreOpaq  key.Binding
	LessOpaq  key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Surface: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "dem surface")),
		Density: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "density")),
		Wiggle:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wiggle")),
		Volume:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "volume")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),

		Prev:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "earlier traces")),
		Next:      key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "later traces")),
		Narrower:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "fewer traces")),
		Wider:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "more traces")),
		Preset:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next preset")),
		NextPoint: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next point")),
		AddPoint:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add point")),
		DelPoint:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete point")),
		MoveLeft:  key.NewBinding(key.WithKeys(","), key.WithHelp(",", "move point left")),
		MoveRight: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "move point right")),
		MoreOpaq:  key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "opacity +")),
		LessOpaq:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "opacity -")),

		Help: key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Surface, k.Density, k.Wiggle, k.Volume, k.Preset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Surface, k.Density, k.Wiggle, k.Volume, k.Clear},
		{k.Prev, k.Next, k.Narrower, k.Wider},
		{k.Preset, k.NextPoint, k.AddPoint, k.DelPoint},
		{k.MoveLeft, k.MoveRight, k.MoreOpaq, k.LessOpaq},
		{k.Help, k.Quit},
	}
}
