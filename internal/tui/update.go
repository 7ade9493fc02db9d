package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"geovis/internal/models"
	"geovis/pkg/session"
	"geovis/pkg/transfer"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case builtMsg:
		if errors.Is(msg.err, session.ErrSuperseded) {
			// the newer request for this kind is still in flight
			break
		}
		m.building &^= 1 << uint(msg.kind)
		switch {
		case msg.err != nil:
			m.setErr(fmt.Errorf("%s: %w", msg.kind, msg.err))
		default:
			m.setStatus(fmt.Sprintf("%s ready in %s", msg.kind, msg.elapsed.Round(time.Millisecond)))
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.helpVisible = !m.helpVisible
		m.help.ShowAll = m.helpVisible

	case key.Matches(msg, k.Surface):
		return m.request(models.KindDEM)
	case key.Matches(msg, k.Density):
		return m.request(models.KindDensity)
	case key.Matches(msg, k.Wiggle):
		return m.request(models.KindWiggle)
	case key.Matches(msg, k.Volume):
		return m.request(models.KindVolume)
	case key.Matches(msg, k.Clear):
		if err := m.sess.ClearAll(); err != nil {
			m.setErr(err)
		} else {
			m.setStatus("cleared")
		}

	case key.Matches(msg, k.Prev):
		m.shift(-max(1, m.count/2))
	case key.Matches(msg, k.Next):
		m.shift(max(1, m.count/2))
	case key.Matches(msg, k.Narrower):
		m.count = max(1, m.count/2)
		m.refreshSpectrum()
		m.setStatus(fmt.Sprintf("window: %d traces", m.count))
	case key.Matches(msg, k.Wider):
		m.count *= 2
		m.refreshSpectrum()
		m.setStatus(fmt.Sprintf("window: %d traces", m.count))

	case key.Matches(msg, k.Preset):
		name, err := m.sess.NextPreset()
		if err != nil {
			m.setErr(err)
		} else {
			m.setStatus("preset: " + name)
		}
	case key.Matches(msg, k.NextPoint):
		pts, sel := m.sess.TransferFunction()
		m.edit(session.Edit{Op: session.EditSelect, Index: (sel + 1) % len(pts)})
	case key.Matches(msg, k.AddPoint):
		m.edit(session.Edit{Op: session.EditAdd, Position: midpoint(m.sess.TransferFunction())})
	case key.Matches(msg, k.DelPoint):
		m.edit(session.Edit{Op: session.EditDelete})
	case key.Matches(msg, k.MoveLeft), key.Matches(msg, k.MoveRight):
		pts, sel := m.sess.TransferFunction()
		d := dragStep
		if key.Matches(msg, k.MoveLeft) {
			d = -d
		}
		m.edit(session.Edit{Op: session.EditDrag, Position: pts[sel].Position + d})
	case key.Matches(msg, k.MoreOpaq), key.Matches(msg, k.LessOpaq):
		pts, sel := m.sess.TransferFunction()
		d := opacityInc
		if key.Matches(msg, k.LessOpaq) {
			d = -d
		}
		m.edit(session.Edit{Op: session.EditOpacity, Opacity: pts[sel].Opacity + d})
	}
	return m, nil
}

func (m Model) request(kind models.Kind) (tea.Model, tea.Cmd) {
	m.building |= 1 << uint(kind)
	m.setStatus(fmt.Sprintf("building %s...", kind))
	return m, m.buildCmd(kind)
}

func (m *Model) shift(delta int) {
	m.start = max(0, m.start+delta)
	if ds := m.sess.Dataset(); ds != nil {
		m.start = min(m.start, max(0, ds.TraceCount-1))
	}
	m.refreshSpectrum()
	m.setStatus(fmt.Sprintf("window: traces %d..%d", m.start, m.start+m.count-1))
}

func (m *Model) edit(e session.Edit) {
	if err := m.sess.EditControlPoint(e); err != nil {
		m.setErr(err)
		return
	}
	_, sel := m.sess.TransferFunction()
	m.setStatus(fmt.Sprintf("%s: point %d", e.Op, sel))
}

// handleMouse maps a terminal cell to editor pixels at the cell center and
// feeds it to the session's pointer state machine.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	var typ transfer.EventType
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		typ = transfer.PointerDown
	case msg.Action == tea.MouseActionMotion:
		typ = transfer.PointerMove
	case msg.Action == tea.MouseActionRelease:
		typ = transfer.PointerUp
	default:
		return
	}

	col, row := msg.X-stripOriginX, msg.Y-stripOriginY
	w := m.stripWidth()
	inside := col >= 0 && col < w && row >= 0 && row < stripRows
	if typ == transfer.PointerDown && !inside {
		return
	}
	if typ == transfer.PointerMove && !m.sess.Dragging() {
		return
	}

	ev := transfer.Event{
		Type: typ,
		X:    float64(col*cellW + cellW/2),
		Y:    float64(row*cellH + cellH/2),
	}
	if err := m.sess.HandlePointer(m.layout(), ev); err != nil {
		m.setErr(err)
		return
	}
	if typ == transfer.PointerDown {
		_, sel := m.sess.TransferFunction()
		m.setStatus(fmt.Sprintf("point %d", sel))
	}
}

func (m Model) layout() transfer.Layout {
	return transfer.Layout{Width: float64(m.stripWidth() * cellW), Height: stripRows * cellH}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setErr(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// midpoint is halfway between the selected point and its right neighbour, or
// its left one for the last point.
func midpoint(pts transfer.Snapshot, sel int) float64 {
	if sel+1 < len(pts) {
		return (pts[sel].Position + pts[sel+1].Position) / 2
	}
	return (pts[sel-1].Position + pts[sel].Position) / 2
}
