package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/internal/models"
	"geovis/pkg/config"
	"geovis/pkg/segy"
	"geovis/pkg/session"
)

func loadedSession(t *testing.T, traces int) *session.Session {
	t.Helper()
	s, err := session.New(config.DefaultConfig(), nil)
	require.NoError(t, err)

	ds := &models.SEGYDataset{SampleIntervalMicroseconds: 4000, SampleCount: 16, TraceCount: traces}
	for i := 0; i < traces; i++ {
		tr := make(models.Trace, ds.SampleCount)
		for j := range tr {
			tr[j] = float32(i-j) / 4
		}
		ds.Traces = append(ds.Traces, tr)
	}
	buf, err := segy.Encode(ds, segy.FormatIEEEFloat)
	require.NoError(t, err)
	_, err = s.LoadSEGY(buf)
	require.NoError(t, err)
	return s
}

func sized(t *testing.T, s *session.Session, count int) Model {
	t.Helper()
	next, _ := New(s, count).Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return next.(Model)
}

func press(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestBuildKeyPublishesDescriptor(t *testing.T) {
	s := loadedSession(t, 20)
	m := sized(t, s, 10)

	m, cmd := press(m, runeKey('d'))
	require.NotNil(t, cmd)
	assert.Contains(t, m.Status(), "building density")

	m, _ = press(m, cmd())
	assert.Contains(t, m.Status(), "density ready")
	assert.False(t, m.statusErr)
	assert.Zero(t, m.building)

	_, ok := s.Registry().Active(models.KindDensity)
	assert.True(t, ok)
}

func TestSupersededBuildKeepsKindInFlight(t *testing.T) {
	s := loadedSession(t, 20)
	m := sized(t, s, 10)

	m, cmd := press(m, runeKey('d'))
	require.NotNil(t, cmd)

	m, _ = press(m, builtMsg{kind: models.KindDensity, err: session.ErrSuperseded})
	assert.NotZero(t, m.building&(1<<uint(models.KindDensity)))
	assert.Contains(t, m.Status(), "building density")
	assert.False(t, m.statusErr)

	m, _ = press(m, cmd())
	assert.Zero(t, m.building)
	assert.Contains(t, m.Status(), "density ready")
}

func TestBuildWithoutDataReportsError(t *testing.T) {
	s, err := session.New(config.DefaultConfig(), nil)
	require.NoError(t, err)
	m := sized(t, s, 10)

	m, cmd := press(m, runeKey('w'))
	m, _ = press(m, cmd())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.Status(), "wiggle")
	assert.Empty(t, s.Registry().ActiveKinds())
}

func TestWindowKeys(t *testing.T) {
	m := sized(t, loadedSession(t, 12), 8)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	start, count := m.Window()
	assert.Equal(t, 4, start)
	assert.Equal(t, 8, count)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	start, _ = m.Window()
	assert.Equal(t, 11, start, "start stays on the last trace")

	for i := 0; i < 5; i++ {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	start, _ = m.Window()
	assert.Equal(t, 0, start)

	m, _ = press(m, runeKey('['))
	_, count = m.Window()
	assert.Equal(t, 4, count)
	m, _ = press(m, runeKey(']'))
	m, _ = press(m, runeKey(']'))
	_, count = m.Window()
	assert.Equal(t, 16, count)
}

func TestPresetKeyCycles(t *testing.T) {
	s := loadedSession(t, 4)
	m := sized(t, s, 4)
	before := s.Preset()

	m, _ = press(m, runeKey('p'))
	assert.NotEqual(t, before, s.Preset())
	assert.Contains(t, m.Status(), s.Preset())
}

func TestPointKeys(t *testing.T) {
	s := loadedSession(t, 4)
	m := sized(t, s, 4)
	pts, _ := s.TransferFunction()
	n := len(pts)

	m, _ = press(m, runeKey('a'))
	pts, sel := s.TransferFunction()
	require.Len(t, pts, n+1)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	after, _ := s.TransferFunction()
	assert.InDelta(t, min(1, pts[sel].Opacity+opacityInc), after[sel].Opacity, 1e-9)

	m, _ = press(m, runeKey('x'))
	pts, _ = s.TransferFunction()
	assert.Len(t, pts, n)

	_, sel = s.TransferFunction()
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	_, next := s.TransferFunction()
	assert.Equal(t, (sel+1)%n, next)
	assert.False(t, m.statusErr)
}

func TestMouseOnGlyphSelectsAndDrags(t *testing.T) {
	s := loadedSession(t, 4)
	m := sized(t, s, 4)

	// first point sits at position 0; its glyph is in strip column 0, row 4
	m, _ = press(m, tea.MouseMsg{X: stripOriginX, Y: stripOriginY + 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, sel := s.TransferFunction()
	assert.Equal(t, 0, sel)
	assert.True(t, s.Dragging())

	m, _ = press(m, tea.MouseMsg{X: stripOriginX + 10, Y: stripOriginY + 4, Action: tea.MouseActionMotion})
	pts, sel := s.TransferFunction()
	assert.Greater(t, pts[sel].Position, 0.0)

	m, _ = press(m, tea.MouseMsg{X: stripOriginX + 10, Y: stripOriginY + 4, Action: tea.MouseActionRelease})
	assert.False(t, s.Dragging())
	assert.False(t, m.statusErr)
}

func TestMouseOutsideStripIsIgnored(t *testing.T) {
	s := loadedSession(t, 4)
	m := sized(t, s, 4)
	before, _ := s.TransferFunction()

	m, _ = press(m, tea.MouseMsg{X: 1, Y: 30, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	after, _ := s.TransferFunction()
	assert.Equal(t, before, after)
	assert.False(t, s.Dragging())
	assert.Equal(t, "ready", m.Status())
}

func TestViewShowsState(t *testing.T) {
	s := loadedSession(t, 6)
	m := sized(t, s, 4)
	assert.Empty(t, New(s, 4).View(), "no size yet")

	out := m.View()
	assert.Contains(t, out, "geovis")
	assert.Contains(t, out, "6 traces")
	assert.Contains(t, out, s.Preset())
	assert.Contains(t, out, "dem    not loaded")
}
