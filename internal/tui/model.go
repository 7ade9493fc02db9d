// Package tui is the terminal Host UI: it drives a session.Session from key
// and mouse input and draws the transfer-function editor strip.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"geovis/internal/models"
	"geovis/pkg/session"
)

// Editor strip geometry. Each terminal cell stands for cellW x cellH editor
// pixels so the transfer.Layout hit radii keep their meaning.
const (
	cellW     = 8
	cellH     = 16
	stripRows = 10

	// top-left cell of the strip content: header row, box border, box padding
	stripOriginX = 2
	stripOriginY = 2

	dragStep   = 0.02
	opacityInc = 0.05
)

type Model struct {
	width  int
	height int

	helpVisible bool
	status      string
	statusErr   bool

	sess *session.Session
	keys keyMap
	help help.Model

	// trace window
	start int
	count int

	// dominant frequency of the window, Hz; 0 when unknown
	domHz float64

	// bit k set while a build of models.Kind(k) is in flight
	building uint
}

// builtMsg carries the outcome of one RequestVisualization.
type builtMsg struct {
	kind    models.Kind
	d       models.Descriptor
	err     error
	elapsed time.Duration
}

// New returns a model over sess showing a window of count traces from 0.
func New(sess *session.Session, count int) Model {
	if count <= 0 {
		count = sess.Config().Wiggle.MaxTraces
	}
	m := Model{
		sess:   sess,
		keys:   defaultKeys(),
		help:   help.New(),
		count:  count,
		status: "ready",
	}
	m.refreshSpectrum()
	return m
}

func (m *Model) refreshSpectrum() {
	f, err := m.sess.DominantFrequency(m.start, m.count)
	if err != nil {
		f = 0
	}
	m.domHz = f
}

func (m Model) Init() tea.Cmd { return nil }

// Window returns the current trace window.
func (m Model) Window() (start, count int) { return m.start, m.count }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

func (m Model) buildCmd(kind models.Kind) tea.Cmd {
	sess, start, count := m.sess, m.start, m.count
	return func() tea.Msg {
		t0 := time.Now()
		d, err := sess.RequestVisualization(context.Background(), kind, start, count)
		return builtMsg{kind: kind, d: d, err: err, elapsed: time.Since(t0)}
	}
}

func (m Model) stripWidth() int {
	return max(20, m.width-6)
}
