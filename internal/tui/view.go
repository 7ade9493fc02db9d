package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geovis/internal/models"
	"geovis/pkg/segy"
	"geovis/pkg/session"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	contentWidth := max(10, m.width)

	header := titleStyle.Render(" geovis ─ seismic & terrain visualization ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	strip := boxStyle.Render(m.renderStrip())
	info := boxStyle.Width(contentWidth - 2).Render(m.renderInfo())

	status := m.status
	if m.statusErr {
		status = errStyle.Render(status)
	} else {
		status = dimStyle.Render(status)
	}
	footer := lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(m.keys))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, strip, info, footer))
}

func (m Model) renderInfo() string {
	var b strings.Builder

	if ds := m.sess.Dataset(); ds != nil {
		in := segy.Summarize(ds)
		fmt.Fprintf(&b, "segy   %d traces × %d samples, dt %d µs, %s, %.0f ms\n",
			in.TraceCount, in.SampleCount, in.DtMicros, in.FormatName, in.RecordLength)
	} else {
		b.WriteString(dimStyle.Render("segy   not loaded") + "\n")
	}
	if g := m.sess.Grid(); g != nil {
		fmt.Fprintf(&b, "dem    %d × %d, z %.1f..%.1f\n", g.Width, g.Height, g.ZMin, g.ZMax)
	} else {
		b.WriteString(dimStyle.Render("dem    not loaded") + "\n")
	}
	fmt.Fprintf(&b, "window traces %d..%d (%d)", m.start, m.start+m.count-1, m.count)
	if m.domHz > 0 {
		fmt.Fprintf(&b, ", dominant %.0f Hz", m.domHz)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "preset %s\n", m.sess.Preset())

	active := make(map[models.Kind]bool)
	for _, k := range m.sess.Registry().ActiveKinds() {
		active[k] = true
	}
	parts := make([]string, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		switch {
		case m.building&(1<<uint(k)) != 0:
			parts = append(parts, selStyle.Render(k.String()+"…"))
		case active[k]:
			parts = append(parts, activeStyle.Render(k.String()))
		default:
			parts = append(parts, dimStyle.Render(k.String()))
		}
	}
	b.WriteString("shown  " + strings.Join(parts, "  "))

	if d, ok := m.sess.Registry().Active(models.KindVolume); ok {
		lo, hi := session.ScalarRange(d)
		fmt.Fprintf(&b, "\nvolume range %.3g..%.3g", lo, hi)
	}
	return b.String()
}

// renderStrip draws the transfer-function editor: the color bar with one
// glyph per control point, a gap, then the opacity curve and its nodes.
func (m Model) renderStrip() string {
	l := m.layout()
	w := m.stripWidth()
	pts, sel := m.sess.TransferFunction()

	colOf := func(pos float64) int { return min(w-1, int(l.PositionToX(pos))/cellW) }
	rowOf := func(y float64) int { return min(stripRows-1, int(y)/cellH) }

	barRows := rowOf(math.Floor(l.Height*0.55) - 1)
	glyphRow := rowOf(math.Floor(l.Height*0.55) - 10)

	grid := make([][]string, stripRows)
	for r := range grid {
		grid[r] = make([]string, w)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	for c := 0; c < w; c++ {
		pos := l.XToPosition(float64(c*cellW + cellW/2))
		bg := lipgloss.Color(pts.SampleColor(pos).Clamped().Hex())
		for r := 0; r <= barRows; r++ {
			grid[r][c] = lipgloss.NewStyle().Background(bg).Render(" ")
		}
		if r := rowOf(l.OpacityToY(pts.SampleAlpha(pos))); r > barRows {
			grid[r][c] = dimStyle.Render("·")
		}
	}

	for i, p := range pts {
		c := colOf(p.Position)
		style, node := nodeStyle, "o"
		if i == sel {
			style, node = selStyle, "●"
		}
		bg := lipgloss.Color(p.Color.Clamped().Hex())
		grid[glyphRow][c] = style.Background(bg).Render("▲")
		grid[rowOf(l.OpacityToY(p.Opacity))][c] = style.Render(node)
	}

	lines := make([]string, stripRows)
	for r := range grid {
		lines[r] = strings.Join(grid[r], "")
	}
	return strings.Join(lines, "\n")
}
