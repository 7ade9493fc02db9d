package session

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"geovis/internal/logx"
	"geovis/pkg/transfer"
)

// EditOp names a control-point edit.
type EditOp int

const (
	EditSelect EditOp = iota
	EditAdd
	EditDelete
	EditColor
	EditOpacity
	EditDrag
)

func (op EditOp) String() string {
	switch op {
	case EditSelect:
		return "select"
	case EditAdd:
		return "add"
	case EditDelete:
		return "delete"
	case EditColor:
		return "color"
	case EditOpacity:
		return "opacity"
	case EditDrag:
		return "drag"
	default:
		return fmt.Sprintf("edit(%d)", int(op))
	}
}

// Edit is one control-point edit from the Host UI. Only the fields the op
// reads need to be set:
//
//	EditSelect  Index
//	EditAdd     Position
//	EditDelete  -
//	EditColor   Color
//	EditOpacity Opacity
//	EditDrag    Position, and Opacity when SetOpacity is true
type Edit struct {
	Op         EditOp
	Index      int
	Position   float64
	Color      colorful.Color
	Opacity    float64
	SetOpacity bool
}

// EditControlPoint applies e to the transfer function and recolors every
// active descriptor. A ControlPointLimitError leaves the function unchanged.
func (s *Session) EditControlPoint(e Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch e.Op {
	case EditSelect:
		err = s.tf.Select(e.Index)
	case EditAdd:
		_, err = s.tf.AddControlPoint(e.Position)
	case EditDelete:
		err = s.tf.DeleteSelected()
	case EditColor:
		s.tf.EditSelectedColor(e.Color)
	case EditOpacity:
		s.tf.EditSelectedOpacity(e.Opacity)
	case EditDrag:
		if e.SetOpacity {
			s.tf.DragSelectedTo(e.Position, e.Opacity)
		} else {
			s.tf.DragSelected(e.Position)
		}
	default:
		return fmt.Errorf("session: unknown edit %s", e.Op)
	}
	if err != nil {
		logx.Logger().Debug("session: edit rejected", "op", e.Op, "err", err)
		return err
	}
	return s.recolorLocked()
}

// HandlePointer feeds a pointer event from the transfer-function editor strip
// through the editor state machine.
func (s *Session) HandlePointer(l transfer.Layout, ev transfer.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.tf.Snapshot()
	next, err := transfer.Step(s.tf, l, s.editor, ev)
	s.editor = next
	if err != nil {
		return err
	}
	if snapshotsEqual(before, s.tf.Snapshot()) {
		return nil
	}
	return s.recolorLocked()
}

// SelectPreset replaces the transfer function with the named preset.
func (s *Session) SelectPreset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.presets.Get(name)
	if err != nil {
		return err
	}
	if err := s.tf.ApplyPreset(p); err != nil {
		return err
	}
	s.preset = p.Name
	s.editor = transfer.State{}
	return s.recolorLocked()
}

// NextPreset switches to the preset after the current one and returns its name.
func (s *Session) NextPreset() (string, error) {
	s.mu.Lock()
	name := s.presets.Next(s.preset).Name
	s.mu.Unlock()
	return name, s.SelectPreset(name)
}

// Preset returns the name of the last applied preset.
func (s *Session) Preset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// PresetNames lists the available presets.
func (s *Session) PresetNames() []string {
	return s.presets.Names()
}

// TransferFunction returns a snapshot of the control points and the selected index.
func (s *Session) TransferFunction() (transfer.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tf.Snapshot(), s.tf.Selected()
}

// Dragging reports whether the editor is mid-drag.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Dragging
}

func (s *Session) recolorLocked() error {
	return s.registry.Recolor(s.mappingFor)
}

func snapshotsEqual(a, b transfer.Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
