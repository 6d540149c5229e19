package cli

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/project"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

// Editor key steps.
const (
	nudgeStep     = 0.01 // normalized canvas units per arrow press
	nudgeStepFast = 0.05 // with shift
	rotateStep    = 15.0 // degrees
	scaleFactor   = 1.1
	ratioStep     = 0.01
)

var (
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabStyle       = lipgloss.NewStyle().Foreground(colorDim)
	listSelected   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormal     = lipgloss.NewStyle().Foreground(colorWhite)
	listDim        = lipgloss.NewStyle().Foreground(colorDim)
)

// assetLoader loads the assets the editor can add while running.
type assetLoader interface {
	LoadFrame(ctx context.Context, id string) (assets.Frame, error)
	LoadDecoration(ctx context.Context, id string) (assets.Sticker, error)
}

// borderLoadedMsg completes a border load started with BeginBorderLoad.
type borderLoadedMsg struct {
	ticket editor.Ticket
	frame  assets.Frame
	err    error
}

type stickerLoadedMsg struct {
	sticker assets.Sticker
	err     error
}

// editorModel is the bubbletea model behind "frameup edit". All edits go
// through the Store; a subscribed scene.Renderer keeps the composite
// current so stats and exports reflect every change.
type editorModel struct {
	ctx      context.Context
	store    *editor.Store
	renderer *scene.Renderer
	loader   assetLoader
	path     string

	frames      []string
	decorations []string
	nextFrame   int
	nextDeco    int

	dirty   bool
	status  string
	failed  bool
	saveDoc func(path string, data []byte) error
}

func newEditorModel(ctx context.Context, store *editor.Store, loader assetLoader, path string, frames, decos []string) editorModel {
	r := scene.NewRenderer()
	store.Subscribe(r)
	r.Render(store.Snapshot())
	return editorModel{
		ctx:         ctx,
		store:       store,
		renderer:    r,
		loader:      loader,
		path:        path,
		frames:      frames,
		decorations: decos,
		saveDoc:     scene.WriteFileAtomic,
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case borderLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		if m.store.CommitBorder(msg.ticket, msg.frame.Config, msg.frame.Raster) {
			m.dirty = true
			return m.info("frame %s", msg.frame.ID), nil
		}
		return m, nil

	case stickerLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		s := msg.sticker
		d := decoration.New("", s.Ref, m.store.Snapshot().MinDimension(), s.Config.DefaultScale)
		m.store.AddDecoration(d, s.Raster)
		m.store.SetMode(editor.ModeDecoration)
		m.dirty = true
		return m.info("added %s", s.ID), nil
	}
	return m, nil
}

func (m editorModel) handleKey(key string) (tea.Model, tea.Cmd) {
	m.status, m.failed = "", false

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "m":
		m.store.SetMode(m.store.Snapshot().Mode.Next())
		m.dirty = true
		return m, nil
	case "s":
		return m.save(), nil
	case "f":
		return m.loadNextFrame()
	case "a":
		return m.addNextDecoration()
	}

	switch m.store.Snapshot().Mode {
	case editor.ModeFrame:
		return m.frameKey(key), nil
	case editor.ModeDecoration:
		return m.decorationKey(key), nil
	}
	return m, nil
}

func (m editorModel) frameKey(key string) editorModel {
	snap := m.store.Snapshot()
	switch key {
	case "+", "=", "up":
		m.store.SetWidthRatio(snap.Border.WidthRatio + ratioStep)
	case "-", "down":
		m.store.SetWidthRatio(snap.Border.WidthRatio - ratioStep)
	case "c", "x":
		m.store.ClearBorder()
	default:
		return m
	}
	m.dirty = true
	return m
}

func (m editorModel) decorationKey(key string) editorModel {
	snap := m.store.Snapshot()

	if key == "tab" || key == "shift+tab" {
		return m.cycleSelection(snap, key == "tab")
	}

	d, ok := snap.Selected()
	if !ok {
		return m.info("nothing selected, press tab")
	}

	switch key {
	case "left", "right", "up", "down", "shift+left", "shift+right", "shift+up", "shift+down":
		step := nudgeStep
		if strings.HasPrefix(key, "shift+") {
			step = nudgeStepFast
		}
		var dx, dy float64
		switch strings.TrimPrefix(key, "shift+") {
		case "left":
			dx = -step
		case "right":
			dx = step
		case "up":
			dy = -step
		case "down":
			dy = step
		}
		m.nudge(snap, d, dx, dy)
	case "[":
		m.store.UpdateDecoration(d.ID, func(d *decoration.Decoration) { d.Rotation = math.Mod(d.Rotation-rotateStep, 360) })
	case "]":
		m.store.UpdateDecoration(d.ID, func(d *decoration.Decoration) { d.Rotation = math.Mod(d.Rotation+rotateStep, 360) })
	case "+", "=":
		m.store.UpdateDecoration(d.ID, func(d *decoration.Decoration) { d.Scale *= scaleFactor })
	case "-":
		m.store.UpdateDecoration(d.ID, func(d *decoration.Decoration) { d.Scale /= scaleFactor })
	case "x", "delete", "backspace":
		m.store.RemoveDecoration(d.ID)
	default:
		return m
	}
	m.dirty = true
	return m
}

// nudge moves d by (dx, dy) canvas fractions. When d is the topmost
// decoration under its own center the move is replayed as a pointer drag
// through the reducer, exactly as a mouse would; otherwise the position is
// set directly.
func (m editorModel) nudge(snap editor.Snapshot, d decoration.Decoration, dx, dy float64) {
	w, h := float64(snap.Canvas.X), float64(snap.Canvas.Y)
	cx, cy := d.Center(w, h)
	if id, hit := decoration.HitTest(snap.Decorations, cx, cy, w, h); w > 0 && h > 0 && hit && id == d.ID {
		m.store.Dispatch(editor.PointerEvent{Kind: editor.PointerDown, X: cx, Y: cy})
		m.store.Dispatch(editor.PointerEvent{Kind: editor.PointerMove, X: cx + dx*w, Y: cy + dy*h})
		m.store.Dispatch(editor.PointerEvent{Kind: editor.PointerUp, X: cx + dx*w, Y: cy + dy*h})
		return
	}
	m.store.UpdateDecoration(d.ID, func(d *decoration.Decoration) {
		d.X, d.Y = decoration.Clamp01(d.X+dx), decoration.Clamp01(d.Y+dy)
	})
}

func (m editorModel) cycleSelection(snap editor.Snapshot, forward bool) editorModel {
	n := len(snap.Decorations)
	if n == 0 {
		return m.info("no decorations, press a to add one")
	}
	i := -1
	for j, d := range snap.Decorations {
		if d.ID == snap.SelectedID {
			i = j
		}
	}
	switch {
	case i < 0 && forward:
		i = 0
	case i < 0:
		i = n - 1
	case forward:
		i = (i + 1) % n
	default:
		i = (i - 1 + n) % n
	}
	m.store.Select(snap.Decorations[i].ID)
	return m
}

func (m editorModel) loadNextFrame() (tea.Model, tea.Cmd) {
	if len(m.frames) == 0 {
		return m.info("no frames available"), nil
	}
	id := m.frames[m.nextFrame%len(m.frames)]
	m.nextFrame++
	ticket := m.store.BeginBorderLoad(id)
	ctx, loader := m.ctx, m.loader
	return m.info("loading frame %s", id), func() tea.Msg {
		f, err := loader.LoadFrame(ctx, id)
		return borderLoadedMsg{ticket: ticket, frame: f, err: err}
	}
}

func (m editorModel) addNextDecoration() (tea.Model, tea.Cmd) {
	if len(m.decorations) == 0 {
		return m.info("no decorations available"), nil
	}
	id := m.decorations[m.nextDeco%len(m.decorations)]
	m.nextDeco++
	ctx, loader := m.ctx, m.loader
	return m.info("loading %s", id), func() tea.Msg {
		s, err := loader.LoadDecoration(ctx, id)
		return stickerLoadedMsg{sticker: s, err: err}
	}
}

func (m editorModel) save() editorModel {
	var buf bytes.Buffer
	if err := project.Encode(&buf, project.FromSnapshot(m.store.Snapshot())); err != nil {
		return m.fail(err)
	}
	if err := m.saveDoc(m.path, buf.Bytes()); err != nil {
		return m.fail(err)
	}
	m.dirty = false
	return m.info("saved %s", m.path)
}

func (m editorModel) info(format string, args ...any) editorModel {
	m.status, m.failed = fmt.Sprintf(format, args...), false
	return m
}

func (m editorModel) fail(err error) editorModel {
	m.status, m.failed = errors.UserMessage(err), true
	return m
}

func (m editorModel) View() string {
	snap := m.store.Snapshot()
	var b strings.Builder

	title := "frameup edit " + m.path
	if m.dirty {
		title += "*"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	tabs := make([]string, len(editor.Modes))
	for i, mode := range editor.Modes {
		if mode == snap.Mode {
			tabs[i] = tabActiveStyle.Render(string(mode))
		} else {
			tabs[i] = tabStyle.Render(string(mode))
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n\n")

	frame := "no frame"
	if snap.Border.Active {
		frame = fmt.Sprintf("frame %s (ratio %.2f)", snap.Border.ID, snap.Border.WidthRatio)
	}
	st := m.renderer.LastStats()
	b.WriteString(listDim.Render(fmt.Sprintf("canvas %dx%d · %s · %d border regions · %d decorations drawn",
		snap.Canvas.X, snap.Canvas.Y, frame, st.BorderRegions, st.Decorations)))
	b.WriteString("\n\n")

	if len(snap.Decorations) == 0 {
		b.WriteString(listDim.Render("  no decorations"))
		b.WriteString("\n")
	}
	for _, d := range snap.Decorations {
		line := fmt.Sprintf("%s  x %.3f  y %.3f  scale %.2f  rot %4.0f°  %s", shortID(d.ID), d.X, d.Y, d.Scale, d.Rotation, d.Source)
		if d.ID == snap.SelectedID {
			b.WriteString(listSelected.Render("▸ " + line))
		} else {
			b.WriteString(listNormal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.status == "":
	case m.failed:
		b.WriteString(StyleError.Render(m.status))
		b.WriteString("\n")
	default:
		b.WriteString(StyleSuccess.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(listDim.Render(helpLine(snap.Mode)))
	b.WriteString("\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func helpLine(mode editor.Mode) string {
	common := "m mode  f frame  a add sticker  s save  q quit"
	switch mode {
	case editor.ModeFrame:
		return "+/- width  c clear frame  " + common
	case editor.ModeDecoration:
		return "←↑→↓ move (shift: faster)  [ ] rotate  +/- scale  tab select  x delete  " + common
	}
	return common
}
