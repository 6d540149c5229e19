package editor

import (
	"image"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/frame"
	"github.com/catxpapa/catxframeup/pkg/geometry"
)

// Subscriber is notified after every state change.
type Subscriber interface {
	OnStateChange(Snapshot)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Snapshot)

func (f SubscriberFunc) OnStateChange(s Snapshot) { f(s) }

// Ticket identifies one border load started by BeginBorderLoad.
type Ticket struct {
	BorderID string
	seq      uint64
}

type subscription struct {
	id  uint64
	sub Subscriber
}

// Store owns one session's State. All methods are safe for concurrent use.
//
// Subscribers run synchronously after the state lock is released, in
// subscription order, and notifications never interleave. A subscriber
// must not call a mutating Store method from OnStateChange.
type Store struct {
	mu       sync.RWMutex
	state    State
	pending  Ticket
	seq      uint64
	drag     *decoration.DragSession
	subs     []subscription
	nextSub  uint64
	notifyMu sync.Mutex

	maxCanvas int
	logger    *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxCanvas overrides geometry.MaxCanvasDimension.
func WithMaxCanvas(n int) Option {
	return func(s *Store) { s.maxCanvas = n }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store holding NewState().
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:     NewState(),
		maxCanvas: geometry.MaxCanvasDimension,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers sub and returns a function that removes it.
func (s *Store) Subscribe(sub Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, sub: sub})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, e := range s.subs {
				if e.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return derive(s.state)
}

// mutate applies fn under the write lock. When fn reports a change, every
// subscriber receives the new snapshot before mutate returns.
func (s *Store) mutate(fn func(st *State) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn(&s.state)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state.fixSelection()
	snap := derive(s.state)
	subs := make([]Subscriber, len(s.subs))
	for i, e := range s.subs {
		subs[i] = e.sub
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.OnStateChange(snap)
	}
	return true
}

// fitRaster downscales img to the canvas sizing policy.
func fitRaster(img image.Image, limit int) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	w, h := geometry.FitCanvas(b.Dx(), b.Dy(), limit)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// SetImage replaces the photo. Photos larger than the canvas limit are
// downscaled once here, so the raster size is the canvas size.
func (s *Store) SetImage(ref string, img image.Image) {
	img = fitRaster(img, s.maxCanvas)
	s.mutate(func(st *State) bool {
		st.Image = Image{Ref: ref, Raster: img}
		return true
	})
	if img != nil {
		b := img.Bounds()
		s.logger.Debug("Photo set", "ref", ref, "canvas", b.Size())
	}
}

// BeginBorderLoad records id as the requested border and returns a ticket
// for CommitBorder. Any earlier ticket becomes stale.
func (s *Store) BeginBorderLoad(id string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending = Ticket{BorderID: id, seq: s.seq}
	return s.pending
}

// CommitBorder activates a loaded border if t is still the latest request.
// It returns false, leaving state untouched, for a stale ticket.
func (s *Store) CommitBorder(t Ticket, cfg frame.Config, img image.Image) bool {
	ok := s.mutate(func(st *State) bool {
		if t.seq == 0 || t != s.pending {
			return false
		}
		st.Border = Border{ID: t.BorderID, Config: cfg, Raster: img, WidthRatio: st.Border.WidthRatio, Active: true}
		return true
	})
	if !ok {
		s.logger.Debug("Dropped stale border load", "border", t.BorderID)
	}
	return ok
}

// SetBorder loads a border with no concurrent competition. It is
// equivalent to CommitBorder(BeginBorderLoad(id), cfg, img).
func (s *Store) SetBorder(id string, cfg frame.Config, img image.Image) {
	s.CommitBorder(s.BeginBorderLoad(id), cfg, img)
}

// SetWidthRatio sets the border thickness ratio. Negative values clamp to 0.
func (s *Store) SetWidthRatio(r float64) {
	s.mutate(func(st *State) bool {
		st.Border.WidthRatio = max(r, 0)
		return true
	})
}

// ClearBorder hides the border and invalidates pending border loads.
func (s *Store) ClearBorder() {
	s.mu.Lock()
	s.seq++
	s.pending = Ticket{}
	s.mu.Unlock()

	s.mutate(func(st *State) bool {
		st.Border.Active = false
		return true
	})
}

// AddDecoration appends d, registers its raster under d.Source and selects
// it. An empty d.ID gets a fresh one. It returns the stored ID.
func (s *Store) AddDecoration(d decoration.Decoration, raster image.Image) string {
	if d.ID == "" {
		d.ID = decoration.NewID()
	}
	s.mutate(func(st *State) bool {
		st.Decorations = append(st.Decorations, d)
		if raster != nil {
			st.Stickers[d.Source] = raster
		}
		st.SelectedID = d.ID
		return true
	})
	return d.ID
}

// UpdateDecoration applies fn to the decoration with the given ID. The ID
// itself cannot be changed. It returns false for an unknown ID.
func (s *Store) UpdateDecoration(id string, fn func(*decoration.Decoration)) bool {
	return s.mutate(func(st *State) bool {
		i := st.index(id)
		if i < 0 {
			return false
		}
		fn(&st.Decorations[i])
		st.Decorations[i].ID = id
		st.pruneStickers()
		return true
	})
}

// RemoveDecoration deletes a decoration, clearing the selection if it was
// selected. It returns false for an unknown ID.
func (s *Store) RemoveDecoration(id string) bool {
	return s.mutate(func(st *State) bool {
		i := st.index(id)
		if i < 0 {
			return false
		}
		st.Decorations = append(st.Decorations[:i:i], st.Decorations[i+1:]...)
		if st.SelectedID == id {
			st.SelectedID = ""
		}
		st.pruneStickers()
		return true
	})
}

// ClearDecorations removes every decoration and the selection.
func (s *Store) ClearDecorations() {
	s.mutate(func(st *State) bool {
		st.Decorations = nil
		st.SelectedID = ""
		clear(st.Stickers)
		return true
	})
}

// Select selects a decoration; the empty ID clears the selection. It
// returns false for an unknown ID.
func (s *Store) Select(id string) bool {
	return s.mutate(func(st *State) bool {
		if id != "" && st.index(id) < 0 {
			return false
		}
		st.SelectedID = id
		return true
	})
}

// SetMode switches the editor mode. Leaving decoration mode ends any drag.
func (s *Store) SetMode(m Mode) {
	s.mutate(func(st *State) bool {
		st.Mode = m
		if m != ModeDecoration {
			s.drag = nil
		}
		return true
	})
}

// Replace swaps in a complete state in one mutation. Restoring a saved
// project uses it so subscribers never observe a half-applied document.
func (s *Store) Replace(st State) {
	st = st.clone()
	st.Image.Raster = fitRaster(st.Image.Raster, s.maxCanvas)
	if st.Mode == "" {
		st.Mode = ModeImage
	}
	s.mu.Lock()
	s.seq++
	s.pending = Ticket{}
	s.drag = nil
	s.mu.Unlock()

	s.mutate(func(cur *State) bool {
		*cur = st
		return true
	})
}

// Reset returns the store to NewState().
func (s *Store) Reset() {
	s.Replace(NewState())
}

// Dispatch feeds a pointer event through Reduce and applies the result.
// It reports whether the state changed.
func (s *Store) Dispatch(ev PointerEvent) bool {
	return s.mutate(func(st *State) bool {
		t := Reduce(derive(*st), s.drag, ev)
		s.drag = t.Drag
		changed := false
		if t.Select {
			changed = st.SelectedID != t.SelectedID
			st.SelectedID = t.SelectedID
		}
		if t.Move {
			if i := st.index(t.TargetID); i >= 0 {
				d := &st.Decorations[i]
				changed = changed || d.X != t.X || d.Y != t.Y
				d.X, d.Y = t.X, t.Y
			}
		}
		return changed
	})
}

// Dragging reports whether a drag session is in progress.
func (s *Store) Dragging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drag != nil
}
