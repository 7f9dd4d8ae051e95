package delivery

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/models"
)

// Phase is the coarse state of a live delivery session. Playing/Paused is
// the IsPlaying flag on top of PhaseReady; reaching the last card is not a
// terminal state.
type Phase int

// Session phases.
const (
	PhaseSelecting Phase = iota
	PhaseLoading
	PhaseReady
)

// Transport commands accepted by a live session.
const (
	CmdToggle   = "toggle"
	CmdNext     = "next"
	CmdPrevious = "previous"
	CmdJump     = "jump"
)

// ErrNoCards is returned when a session is asked to go live over an empty
// outline. The session stays in Loading; this is distinct from a fetch
// error.
var ErrNoCards = errors.New("no cards to deliver")

// ErrOutOfBounds is returned by Jump for an index outside [0, len-1].
var ErrOutOfBounds = errors.New("card index out of bounds")

// KeyCommand maps a keyboard key to its transport command. Only the live
// bindings are recognized.
func KeyCommand(key string) (string, bool) {
	switch key {
	case "ArrowRight":
		return CmdNext, true
	case "ArrowLeft":
		return CmdPrevious, true
	case " ", "Space":
		return CmdToggle, true
	}
	return "", false
}

// FormatClock renders whole seconds as minutes:seconds with the seconds
// zero-padded to two digits.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Snapshot is the full observable state of a session, pushed to the
// transport on every tick and transition.
type Snapshot struct {
	DocumentID                  string     `json:"documentID"`
	Phase                       string     `json:"phase"`
	Index                       int        `json:"index"`
	CardCount                   int        `json:"cardCount"`
	IsPlaying                   bool       `json:"isPlaying"`
	SessionElapsedSeconds       int        `json:"sessionElapsedSeconds"`
	SessionElapsedClock         string     `json:"sessionElapsedClock"`
	CurrentCardRemainingSeconds int        `json:"currentCardRemainingSeconds"`
	CurrentCardRemainingClock   string     `json:"currentCardRemainingClock"`
	Card                        *CardView  `json:"card,omitempty"`
	NextCard                    *CardView  `json:"nextCard,omitempty"`
}

// Session drives one live delivery run over a fixed ordered card sequence.
// Runtime-only: nothing here is persisted and exiting discards it all.
type Session struct {
	mu         sync.Mutex
	documentID string
	phase      Phase
	cards      []models.CardDetails
	index      int
	playing    bool
	elapsed    int
	remaining  int

	ticker *time.Ticker
	stop   chan struct{}

	lastActive time.Time

	// notify receives a snapshot after every tick and transition. Invoked
	// outside the session lock. watchers are read-only mirrors added by
	// Watch; they receive the same snapshots and nothing else.
	notify      func(Snapshot)
	watchers    map[int]func(Snapshot)
	nextWatcher int
}

// NewSession creates a session in the Selecting phase.
func NewSession(notify func(Snapshot)) *Session {
	if notify == nil {
		notify = func(Snapshot) {}
	}
	return &Session{phase: PhaseSelecting, notify: notify, lastActive: time.Now()}
}

// BeginLoading marks that a document has been chosen and its cards are
// being fetched.
func (s *Session) BeginLoading(documentID string) {
	s.mu.Lock()
	s.documentID = documentID
	s.phase = PhaseLoading
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// LoadCards installs the fetched card sequence and enters Ready: index 0,
// countdown seeded from the first card, elapsed zero, not playing. An empty
// sequence keeps the session in Loading and returns ErrNoCards.
func (s *Session) LoadCards(cards []models.CardDetails) error {
	s.mu.Lock()
	if len(cards) == 0 {
		s.mu.Unlock()
		return ErrNoCards
	}
	s.cards = cards
	s.index = 0
	s.playing = false
	s.elapsed = 0
	s.remaining = cards[0].TimeEstimateSeconds
	s.phase = PhaseReady
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return nil
}

// Toggle flips play/pause. Pausing freezes both counters immediately.
func (s *Session) Toggle() {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return
	}
	s.playing = !s.playing
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Tick advances both counters by one logical second in a single
// transition: the session count-up and the per-card countdown (floored at
// zero, never auto-advancing). A paused session ignores ticks entirely.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.phase != PhaseReady || !s.playing {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	if s.remaining > 0 {
		s.remaining--
	}
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Next advances to the following card. A no-op on the last card; timers
// are untouched by the no-op.
func (s *Session) Next() {
	s.jump(func() int { return s.index + 1 })
}

// Previous retreats to the preceding card. A no-op on the first card.
func (s *Session) Previous() {
	s.jump(func() int { return s.index - 1 })
}

// Jump navigates directly to the target index.
func (s *Session) Jump(target int) error {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return nil
	}
	if target < 0 || target >= len(s.cards) {
		s.mu.Unlock()
		return ErrOutOfBounds
	}
	s.setIndexLocked(target)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return nil
}

func (s *Session) jump(target func() int) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return
	}
	t := target()
	if t < 0 || t >= len(s.cards) {
		s.mu.Unlock()
		return
	}
	s.setIndexLocked(t)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// setIndexLocked moves to the card at idx and reseeds the countdown from
// that card's estimate. Session elapsed and play state carry over.
func (s *Session) setIndexLocked(idx int) {
	s.index = idx
	s.remaining = s.cards[idx].TimeEstimateSeconds
	s.lastActive = time.Now()
}

// ApplyKey translates a keyboard key into its command and applies it.
// Keys are ignored while still selecting a document.
func (s *Session) ApplyKey(key string) {
	cmd, ok := KeyCommand(key)
	if !ok {
		return
	}
	s.Apply(cmd, 0)
}

// Apply executes a transport command.
func (s *Session) Apply(cmd string, arg int) {
	s.mu.Lock()
	phase := s.phase
	s.mu.Unlock()
	if phase == PhaseSelecting {
		return
	}
	switch cmd {
	case CmdToggle:
		s.Toggle()
	case CmdNext:
		s.Next()
	case CmdPrevious:
		s.Previous()
	case CmdJump:
		if err := s.Jump(arg); err != nil {
			zap.S().Debugw("jump out of bounds", "target", arg)
		}
	}
}

// StartClock begins the one-second wall-clock ticker. Idempotent: a second
// call while a ticker is live does nothing, so a session never carries two
// timers.
func (s *Session) StartClock() {
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		return
	}
	s.ticker = time.NewTicker(time.Second)
	s.stop = make(chan struct{})
	ticker, stop := s.ticker, s.stop
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-stop:
				return
			}
		}
	}()
}

// Exit tears the session down: the ticker is cancelled synchronously and
// no further ticks are delivered. Safe to call from any phase, repeatedly.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.ticker = nil
		s.stop = nil
	}
	s.playing = false
}

// Watch registers a read-only observer that receives every subsequent
// snapshot. The returned cancel func removes it again.
func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchers == nil {
		s.watchers = make(map[int]func(Snapshot))
	}
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// publish delivers a snapshot to the owner and all watchers, outside the
// session lock.
func (s *Session) publish(snap Snapshot) {
	s.mu.Lock()
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	s.notify(snap)
	for _, w := range watchers {
		w(snap)
	}
}

// LastActive reports when the session last changed state. A playing
// session ticks every second and so never reads as idle.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		DocumentID:                  s.documentID,
		Phase:                       phaseName(s.phase),
		Index:                       s.index,
		CardCount:                   len(s.cards),
		IsPlaying:                   s.playing,
		SessionElapsedSeconds:       s.elapsed,
		SessionElapsedClock:         FormatClock(s.elapsed),
		CurrentCardRemainingSeconds: s.remaining,
		CurrentCardRemainingClock:   FormatClock(s.remaining),
	}
	if s.phase == PhaseReady {
		view := Render(s.cards[s.index])
		snap.Card = &view
		if s.index+1 < len(s.cards) {
			next := Render(s.cards[s.index+1])
			snap.NextCard = &next
		}
	}
	return snap
}

func phaseName(p Phase) string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	}
	return "unknown"
}
