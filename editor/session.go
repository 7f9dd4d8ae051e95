package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/models"
)

// Move directions for a selected block marker.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// toolbarOffsetY is how far above the selected marker's top edge the
// floating toolbar is anchored, in CSS pixels.
const toolbarOffsetY = 48

var (
	// ErrNoInsertionPoint is returned when a block insertion is attempted
	// with no previously captured selection range. Inserting at an
	// undefined location would be worse than refusing.
	ErrNoInsertionPoint = errors.New("no insertion point captured")

	// ErrNoBlockSelected is returned by move/delete without a selected marker.
	ErrNoBlockSelected = errors.New("no block selected")

	// ErrUnknownBlock is returned when the named marker is not in the body.
	ErrUnknownBlock = errors.New("block not found in body")

	// ErrDeleteNotConfirmed is returned when a block delete arrives without
	// the explicit confirmation flag.
	ErrDeleteNotConfirmed = errors.New("block delete requires confirmation")
)

// Rect is a client-reported bounding box for a marker, in viewport
// coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToolbarPosition anchors the floating contextual toolbar: horizontally
// centered on the selected marker, a fixed distance above its top edge.
type ToolbarPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session carries the block-insertion state for one open document: the
// parsed body, the single saved-selection slot, the picker state and the
// selected-marker pointer. All operations run on one session at a time.
type Session struct {
	mu         sync.Mutex
	documentID string
	body       *Body

	// saved is the one selection slot. Every capture overwrites it; an
	// insert consumes and clears it. Picker open/close never touches it,
	// but structural edits (block move/delete) invalidate it since the
	// segment it points into may have shifted.
	saved *Range

	pickerOpen     bool
	pickerCategory string

	selectedBlockID string
	toolbar         *ToolbarPosition

	dirty      bool
	lastActive time.Time
}

// NewSession parses the body blob into an editing session.
func NewSession(documentID, bodyBlob string) (*Session, error) {
	body, err := ParseBody(bodyBlob)
	if err != nil {
		return nil, err
	}
	return &Session{
		documentID: documentID,
		body:       body,
		lastActive: time.Now(),
	}, nil
}

// CaptureSelection snapshots the current text range. Called on every blur,
// mouse-up and key-up in the editing surface; only the most recent capture
// survives.
func (s *Session) CaptureSelection(r Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if !s.body.validRange(r) {
		return ErrInvalidRange
	}
	s.saved = &r
	return nil
}

// OpenPicker opens the reference browser for a category. Opening a second
// picker silently replaces the first; the saved selection range is left
// alone either way.
func (s *Session) OpenPicker(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.pickerOpen = true
	s.pickerCategory = category
}

// ClosePicker dismisses the reference browser without inserting.
func (s *Session) ClosePicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.pickerOpen = false
	s.pickerCategory = ""
}

// InsertBlock restores the captured range and splices a block marker built
// from the snippet at that position, replacing any selected text. The
// insertion is atomic: either the marker lands at the captured position or
// an error is returned and the body is untouched. On success the saved
// range is consumed, any block selection is cleared and the document is
// marked unsaved.
func (s *Session) InsertBlock(blockType string, snippet models.Snippet) (*models.BlockMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.saved == nil {
		zap.S().Warnw("block insert with no captured selection", "documentID", s.documentID)
		return nil, ErrNoInsertionPoint
	}

	marker := models.BlockMarker{
		ID:          uuid.New().String(),
		Type:        blockType,
		Reference:   snippet.Reference,
		ArabicText:  snippet.ArabicText,
		EnglishText: snippet.EnglishText,
	}
	if err := s.body.insertMarker(*s.saved, marker); err != nil {
		return nil, ErrNoInsertionPoint
	}

	s.saved = nil
	s.selectedBlockID = ""
	s.toolbar = nil
	s.pickerOpen = false
	s.pickerCategory = ""
	s.dirty = true
	return &marker, nil
}

// SelectBlock records the clicked marker and computes the toolbar anchor
// from its client-reported bounding box.
func (s *Session) SelectBlock(blockID string, rect Rect) (ToolbarPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.body.blockIndex(blockID) < 0 {
		return ToolbarPosition{}, ErrUnknownBlock
	}
	s.selectedBlockID = blockID
	pos := ToolbarPosition{
		X: rect.Left + rect.Width/2,
		Y: rect.Top - toolbarOffsetY,
	}
	s.toolbar = &pos
	return pos, nil
}

// ClearBlockSelection closes the contextual toolbar. Clicking anywhere
// outside a marker lands here.
func (s *Session) ClearBlockSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selectedBlockID = ""
	s.toolbar = nil
}

// MoveBlock swaps the selected marker with its adjacent sibling. At either
// boundary it reports moved=false and changes nothing. The marker's new
// bounding box comes from the client so the toolbar can be recomputed
// immediately; a stale toolbar past one operation is a defect.
func (s *Session) MoveBlock(direction string, newRect Rect) (bool, ToolbarPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.selectedBlockID == "" {
		return false, ToolbarPosition{}, ErrNoBlockSelected
	}
	idx := s.body.blockIndex(s.selectedBlockID)
	if idx < 0 {
		return false, ToolbarPosition{}, ErrUnknownBlock
	}
	if !s.body.moveBlock(idx, direction) {
		pos := ToolbarPosition{}
		if s.toolbar != nil {
			pos = *s.toolbar
		}
		return false, pos, nil
	}
	pos := ToolbarPosition{
		X: newRect.Left + newRect.Width/2,
		Y: newRect.Top - toolbarOffsetY,
	}
	s.toolbar = &pos
	s.saved = nil
	s.dirty = true
	return true, pos, nil
}

// DeleteBlock removes the selected marker from the body entirely.
func (s *Session) DeleteBlock(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	if s.selectedBlockID == "" {
		return ErrNoBlockSelected
	}
	idx := s.body.blockIndex(s.selectedBlockID)
	if idx < 0 {
		return ErrUnknownBlock
	}
	s.body.removeBlock(idx)
	s.selectedBlockID = ""
	s.toolbar = nil
	s.saved = nil
	s.dirty = true
	return nil
}

// SerializedBody returns the current body blob for persisting.
func (s *Session) SerializedBody() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.Serialize()
}

// Segments returns a copy of the current body segments.
func (s *Session) Segments() []models.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.Segments()
}

// Dirty reports whether the body changed since the last MarkSaved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkSaved clears the unsaved flag after the document body was persisted.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// PickerOpen reports the picker state and its category.
func (s *Session) PickerOpen() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickerOpen, s.pickerCategory
}

// SelectedBlockID returns the id of the selected marker, or "".
func (s *Session) SelectedBlockID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedBlockID
}

// LastActive returns the time of the last operation on this session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// Manager tracks the open editing session per document.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the open session for the document, creating one from
// the given body blob when none exists.
func (m *Manager) GetOrCreate(documentID, bodyBlob string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[documentID]; ok {
		return s, nil
	}
	s, err := NewSession(documentID, bodyBlob)
	if err != nil {
		return nil, err
	}
	m.sessions[documentID] = s
	return s, nil
}

// Get returns the open session for the document, or nil.
func (m *Manager) Get(documentID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[documentID]
}

// Close discards the session for the document.
func (m *Manager) Close(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, documentID)
}

// EvictIdle discards sessions idle longer than ttl and returns how many
// were removed.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	cutoff := time.Now().Add(-ttl)
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
