package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minbarhq/minbar-api/models"
)

func twoCardOutline() []models.CardDetails {
	return []models.CardDetails{
		{DocumentID: "doc1", Ordinal: 1, SectionLabel: models.SectionIntro, Title: "Opening", TimeEstimateSeconds: 120},
		{DocumentID: "doc1", Ordinal: 2, SectionLabel: models.SectionMain, Title: "Main message", TimeEstimateSeconds: 180},
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "0:05", FormatClock(5))
	assert.Equal(t, "0:59", FormatClock(59))
	assert.Equal(t, "1:00", FormatClock(60))
	assert.Equal(t, "2:30", FormatClock(150))
	assert.Equal(t, "10:00", FormatClock(600))
	assert.Equal(t, "12:34", FormatClock(754))
}

func TestKeyCommand(t *testing.T) {
	cmd, ok := KeyCommand("ArrowRight")
	assert.True(t, ok)
	assert.Equal(t, CmdNext, cmd)

	cmd, ok = KeyCommand("ArrowLeft")
	assert.True(t, ok)
	assert.Equal(t, CmdPrevious, cmd)

	cmd, ok = KeyCommand(" ")
	assert.True(t, ok)
	assert.Equal(t, CmdToggle, cmd)

	cmd, ok = KeyCommand("Space")
	assert.True(t, ok)
	assert.Equal(t, CmdToggle, cmd)

	_, ok = KeyCommand("Enter")
	assert.False(t, ok)
}

func TestLoadCardsEntersReady(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.Equal(t, "loading", s.Snapshot().Phase)

	err := s.LoadCards(twoCardOutline())
	assert.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "ready", snap.Phase)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 2, snap.CardCount)
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, 0, snap.SessionElapsedSeconds)
	assert.Equal(t, 120, snap.CurrentCardRemainingSeconds)
	assert.Equal(t, "2:00", snap.CurrentCardRemainingClock)
	assert.NotNil(t, snap.Card)
	assert.Equal(t, "Opening", snap.Card.Title)
	assert.NotNil(t, snap.NextCard)
	assert.Equal(t, "Main message", snap.NextCard.Title)
}

func TestLoadCardsEmptyStaysLoading(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")

	err := s.LoadCards(nil)
	assert.ErrorIs(t, err, ErrNoCards)
	assert.Equal(t, "loading", s.Snapshot().Phase)
}

func TestTickIgnoredWhilePaused(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))

	s.Tick()
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.SessionElapsedSeconds)
	assert.Equal(t, 120, snap.CurrentCardRemainingSeconds)
}

func TestPlaybackScenario(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))

	s.Toggle()
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	snap := s.Snapshot()
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, 5, snap.SessionElapsedSeconds)
	assert.Equal(t, 115, snap.CurrentCardRemainingSeconds)

	// advancing reseeds the countdown but keeps the session clock
	s.ApplyKey("ArrowRight")
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 5, snap.SessionElapsedSeconds)
	assert.Equal(t, 180, snap.CurrentCardRemainingSeconds)
	assert.True(t, snap.IsPlaying)
	assert.Nil(t, snap.NextCard)

	// already on the last card, ArrowRight does nothing
	s.ApplyKey("ArrowRight")
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 180, snap.CurrentCardRemainingSeconds)

	// space pauses, both clocks freeze
	s.ApplyKey(" ")
	s.Tick()
	s.Tick()
	snap = s.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, 5, snap.SessionElapsedSeconds)
	assert.Equal(t, 180, snap.CurrentCardRemainingSeconds)
}

func TestPreviousAtStartIsNoop(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))

	s.Previous()
	assert.Equal(t, 0, s.Snapshot().Index)

	s.Next()
	s.Previous()
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 120, snap.CurrentCardRemainingSeconds)
}

func TestJumpBounds(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))

	assert.ErrorIs(t, s.Jump(-1), ErrOutOfBounds)
	assert.ErrorIs(t, s.Jump(2), ErrOutOfBounds)
	assert.Equal(t, 0, s.Snapshot().Index)

	assert.NoError(t, s.Jump(1))
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 180, snap.CurrentCardRemainingSeconds)
}

func TestRemainingFloorsAtZero(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards([]models.CardDetails{
		{DocumentID: "doc1", Ordinal: 1, TimeEstimateSeconds: 2},
	}))

	s.Toggle()
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	snap := s.Snapshot()
	assert.Equal(t, 5, snap.SessionElapsedSeconds)
	assert.Equal(t, 0, snap.CurrentCardRemainingSeconds)
	assert.Equal(t, "0:00", snap.CurrentCardRemainingClock)
	// overtime never auto-advances
	assert.Equal(t, 0, snap.Index)
	assert.True(t, snap.IsPlaying)
}

func TestApplyIgnoredWhileSelecting(t *testing.T) {
	s := NewSession(nil)

	s.Apply(CmdToggle, 0)
	s.ApplyKey("ArrowRight")

	snap := s.Snapshot()
	assert.Equal(t, "selecting", snap.Phase)
	assert.False(t, snap.IsPlaying)
}

func TestNotifyReceivesSnapshots(t *testing.T) {
	var got []Snapshot
	s := NewSession(func(snap Snapshot) { got = append(got, snap) })

	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))
	s.Toggle()
	s.Tick()

	assert.Len(t, got, 4)
	assert.Equal(t, "loading", got[0].Phase)
	assert.Equal(t, "ready", got[1].Phase)
	assert.True(t, got[2].IsPlaying)
	assert.Equal(t, 1, got[3].SessionElapsedSeconds)
	assert.Equal(t, 119, got[3].CurrentCardRemainingSeconds)
}

func TestWatchMirrorsSnapshotsUntilCancelled(t *testing.T) {
	var owner, mirrored []Snapshot
	s := NewSession(func(snap Snapshot) { owner = append(owner, snap) })
	cancel := s.Watch(func(snap Snapshot) { mirrored = append(mirrored, snap) })

	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))
	s.Toggle()

	// a watcher sees exactly what the owner sees
	assert.Equal(t, owner, mirrored)
	assert.Len(t, mirrored, 3)
	assert.True(t, mirrored[2].IsPlaying)

	cancel()
	s.Toggle()
	assert.Len(t, owner, 4)
	assert.Len(t, mirrored, 3)
}

func TestExitIsRepeatable(t *testing.T) {
	s := NewSession(nil)
	s.BeginLoading("doc1")
	assert.NoError(t, s.LoadCards(twoCardOutline()))

	s.StartClock()
	s.StartClock() // second call must not double the timers
	s.Exit()
	s.Exit()

	assert.False(t, s.Snapshot().IsPlaying)
}
