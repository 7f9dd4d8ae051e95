package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minbarhq/minbar-api/models"
)

func TestParseBodyEmptyBlob(t *testing.T) {
	b, err := ParseBody("")
	assert.NoError(t, err)

	segs := b.Segments()
	assert.Len(t, segs, 1)
	assert.Equal(t, models.SegmentHTML, segs[0].Kind)
	assert.Empty(t, segs[0].HTML)
}

func TestParseBodyBadBlob(t *testing.T) {
	_, err := ParseBody("{not json")
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	b, err := ParseBody(`[{"kind":"html","html":"<p>hello</p>"}]`)
	assert.NoError(t, err)

	blob, err := b.Serialize()
	assert.NoError(t, err)

	again, err := ParseBody(blob)
	assert.NoError(t, err)
	assert.Equal(t, b.Segments(), again.Segments())
}

func TestInsertMarkerSplitsHostSegment(t *testing.T) {
	b, err := ParseBody(`[{"kind":"html","html":"before after"}]`)
	assert.NoError(t, err)

	marker := models.BlockMarker{ID: "b1", Type: models.BlockQuran, Reference: "2:153"}
	// caret between "before " and "after"
	assert.NoError(t, b.insertMarker(Range{Segment: 0, Start: 7, End: 7}, marker))

	segs := b.Segments()
	assert.Len(t, segs, 3)
	assert.Equal(t, "before ", segs[0].HTML)
	assert.Equal(t, models.SegmentBlock, segs[1].Kind)
	assert.Equal(t, "b1", segs[1].Block.ID)
	assert.Equal(t, "after", segs[2].HTML)
}

func TestInsertMarkerReplacesSelectedText(t *testing.T) {
	b, err := ParseBody(`[{"kind":"html","html":"keep DROP keep"}]`)
	assert.NoError(t, err)

	marker := models.BlockMarker{ID: "b1", Type: models.BlockHadith}
	assert.NoError(t, b.insertMarker(Range{Segment: 0, Start: 5, End: 9}, marker))

	segs := b.Segments()
	assert.Len(t, segs, 3)
	assert.Equal(t, "keep ", segs[0].HTML)
	assert.Equal(t, " keep", segs[2].HTML)
}

func TestInsertMarkerDropsEmptyHalves(t *testing.T) {
	b, err := ParseBody(`[{"kind":"html","html":"text"}]`)
	assert.NoError(t, err)

	marker := models.BlockMarker{ID: "b1", Type: models.BlockQuran}
	// whole segment selected, both halves vanish
	assert.NoError(t, b.insertMarker(Range{Segment: 0, Start: 0, End: 4}, marker))

	segs := b.Segments()
	assert.Len(t, segs, 1)
	assert.Equal(t, models.SegmentBlock, segs[0].Kind)
}

func TestInsertMarkerRejectsBadRange(t *testing.T) {
	b, err := ParseBody(`[{"kind":"html","html":"abc"}]`)
	assert.NoError(t, err)

	marker := models.BlockMarker{ID: "b1"}
	assert.ErrorIs(t, b.insertMarker(Range{Segment: 1, Start: 0, End: 0}, marker), ErrInvalidRange)
	assert.ErrorIs(t, b.insertMarker(Range{Segment: 0, Start: 2, End: 1}, marker), ErrInvalidRange)
	assert.ErrorIs(t, b.insertMarker(Range{Segment: 0, Start: 0, End: 10}, marker), ErrInvalidRange)
}

func TestMoveBlockBoundaries(t *testing.T) {
	b, err := ParseBody(`[{"kind":"block","block":{"id":"b1"}},{"kind":"html","html":"x"},{"kind":"block","block":{"id":"b2"}}]`)
	assert.NoError(t, err)

	assert.False(t, b.moveBlock(b.blockIndex("b1"), MoveUp))
	assert.False(t, b.moveBlock(b.blockIndex("b2"), MoveDown))

	assert.True(t, b.moveBlock(b.blockIndex("b1"), MoveDown))
	segs := b.Segments()
	assert.Equal(t, "x", segs[0].HTML)
	assert.Equal(t, "b1", segs[1].Block.ID)
}

func TestRemoveBlockLeavesEditableBody(t *testing.T) {
	b, err := ParseBody(`[{"kind":"block","block":{"id":"b1"}}]`)
	assert.NoError(t, err)

	b.removeBlock(0)
	segs := b.Segments()
	assert.Len(t, segs, 1)
	assert.Equal(t, models.SegmentHTML, segs[0].Kind)
}
