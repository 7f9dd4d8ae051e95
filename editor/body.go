package editor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minbarhq/minbar-api/models"
)

// ErrInvalidRange is returned when a selection range does not land inside
// an HTML segment of the current body.
var ErrInvalidRange = errors.New("selection range is not inside the body")

// Range is a captured text selection inside a body: a segment index plus
// rune offsets within that segment's HTML. Start == End is a caret.
type Range struct {
	Segment int `json:"segment"`
	Start   int `json:"start"`
	End     int `json:"end"`
}

// Body is the editable document body: an ordered sequence of segments,
// each either an opaque HTML run or an inert block marker. The stored body
// blob is the JSON array of segments.
type Body struct {
	segments []models.Segment
}

// ParseBody decodes a body blob. An empty blob yields a body with a single
// empty HTML segment so there is always somewhere for a caret to land.
func ParseBody(blob string) (*Body, error) {
	if blob == "" {
		return &Body{segments: []models.Segment{{Kind: models.SegmentHTML}}}, nil
	}
	var segments []models.Segment
	if err := json.Unmarshal([]byte(blob), &segments); err != nil {
		return nil, fmt.Errorf("failed to decode body blob: %w", err)
	}
	if len(segments) == 0 {
		segments = []models.Segment{{Kind: models.SegmentHTML}}
	}
	return &Body{segments: segments}, nil
}

// Serialize encodes the body back into its blob form.
func (b *Body) Serialize() (string, error) {
	out, err := json.Marshal(b.segments)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Segments returns a copy of the segment sequence.
func (b *Body) Segments() []models.Segment {
	out := make([]models.Segment, len(b.segments))
	copy(out, b.segments)
	return out
}

// validRange reports whether r lands inside an HTML segment with sane
// offsets.
func (b *Body) validRange(r Range) bool {
	if r.Segment < 0 || r.Segment >= len(b.segments) {
		return false
	}
	seg := b.segments[r.Segment]
	if seg.Kind != models.SegmentHTML {
		return false
	}
	n := len([]rune(seg.HTML))
	return r.Start >= 0 && r.Start <= r.End && r.End <= n
}

// insertMarker splices a block marker at the range, replacing any selected
// text. The host HTML segment is split around the marker; empty halves are
// dropped.
func (b *Body) insertMarker(r Range, marker models.BlockMarker) error {
	if !b.validRange(r) {
		return ErrInvalidRange
	}
	runes := []rune(b.segments[r.Segment].HTML)
	before := string(runes[:r.Start])
	after := string(runes[r.End:])

	var spliced []models.Segment
	spliced = append(spliced, b.segments[:r.Segment]...)
	if before != "" {
		spliced = append(spliced, models.Segment{Kind: models.SegmentHTML, HTML: before})
	}
	spliced = append(spliced, models.Segment{Kind: models.SegmentBlock, Block: &marker})
	if after != "" {
		spliced = append(spliced, models.Segment{Kind: models.SegmentHTML, HTML: after})
	}
	spliced = append(spliced, b.segments[r.Segment+1:]...)
	if len(spliced) == 0 {
		spliced = []models.Segment{{Kind: models.SegmentHTML}}
	}
	b.segments = spliced
	return nil
}

// blockIndex returns the segment index of the marker with the given id, or
// -1 when absent.
func (b *Body) blockIndex(blockID string) int {
	for i, s := range b.segments {
		if s.Kind == models.SegmentBlock && s.Block != nil && s.Block.ID == blockID {
			return i
		}
	}
	return -1
}

// moveBlock swaps the marker at idx with its previous or next sibling
// segment. Returns false at either boundary.
func (b *Body) moveBlock(idx int, direction string) bool {
	switch direction {
	case MoveUp:
		if idx <= 0 {
			return false
		}
		b.segments[idx-1], b.segments[idx] = b.segments[idx], b.segments[idx-1]
	case MoveDown:
		if idx >= len(b.segments)-1 {
			return false
		}
		b.segments[idx], b.segments[idx+1] = b.segments[idx+1], b.segments[idx]
	default:
		return false
	}
	return true
}

// removeBlock deletes the marker segment at idx.
func (b *Body) removeBlock(idx int) {
	b.segments = append(b.segments[:idx], b.segments[idx+1:]...)
	if len(b.segments) == 0 {
		b.segments = []models.Segment{{Kind: models.SegmentHTML}}
	}
}
