package models

// Segment kinds inside a document body.
const (
	SegmentHTML  = "html"
	SegmentBlock = "block"
)

// Block marker types.
const (
	BlockQuran   = "quran"
	BlockHadith  = "hadith"
	BlockOpening = "opening"
	BlockClosing = "closing"
	BlockStory   = "story"
	BlockQuote   = "quote"
)

// Segment is one unit of a document body: either an opaque run of authored
// HTML or an inert block marker. The body blob is the JSON array of its
// segments.
type Segment struct {
	Kind  string       `json:"kind" bson:"kind"`
	HTML  string       `json:"html,omitempty" bson:"html,omitempty"`
	Block *BlockMarker `json:"block,omitempty" bson:"block,omitempty"`
}

// BlockMarker is an inserted reference snippet embedded in a document body.
// It has no identity outside the body; edits are delete-and-reinsert.
type BlockMarker struct {
	ID          string `json:"id" bson:"id"`
	Type        string `json:"type" bson:"type"`
	Reference   string `json:"reference" bson:"reference"`
	ArabicText  string `json:"arabicText" bson:"arabicText"`
	EnglishText string `json:"englishText" bson:"englishText"`
}
