package models

// Section label presets for a card. The field is an open string tag in the
// API, these are the values the editor offers.
const (
	SectionIntro     = "INTRO"
	SectionMain      = "MAIN"
	SectionHadith    = "HADITH"
	SectionQuran     = "QURAN"
	SectionStory     = "STORY"
	SectionPractical = "PRACTICAL"
	SectionClosing   = "CLOSING"
)

// DefaultTimeEstimateSeconds seeds the per-card countdown for new cards.
const DefaultTimeEstimateSeconds = 150

// Card holds the structure for the card collection in mongo.
// A card is one ordered unit of a document's delivery outline.
type Card struct {
	ID      string      `json:"_id" bson:"_id"`
	Details CardDetails `json:"card" bson:"card"`
	Version int32       `json:"__v" bson:"__v"`
}

// CardDetails holds the structure for the inner card structure as defined
// in the card collection in mongo. Ordinal is 1-based and authoritative for
// playback order; ordinals are never renumbered so gaps are expected.
type CardDetails struct {
	DocumentID          string      `json:"documentID" bson:"documentID"`
	Ordinal             int         `json:"ordinal" bson:"ordinal"`
	SectionLabel        string      `json:"sectionLabel" bson:"sectionLabel"`
	Title               string      `json:"title" bson:"title"`
	BulletPoints        []string    `json:"bulletPoints" bson:"bulletPoints"`
	ArabicText          string      `json:"arabicText" bson:"arabicText"`
	KeyQuote            string      `json:"keyQuote" bson:"keyQuote"`
	QuoteSource         string      `json:"quoteSource" bson:"quoteSource"`
	TransitionText      string      `json:"transitionText" bson:"transitionText"`
	TimeEstimateSeconds int         `json:"timeEstimateSeconds" bson:"timeEstimateSeconds"`
	Notes               string      `json:"notes" bson:"notes"`
	CreatedAt           interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt           interface{} `json:"updatedAt" bson:"updatedAt"`
}
