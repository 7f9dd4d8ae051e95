package delivery

import "github.com/minbarhq/minbar-api/models"

// QuoteView is the paired key quote and its source.
type QuoteView struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// CardView is the presentation projection of one card. Optional fields are
// omitted entirely when absent so the client hides the whole block, not
// just its value.
type CardView struct {
	SectionLabel        string     `json:"sectionLabel"`
	Title               string     `json:"title"`
	BulletPoints        []string   `json:"bulletPoints"`
	ArabicText          string     `json:"arabicText,omitempty"`
	Quote               *QuoteView `json:"quote,omitempty"`
	Transition          string     `json:"transition,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	TimeEstimateSeconds int        `json:"timeEstimateSeconds"`
	TimeEstimateClock   string     `json:"timeEstimateClock"`
}

// Render projects a card into its view. Pure: no state, no side effects.
func Render(d models.CardDetails) CardView {
	title := d.Title
	if title == "" {
		title = "Untitled"
	}
	bullets := d.BulletPoints
	if bullets == nil {
		bullets = []string{}
	}

	view := CardView{
		SectionLabel:        d.SectionLabel,
		Title:               title,
		BulletPoints:        bullets,
		ArabicText:          d.ArabicText,
		Transition:          d.TransitionText,
		Notes:               d.Notes,
		TimeEstimateSeconds: d.TimeEstimateSeconds,
		TimeEstimateClock:   FormatClock(d.TimeEstimateSeconds),
	}
	if d.KeyQuote != "" {
		view.Quote = &QuoteView{Text: d.KeyQuote, Source: d.QuoteSource}
	}
	return view
}
