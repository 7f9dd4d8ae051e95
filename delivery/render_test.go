package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minbarhq/minbar-api/models"
)

func TestRenderDefaults(t *testing.T) {
	view := Render(models.CardDetails{TimeEstimateSeconds: 150})

	assert.Equal(t, "Untitled", view.Title)
	assert.NotNil(t, view.BulletPoints)
	assert.Empty(t, view.BulletPoints)
	assert.Nil(t, view.Quote)
	assert.Equal(t, 150, view.TimeEstimateSeconds)
	assert.Equal(t, "2:30", view.TimeEstimateClock)
}

func TestRenderFullCard(t *testing.T) {
	view := Render(models.CardDetails{
		SectionLabel:        models.SectionHadith,
		Title:               "On sincerity",
		BulletPoints:        []string{"Actions are by intentions"},
		ArabicText:          "إنما الأعمال بالنيات",
		KeyQuote:            "Actions are but by intentions",
		QuoteSource:         "Bukhari 1",
		TransitionText:      "Which brings us to...",
		Notes:               "slow down here",
		TimeEstimateSeconds: 90,
	})

	assert.Equal(t, "On sincerity", view.Title)
	assert.Equal(t, models.SectionHadith, view.SectionLabel)
	assert.NotNil(t, view.Quote)
	assert.Equal(t, "Actions are but by intentions", view.Quote.Text)
	assert.Equal(t, "Bukhari 1", view.Quote.Source)
	assert.Equal(t, "Which brings us to...", view.Transition)
	assert.Equal(t, "slow down here", view.Notes)
	assert.Equal(t, "1:30", view.TimeEstimateClock)
}

func TestRenderQuoteOmittedWhenEmpty(t *testing.T) {
	// a source without a quote is meaningless, the whole block is dropped
	view := Render(models.CardDetails{QuoteSource: "Bukhari 1", TimeEstimateSeconds: 60})
	assert.Nil(t, view.Quote)
}
