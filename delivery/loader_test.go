package delivery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/minbarhq/minbar-api/databases/mocks"
	"github.com/minbarhq/minbar-api/delivery"
	"github.com/minbarhq/minbar-api/models"
)

func TestSearchDocuments(t *testing.T) {
	docDB := &mocks.DocumentDatabase{}
	docDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Document{
			{ID: "d1", Details: models.DocumentDetails{Title: "Patience in hardship", OwnerID: "u1"}},
		}, nil)

	l := &delivery.Loader{DocDB: docDB}
	docs, err := l.SearchDocuments(context.Background(), "u1", "patience", 0)

	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "Patience in hardship", docs[0].Details.Title)
}

func TestSearchDocumentsEscapesRegexMetacharacters(t *testing.T) {
	// the query is a substring, not a pattern; "(" must not error the store
	docDB := &mocks.DocumentDatabase{}
	docDB.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f, ok := filter.(bson.M)
		if !ok {
			return false
		}
		title, ok := f["document.title"].(bson.M)
		return ok && title["$regex"] == `patience \(pt\. 1`
	}), mock.Anything).Return([]models.Document{}, nil)

	l := &delivery.Loader{DocDB: docDB}
	_, err := l.SearchDocuments(context.Background(), "u1", "patience (pt. 1", 0)

	assert.NoError(t, err)
	docDB.AssertExpectations(t)
}

func TestSearchDocumentsNilBecomesEmpty(t *testing.T) {
	docDB := &mocks.DocumentDatabase{}
	docDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	l := &delivery.Loader{DocDB: docDB}
	docs, err := l.SearchDocuments(context.Background(), "u1", "", 500)

	assert.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestLoadCards(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Card{
			{ID: "c1", Details: models.CardDetails{DocumentID: "d1", Ordinal: 1, TimeEstimateSeconds: 120}},
			{ID: "c2", Details: models.CardDetails{DocumentID: "d1", Ordinal: 2, TimeEstimateSeconds: 300}},
		}, nil)

	l := &delivery.Loader{CardDB: cardDB}
	details, err := l.LoadCards(context.Background(), "d1")

	assert.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, 1, details[0].Ordinal)
	assert.Equal(t, 2, details[1].Ordinal)
}

func TestLoadCardsEmptyUsesFallback(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Card{}, nil)

	l := &delivery.Loader{CardDB: cardDB}
	details, err := l.LoadCards(context.Background(), "d1")

	assert.NoError(t, err)
	assert.Len(t, details, 3)
	assert.Equal(t, models.SectionIntro, details[0].SectionLabel)
	assert.Equal(t, models.SectionMain, details[1].SectionLabel)
	assert.Equal(t, models.SectionClosing, details[2].SectionLabel)
	for i, d := range details {
		assert.Equal(t, i+1, d.Ordinal)
		assert.Greater(t, d.TimeEstimateSeconds, 0)
		assert.Equal(t, "d1", d.DocumentID)
	}
}

func TestLoadCardsFetchError(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-error"))

	l := &delivery.Loader{CardDB: cardDB}
	_, err := l.LoadCards(context.Background(), "d1")

	assert.EqualError(t, err, "mocked-error")
}

func TestFallbackOutlineDrivesSession(t *testing.T) {
	s := delivery.NewSession(nil)
	s.BeginLoading("d1")
	assert.NoError(t, s.LoadCards(delivery.FallbackOutline("d1")))

	snap := s.Snapshot()
	assert.Equal(t, "ready", snap.Phase)
	assert.Equal(t, 3, snap.CardCount)
	assert.Equal(t, 120, snap.CurrentCardRemainingSeconds)
}
