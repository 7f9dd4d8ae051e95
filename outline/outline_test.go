package outline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/databases/mocks"
	"github.com/minbarhq/minbar-api/models"
	"github.com/minbarhq/minbar-api/outline"
)

func savedDocDB() *mocks.DocumentDatabase {
	docDB := &mocks.DocumentDatabase{}
	docDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	return docDB
}

func storedCards() []models.Card {
	return []models.Card{
		{ID: "c1", Details: models.CardDetails{DocumentID: "d1", Ordinal: 1, TimeEstimateSeconds: 120}},
		{ID: "c2", Details: models.CardDetails{DocumentID: "d1", Ordinal: 3, TimeEstimateSeconds: 150}},
	}
}

// cardStore mocks the find + max-ordinal pair every Load performs.
func cardStore(cards []models.Card, maxOrdinal int) *mocks.CardDatabase {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cards, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(maxOrdinal, nil)
	return cardDB
}

func TestLoadSelectsFirstCard(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	assert.Len(t, o.Cards(), 2)
	assert.Equal(t, "c1", o.SelectedID())
}

func TestAddCardAssignsNextOrdinal(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)
	cardDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	card, err := o.AddCard(context.Background())
	assert.NoError(t, err)
	// highest stored ordinal is 3, gaps are never reused
	assert.Equal(t, 4, card.Details.Ordinal)
	assert.Equal(t, models.SectionMain, card.Details.SectionLabel)
	assert.Equal(t, models.DefaultTimeEstimateSeconds, card.Details.TimeEstimateSeconds)
	assert.Equal(t, []string{"New talking point"}, card.Details.BulletPoints)
	// the new card becomes the active selection immediately
	assert.Equal(t, card.ID, o.SelectedID())
	assert.Len(t, o.Cards(), 3)
}

func TestLoadSeedsOrdinalFromStoreAggregate(t *testing.T) {
	// the store's high-water mark outranks anything visible in the loaded
	// cards, so ordinals of long-deleted cards are not handed out again
	cardDB := cardStore(storedCards(), 7)
	cardDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	card, err := o.AddCard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 8, card.Details.Ordinal)
	cardDB.AssertCalled(t, "MaxOrdinal", mock.Anything, "d1")
}

func TestOrdinalsNeverReusedAfterDelete(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)
	cardDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	cardDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	assert.NoError(t, o.DeleteCard(context.Background(), "c2", true))

	card, err := o.AddCard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 4, card.Details.Ordinal)
}

func TestAddCardOnUnsavedDocument(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	docDB := &mocks.DocumentDatabase{}
	docDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	o := outline.New("d1", cardDB, docDB)
	_, err := o.AddCard(context.Background())

	assert.ErrorIs(t, err, outline.ErrDocumentNotSaved)
	assert.Empty(t, o.Cards())
}

func TestAddCardStoreFailureIsNotUnsaved(t *testing.T) {
	// a store outage while checking the parent must not masquerade as an
	// unsaved document; the two failures carry different user guidance
	cardDB := &mocks.CardDatabase{}
	docDB := &mocks.DocumentDatabase{}
	docDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	o := outline.New("d1", cardDB, docDB)
	_, err := o.AddCard(context.Background())

	assert.ErrorIs(t, err, outline.ErrPersistenceFailed)
	assert.NotErrorIs(t, err, outline.ErrDocumentNotSaved)
	assert.Empty(t, o.Cards())
}

func TestAddCardKeepsLocalOnPersistenceFailure(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	o := outline.New("d1", cardDB, savedDocDB())
	card, err := o.AddCard(context.Background())

	assert.ErrorIs(t, err, outline.ErrPersistenceFailed)
	// local-first: the card is already in the collection and selected
	assert.NotNil(t, card)
	assert.Len(t, o.Cards(), 1)
	assert.Equal(t, card.ID, o.SelectedID())
}

func TestUpdateCardPersistenceFailureKeepsLocalEdit(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)
	cardDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mocked-error"))

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	err := o.UpdateCard(context.Background(), "c1", models.CardDetails{
		Title:               "Edited",
		TimeEstimateSeconds: 200,
	})
	assert.ErrorIs(t, err, outline.ErrPersistenceFailed)

	cards := o.Cards()
	assert.Equal(t, "Edited", cards[0].Details.Title)
	// ordinal and documentID are immutable regardless of the payload
	assert.Equal(t, 1, cards[0].Details.Ordinal)
	assert.Equal(t, "d1", cards[0].Details.DocumentID)
}

func TestUpdateCardValidation(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	err := o.UpdateCard(context.Background(), "c1", models.CardDetails{TimeEstimateSeconds: 0})
	assert.ErrorIs(t, err, outline.ErrValidation)
}

func TestUpdateUnknownCard(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	err := o.UpdateCard(context.Background(), "missing", models.CardDetails{TimeEstimateSeconds: 100})
	assert.ErrorIs(t, err, databases.ErrNotFound)
}

func TestDeleteCardRequiresConfirmation(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	err := o.DeleteCard(context.Background(), "c1", false)
	assert.ErrorIs(t, err, outline.ErrNotConfirmed)
	assert.Len(t, o.Cards(), 2)
}

func TestDeleteSelectedCardMovesSelection(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)
	cardDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))
	assert.Equal(t, "c1", o.SelectedID())

	assert.NoError(t, o.DeleteCard(context.Background(), "c1", true))
	assert.Equal(t, "c2", o.SelectedID())

	assert.NoError(t, o.DeleteCard(context.Background(), "c2", true))
	assert.Empty(t, o.SelectedID())
	assert.Empty(t, o.Cards())
}

func TestDeleteMissingCardCountsAsSuccess(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)
	cardDB.On("DeleteOne", mock.Anything, mock.Anything).Return(databases.ErrNotFound)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	assert.NoError(t, o.DeleteCard(context.Background(), "already-gone", true))
	assert.Len(t, o.Cards(), 2)
}

func TestSelectCardUnknownIDIsNoop(t *testing.T) {
	cardDB := cardStore(storedCards(), 3)

	o := outline.New("d1", cardDB, savedDocDB())
	assert.NoError(t, o.Load(context.Background()))

	o.SelectCard("c2")
	assert.Equal(t, "c2", o.SelectedID())

	o.SelectCard("missing")
	assert.Equal(t, "c2", o.SelectedID())
}
