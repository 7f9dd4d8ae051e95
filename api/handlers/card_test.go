package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/minbarhq/minbar-api/content"
	"github.com/minbarhq/minbar-api/databases/mocks"
	"github.com/minbarhq/minbar-api/models"
	"github.com/minbarhq/minbar-api/outline"
)

type stubTransformer struct {
	cards []models.CardDetails
	err   error
}

func (s stubTransformer) TextToCards(ctx context.Context, bodyText string) ([]models.CardDetails, error) {
	return s.cards, s.err
}

var _ content.Transformer = stubTransformer{}

func TestCreateCardHandlerUnsavedDocument(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Card{}, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(0, nil)
	docDB := &mocks.DocumentDatabase{}
	docDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	c := Card{DB: cardDB, DocDB: docDB, Outlines: outline.NewManager(cardDB, docDB)}

	req, _ := http.NewRequest("POST", "/api/v1/document/d1/cards", nil)
	req = mux.SetURLVars(req, map[string]string{"document_id": "d1"})
	rr := httptest.NewRecorder()

	c.CreateCardHandler(rr, req)

	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	assert.Contains(t, rr.Body.String(), "document must be saved before adding cards")
}

func TestCreateCardHandler(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Card{}, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(0, nil)
	cardDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	docDB := &mocks.DocumentDatabase{}
	docDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	c := Card{DB: cardDB, DocDB: docDB, Outlines: outline.NewManager(cardDB, docDB)}

	req, _ := http.NewRequest("POST", "/api/v1/document/d1/cards", nil)
	req = mux.SetURLVars(req, map[string]string{"document_id": "d1"})
	rr := httptest.NewRecorder()

	c.CreateCardHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ordinal":1`)
}

func TestDeleteCardHandlerNotConfirmed(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Card{}, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(0, nil)
	docDB := &mocks.DocumentDatabase{}

	c := Card{DB: cardDB, DocDB: docDB, Outlines: outline.NewManager(cardDB, docDB)}

	req, _ := http.NewRequest("DELETE", "/api/v1/card/c1?documentId=d1", nil)
	req = mux.SetURLVars(req, map[string]string{"card_id": "c1"})
	rr := httptest.NewRecorder()

	c.DeleteCardHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "delete requires confirmation")
}

func TestDeleteCardHandlerMissingDocumentID(t *testing.T) {
	c := Card{}

	req, _ := http.NewRequest("DELETE", "/api/v1/card/c1?confirmed=true", nil)
	req = mux.SetURLVars(req, map[string]string{"card_id": "c1"})
	rr := httptest.NewRecorder()

	c.DeleteCardHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateCardHandlerBadBody(t *testing.T) {
	c := Card{}

	req, _ := http.NewRequest("PUT", "/api/v1/card/c1", bytes.NewBufferString("{not json"))
	req = mux.SetURLVars(req, map[string]string{"card_id": "c1"})
	rr := httptest.NewRecorder()

	c.UpdateCardHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateCardsHandler(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(2), nil)
	cardDB.On("InsertMany", mock.Anything, mock.Anything).Return(nil)
	docDB := &mocks.DocumentDatabase{}
	docDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Document{
		ID:      "d1",
		Details: models.DocumentDetails{Body: "khutbah body text"},
	}, nil)

	c := Card{
		DB:       cardDB,
		DocDB:    docDB,
		Outlines: outline.NewManager(cardDB, docDB),
		Transformer: stubTransformer{cards: []models.CardDetails{
			{SectionLabel: models.SectionIntro, Title: "Opening", TimeEstimateSeconds: 120},
			{SectionLabel: models.SectionMain, Title: "Body", TimeEstimateSeconds: 400},
		}},
	}

	req, _ := http.NewRequest("POST", "/api/v1/document/d1/cards/generate", nil)
	req = mux.SetURLVars(req, map[string]string{"document_id": "d1"})
	rr := httptest.NewRecorder()

	c.GenerateCardsHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ordinal":1`)
	assert.Contains(t, rr.Body.String(), `"ordinal":2`)
	cardDB.AssertCalled(t, "DeleteMany", mock.Anything, mock.Anything)
	cardDB.AssertCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestGenerateCardsHandlerNoCards(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	docDB := &mocks.DocumentDatabase{}
	docDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Document{ID: "d1"}, nil)

	c := Card{
		DB:          cardDB,
		DocDB:       docDB,
		Outlines:    outline.NewManager(cardDB, docDB),
		Transformer: stubTransformer{},
	}

	req, _ := http.NewRequest("POST", "/api/v1/document/d1/cards/generate", nil)
	req = mux.SetURLVars(req, map[string]string{"document_id": "d1"})
	rr := httptest.NewRecorder()

	c.GenerateCardsHandler(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
