package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/api"
	"github.com/minbarhq/minbar-api/config"
	"github.com/minbarhq/minbar-api/content"
	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/models"
	"github.com/minbarhq/minbar-api/outline"
)

// Card exported for testing purposes
type Card struct {
	DB          databases.CardDatabase
	DocDB       databases.DocumentDatabase
	Outlines    *outline.Manager
	Transformer content.Transformer
}

// CardsByDocumentIDHandler returns the document's outline in array order
// plus the active selection
func (c Card) CardsByDocumentIDHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]

	o, err := c.Outlines.GetOrCreate(r.Context(), docID)
	if err != nil {
		config.ErrorStatus("failed to load cards", http.StatusInternalServerError, w, err)
		return
	}

	cards := o.Cards()
	if len(cards) == 0 {
		cards = []models.Card{}
	}
	b, err := json.Marshal(map[string]interface{}{
		"cards":          cards,
		"selectedCardID": o.SelectedID(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateCardHandler appends a default card to the document's outline and
// selects it. Fails with 412 when the document itself was never saved.
func (c Card) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]

	o, err := c.Outlines.GetOrCreate(r.Context(), docID)
	if err != nil {
		config.ErrorStatus("failed to load outline", http.StatusInternalServerError, w, err)
		return
	}

	card, err := o.AddCard(r.Context())
	if errors.Is(err, outline.ErrDocumentNotSaved) {
		config.ErrorStatus("document must be saved before adding cards", http.StatusPreconditionFailed, w, err)
		return
	}
	if err != nil {
		// the card exists locally but the store write failed; surface the
		// failure, the client keeps what it sees
		config.ErrorStatus("failed to persist card", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(card)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// SelectCardHandler makes the card the active selection in its outline
func (c Card) SelectCardHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]
	cardID := mux.Vars(r)["card_id"]

	o, err := c.Outlines.GetOrCreate(r.Context(), docID)
	if err != nil {
		config.ErrorStatus("failed to load outline", http.StatusInternalServerError, w, err)
		return
	}
	o.SelectCard(cardID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"selectedCardID": o.SelectedID(),
	})
}

// UpdateCardHandler replaces a card's editable fields. The request body is
// the full CardDetails; documentID in the body names the owning outline.
func (c Card) UpdateCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := mux.Vars(r)["card_id"]

	var details models.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if details.DocumentID == "" {
		config.ErrorStatus("documentID is required", http.StatusBadRequest, w, nil)
		return
	}

	o, err := c.Outlines.GetOrCreate(r.Context(), details.DocumentID)
	if err != nil {
		config.ErrorStatus("failed to load outline", http.StatusInternalServerError, w, err)
		return
	}

	err = o.UpdateCard(r.Context(), cardID, details)
	switch {
	case errors.Is(err, outline.ErrValidation):
		config.ErrorStatus("invalid card fields", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, databases.ErrNotFound):
		config.ErrorStatus("card not found", http.StatusNotFound, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to persist card", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Card updated successfully",
	})
}

// DeleteCardHandler removes a card. Requires confirmed=true; deleting a
// card that is already gone still succeeds.
func (c Card) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := mux.Vars(r)["card_id"]
	docID := r.URL.Query().Get("documentId")
	confirmed := r.URL.Query().Get("confirmed") == "true"

	if docID == "" {
		config.ErrorStatus("documentId is required", http.StatusBadRequest, w, nil)
		return
	}

	o, err := c.Outlines.GetOrCreate(r.Context(), docID)
	if err != nil {
		config.ErrorStatus("failed to load outline", http.StatusInternalServerError, w, err)
		return
	}

	err = o.DeleteCard(r.Context(), cardID, confirmed)
	switch {
	case errors.Is(err, outline.ErrNotConfirmed):
		config.ErrorStatus("delete requires confirmation", http.StatusBadRequest, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to delete card", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":        "Card deleted successfully",
		"selectedCardID": o.SelectedID(),
	})
}

// GenerateCardsHandler replaces the document's outline with cards derived
// from its body text by the transformer service. Ordinals restart at 1.
func (c Card) GenerateCardsHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := c.DocDB.FindOne(ctx, bson.M{"_id": docID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return
	}

	generated, err := c.Transformer.TextToCards(r.Context(), doc.Details.Body)
	if err != nil {
		config.ErrorStatus("failed to generate cards", http.StatusBadGateway, w, err)
		return
	}
	if len(generated) == 0 {
		config.ErrorStatus("transformer returned no cards", http.StatusUnprocessableEntity, w, nil)
		return
	}

	removed, err := c.DB.DeleteMany(ctx, bson.M{"card.documentID": docID})
	if err != nil {
		config.ErrorStatus("failed to clear existing cards", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("replacing outline with generated cards",
		"documentID", docID,
		"removed", removed,
		"generated", len(generated),
	)

	now := primitive.NewDateTimeFromTime(time.Now())
	docs := make([]interface{}, len(generated))
	cards := make([]models.Card, len(generated))
	for i, details := range generated {
		details.DocumentID = docID
		details.Ordinal = i + 1
		details.CreatedAt = now
		details.UpdatedAt = now
		card := models.Card{
			ID:      primitive.NewObjectID().Hex(),
			Details: details,
		}
		cards[i] = card
		docs[i] = bson.M{"_id": card.ID, "card": card.Details, "__v": 0}
	}
	if err := c.DB.InsertMany(ctx, docs); err != nil {
		config.ErrorStatus("failed to insert generated cards", http.StatusInternalServerError, w, err)
		return
	}

	// drop the cached outline so the next read picks up the new cards
	c.Outlines.Close(docID)

	b, err := json.Marshal(map[string]interface{}{
		"cards": cards,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
