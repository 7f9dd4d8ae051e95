package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minbarhq/minbar-api/api"
	"github.com/minbarhq/minbar-api/config"
	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/editor"
	"github.com/minbarhq/minbar-api/models"
)

// Editor exported for testing purposes
type Editor struct {
	DocDB    databases.DocumentDatabase
	Sessions *editor.Manager
}

// session resolves the editing session for the request's document, opening
// one over the stored body on first touch.
func (e Editor) session(w http.ResponseWriter, r *http.Request) (*editor.Session, string, bool) {
	docID := mux.Vars(r)["document_id"]

	if s := e.Sessions.Get(docID); s != nil {
		return s, docID, true
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := e.DocDB.FindOne(ctx, bson.M{"_id": docID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return nil, "", false
	}
	s, err := e.Sessions.GetOrCreate(docID, doc.Details.Body)
	if err != nil {
		config.ErrorStatus("failed to open editing session", http.StatusInternalServerError, w, err)
		return nil, "", false
	}
	return s, docID, true
}

// CaptureSelectionHandler snapshots the caller's text selection as the
// insertion point for the next block
func (e Editor) CaptureSelectionHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}

	var rng editor.Range
	if err := json.NewDecoder(r.Body).Decode(&rng); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := s.CaptureSelection(rng); err != nil {
		config.ErrorStatus("selection range is not inside the body", http.StatusBadRequest, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Selection captured",
	})
}

// OpenPickerHandler opens the reference browser for a category
func (e Editor) OpenPickerHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	s.OpenPicker(body.Category)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Picker opened",
	})
}

// ClosePickerHandler dismisses the reference browser without inserting
func (e Editor) ClosePickerHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}
	s.ClosePicker()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Picker closed",
	})
}

// InsertBlockHandler splices a block built from the chosen snippet at the
// captured insertion point
func (e Editor) InsertBlockHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}

	var body struct {
		BlockType string         `json:"blockType"`
		Snippet   models.Snippet `json:"snippet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	marker, err := s.InsertBlock(body.BlockType, body.Snippet)
	if errors.Is(err, editor.ErrNoInsertionPoint) {
		config.ErrorStatus("no insertion point captured", http.StatusConflict, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to insert block", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(marker)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// SelectBlockHandler records the clicked block and returns the toolbar
// anchor computed from its reported bounding box
func (e Editor) SelectBlockHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}
	blockID := mux.Vars(r)["block_id"]

	var rect editor.Rect
	if err := json.NewDecoder(r.Body).Decode(&rect); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	pos, err := s.SelectBlock(blockID, rect)
	if errors.Is(err, editor.ErrUnknownBlock) {
		config.ErrorStatus("block not found in body", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to select block", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"toolbar": pos,
	})
}

// ClearBlockSelectionHandler closes the contextual toolbar
func (e Editor) ClearBlockSelectionHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}
	s.ClearBlockSelection()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Selection cleared",
	})
}

// MoveBlockHandler swaps the selected block with its neighbor. At a
// boundary moved=false comes back and nothing changed.
func (e Editor) MoveBlockHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Direction string      `json:"direction"`
		Rect      editor.Rect `json:"rect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	moved, pos, err := s.MoveBlock(body.Direction, body.Rect)
	switch {
	case errors.Is(err, editor.ErrNoBlockSelected):
		config.ErrorStatus("no block selected", http.StatusConflict, w, err)
		return
	case errors.Is(err, editor.ErrUnknownBlock):
		config.ErrorStatus("block not found in body", http.StatusNotFound, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to move block", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"moved":   moved,
		"toolbar": pos,
	})
}

// DeleteBlockHandler removes the selected block, confirmed=true required
func (e Editor) DeleteBlockHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}
	confirmed := r.URL.Query().Get("confirmed") == "true"

	err := s.DeleteBlock(confirmed)
	switch {
	case errors.Is(err, editor.ErrDeleteNotConfirmed):
		config.ErrorStatus("block delete requires confirmation", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, editor.ErrNoBlockSelected):
		config.ErrorStatus("no block selected", http.StatusConflict, w, err)
		return
	case errors.Is(err, editor.ErrUnknownBlock):
		config.ErrorStatus("block not found in body", http.StatusNotFound, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to delete block", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Block deleted successfully",
	})
}

// BodyHandler returns the session's current segment sequence and whether
// there are unsaved changes
func (e Editor) BodyHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := e.session(w, r)
	if !ok {
		return
	}

	segments := s.Segments()
	if segments == nil {
		segments = []models.Segment{}
	}
	pickerOpen, category := s.PickerOpen()

	b, err := json.Marshal(map[string]interface{}{
		"segments":        segments,
		"dirty":           s.Dirty(),
		"pickerOpen":      pickerOpen,
		"pickerCategory":  category,
		"selectedBlockID": s.SelectedBlockID(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SaveBodyHandler persists the session's body into the document record and
// clears the unsaved flag
func (e Editor) SaveBodyHandler(w http.ResponseWriter, r *http.Request) {
	s, docID, ok := e.session(w, r)
	if !ok {
		return
	}

	blob, err := s.SerializedBody()
	if err != nil {
		config.ErrorStatus("failed to serialize body", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = e.DocDB.UpdateOne(ctx, bson.M{"_id": docID}, bson.M{"$set": bson.M{
		"document.body":      blob,
		"document.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to save document body", http.StatusInternalServerError, w, err)
		return
	}
	s.MarkSaved()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Document saved successfully",
	})
}

// CloseSessionHandler discards the editing session without saving
func (e Editor) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]
	e.Sessions.Close(docID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Editing session closed",
	})
}
