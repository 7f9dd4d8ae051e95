package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/api"
	"github.com/minbarhq/minbar-api/config"
	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/editor"
	"github.com/minbarhq/minbar-api/models"
)

// Document exported for testing purposes
type Document struct {
	DB      databases.DocumentDatabase
	Editors *editor.Manager
}

// CreateDocumentHandler creates a new document. Cards can only be attached
// once this has happened; until then the outline refuses card creation.
func (d Document) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var details models.DocumentDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	id := primitive.NewObjectID().Hex()
	details.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	details.UpdatedAt = details.CreatedAt

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := d.DB.InsertOne(ctx, bson.M{
		"_id":      id,
		"document": details,
		"__v":      0,
	})
	if err != nil {
		config.ErrorStatus("failed to create document", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Document created successfully",
		"id":      id,
	})
}

// DocumentByIDHandler returns a document by ID
func (d Document) DocumentByIDHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]

	zap.S().Debugf("document_id: %v", docID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := d.DB.FindOne(ctx, bson.M{"_id": docID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateDocumentHandler updates a document's details. Any open editing
// session for the document is discarded so the next editor open reparses
// the stored body.
func (d Document) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := d.DB.FindOne(ctx, bson.M{"_id": docID})
	if err != nil {
		config.ErrorStatus("failed to find document", http.StatusNotFound, w, err)
		return
	}

	existingDetailsMap := make(map[string]interface{})
	data, _ := json.Marshal(existing.Details)
	json.Unmarshal(data, &existingDetailsMap)

	var updateData map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	for key, value := range updateData {
		existingDetailsMap[key] = value
	}
	existingDetailsMap["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	updatedDetails := models.DocumentDetails{}
	data, _ = json.Marshal(existingDetailsMap)
	json.Unmarshal(data, &updatedDetails)

	err = d.DB.UpdateOne(ctx, bson.M{"_id": docID}, bson.M{"$set": bson.M{"document": updatedDetails}})
	if err != nil {
		config.ErrorStatus("failed to update document", http.StatusInternalServerError, w, err)
		return
	}

	if d.Editors != nil {
		d.Editors.Close(docID)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Document updated successfully",
	})
}

// DocumentsSearchHandler lists an owner's documents, optionally filtered by
// a case-insensitive title substring, paginated
func (d Document) DocumentsSearchHandler(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	query := r.URL.Query().Get("q")
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || Limit <= 0 {
		Limit = 10 // Default limit
	}
	Page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || Page <= 0 {
		Page = 1
	}

	filter := bson.M{"document.ownerID": ownerID}
	if query != "" {
		// substring match, not a user-supplied pattern
		filter["document.title"] = bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := d.DB.FindPage(ctx, filter, Limit, Page)
	if err != nil {
		config.ErrorStatus("failed to search documents", http.StatusNotFound, w, err)
		return
	}

	total, err := d.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count documents", http.StatusInternalServerError, w, err)
		return
	}

	// Ensure the response is always an array
	if len(dbResp) == 0 {
		dbResp = []models.Document{}
	}

	response := map[string]interface{}{
		"limit":     Limit,
		"documents": dbResp,
		"page":      Page,
		"total":     total,
	}

	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
