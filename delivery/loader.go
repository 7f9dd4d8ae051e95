package delivery

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/models"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// Loader resolves which document's cards enter a live session.
type Loader struct {
	DocDB  databases.DocumentDatabase
	CardDB databases.CardDatabase
}

// SearchDocuments lists the owner's documents whose title matches the
// query as a case-insensitive substring, capped at limit.
func (l *Loader) SearchDocuments(ctx context.Context, ownerID, query string, limit int64) ([]models.Document, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	filter := bson.M{"document.ownerID": ownerID}
	if query != "" {
		// substring match, not a user-supplied pattern
		filter["document.title"] = bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	}

	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "document.updatedAt", Value: -1}})
	docs, err := l.DocDB.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// LoadCards fetches the document's outline ordered by ordinal ascending.
// A document with zero cards gets the fixed fallback skeleton so the live
// view is never a dead end; that substitution is deliberate, not an error.
func (l *Loader) LoadCards(ctx context.Context, documentID string) ([]models.CardDetails, error) {
	opts := options.Find().SetSort(bson.D{{Key: "card.ordinal", Value: 1}})
	cards, err := l.CardDB.Find(ctx, bson.M{"card.documentID": documentID}, opts)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		zap.S().Infow("document has no cards, using fallback outline", "documentID", documentID)
		return FallbackOutline(documentID), nil
	}

	details := make([]models.CardDetails, len(cards))
	for i, c := range cards {
		details[i] = c.Details
	}
	return details, nil
}

// FallbackOutline is the generic three-card skeleton substituted for an
// empty outline. Never persisted.
func FallbackOutline(documentID string) []models.CardDetails {
	return []models.CardDetails{
		{
			DocumentID:          documentID,
			Ordinal:             1,
			SectionLabel:        models.SectionIntro,
			Title:               "Opening",
			BulletPoints:        []string{"Praise and salutations", "Introduce the topic"},
			TimeEstimateSeconds: 120,
		},
		{
			DocumentID:          documentID,
			Ordinal:             2,
			SectionLabel:        models.SectionMain,
			Title:               "Main message",
			BulletPoints:        []string{"Walk through the khutbah body", "Pause on key reminders"},
			TimeEstimateSeconds: 600,
		},
		{
			DocumentID:          documentID,
			Ordinal:             3,
			SectionLabel:        models.SectionClosing,
			Title:               "Closing",
			BulletPoints:        []string{"Summarize", "Closing dua"},
			TimeEstimateSeconds: 120,
		},
	}
}
