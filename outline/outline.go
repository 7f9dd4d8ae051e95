package outline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/models"
)

var (
	// ErrDocumentNotSaved is returned when a card operation targets a
	// document that has never been persisted. The caller must save the
	// document first.
	ErrDocumentNotSaved = errors.New("document has not been saved")

	// ErrPersistenceFailed is returned when the store call failed after the
	// local collection was already updated. Local and remote may diverge
	// until the next full load; the caller is expected to surface it.
	ErrPersistenceFailed = errors.New("failed to persist card")

	// ErrNotConfirmed is returned when a destructive operation arrives
	// without the explicit confirmation flag.
	ErrNotConfirmed = errors.New("delete requires confirmation")

	// ErrValidation is returned for malformed card fields.
	ErrValidation = errors.New("invalid card fields")
)

// Outline maintains the ordered card collection for one open document and
// mediates add/update/delete against the card store. Ordinals are assigned
// max+1 and never reused, so gaps appear after deletes.
type Outline struct {
	mu         sync.Mutex
	documentID string
	db         databases.CardDatabase
	docDB      databases.DocumentDatabase
	cards      []models.Card
	selectedID string
	maxOrdinal int
	lastActive time.Time
}

// New creates an outline for the given document id.
func New(documentID string, db databases.CardDatabase, docDB databases.DocumentDatabase) *Outline {
	return &Outline{
		documentID: documentID,
		db:         db,
		docDB:      docDB,
		lastActive: time.Now(),
	}
}

// Load replaces the local collection with the stored cards, ordered by
// ordinal ascending. Selection is reset to the first card, if any. The
// ordinal high-water mark comes from the store's max-ordinal aggregation.
func (o *Outline) Load(ctx context.Context) error {
	opts := options.Find().SetSort(bson.D{{Key: "card.ordinal", Value: 1}})
	cards, err := o.db.Find(ctx, bson.M{"card.documentID": o.documentID}, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	maxOrdinal, err := o.db.MaxOrdinal(ctx, o.documentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastActive = time.Now()
	o.cards = cards
	o.selectedID = ""
	o.maxOrdinal = maxOrdinal
	if len(cards) > 0 {
		o.selectedID = cards[0].ID
	}
	return nil
}

// AddCard creates a card with the default template at the next ordinal and
// makes it the active selection. The local collection is updated before the
// store round-trip, so a SelectCard right after an AddCard always observes
// the new card.
func (o *Outline) AddCard(ctx context.Context) (*models.Card, error) {
	count, err := o.docDB.CountDocuments(ctx, bson.M{"_id": o.documentID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if count == 0 {
		return nil, ErrDocumentNotSaved
	}

	o.mu.Lock()
	o.lastActive = time.Now()
	o.maxOrdinal++
	card := models.Card{
		ID: primitive.NewObjectID().Hex(),
		Details: models.CardDetails{
			DocumentID:          o.documentID,
			Ordinal:             o.maxOrdinal,
			SectionLabel:        models.SectionMain,
			Title:               "",
			BulletPoints:        []string{"New talking point"},
			TimeEstimateSeconds: models.DefaultTimeEstimateSeconds,
			CreatedAt:           primitive.NewDateTimeFromTime(time.Now()),
			UpdatedAt:           primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	o.cards = append(o.cards, card)
	o.selectedID = card.ID
	o.mu.Unlock()

	newCard := bson.M{
		"_id":  card.ID,
		"card": card.Details,
		"__v":  0,
	}
	if _, err := o.db.InsertOne(ctx, newCard); err != nil {
		zap.S().Errorw("card insert failed after local add", "cardID", card.ID, "error", err)
		return &card, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return &card, nil
}

// UpdateCard replaces the editable fields of the card locally and persists
// the full record. The local apply happens first; on store failure the
// local state is kept and ErrPersistenceFailed is reported (no rollback,
// reconciliation happens on the next Load).
func (o *Outline) UpdateCard(ctx context.Context, cardID string, details models.CardDetails) error {
	if err := Validate(details); err != nil {
		return err
	}

	o.mu.Lock()
	o.lastActive = time.Now()
	idx := o.indexOf(cardID)
	if idx < 0 {
		o.mu.Unlock()
		return databases.ErrNotFound
	}
	// documentID and ordinal are immutable, whatever the caller sent
	details.DocumentID = o.cards[idx].Details.DocumentID
	details.Ordinal = o.cards[idx].Details.Ordinal
	details.CreatedAt = o.cards[idx].Details.CreatedAt
	details.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	o.cards[idx].Details = details
	o.mu.Unlock()

	update := bson.M{"$set": bson.M{"card": details}}
	if err := o.db.UpdateOne(ctx, bson.M{"_id": cardID}, update); err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// DeleteCard removes the card from store and collection. A delete of a card
// that is already gone counts as success. Deleting the active selection
// moves the selection to the first remaining card, or clears it.
func (o *Outline) DeleteCard(ctx context.Context, cardID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := o.db.DeleteOne(ctx, bson.M{"_id": cardID}); err != nil && !errors.Is(err, databases.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastActive = time.Now()
	idx := o.indexOf(cardID)
	if idx < 0 {
		return nil
	}
	o.cards = append(o.cards[:idx], o.cards[idx+1:]...)
	if o.selectedID == cardID {
		o.selectedID = ""
		if len(o.cards) > 0 {
			o.selectedID = o.cards[0].ID
		}
	}
	return nil
}

// SelectCard sets the active selection. Unknown ids are a silent no-op.
func (o *Outline) SelectCard(cardID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastActive = time.Now()
	if o.indexOf(cardID) >= 0 {
		o.selectedID = cardID
	}
}

// Cards returns a copy of the current collection in array order.
func (o *Outline) Cards() []models.Card {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Card, len(o.cards))
	copy(out, o.cards)
	return out
}

// SelectedID returns the id of the active selection, or "" when none.
func (o *Outline) SelectedID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selectedID
}

// DocumentID returns the owning document id.
func (o *Outline) DocumentID() string {
	return o.documentID
}

func (o *Outline) indexOf(cardID string) int {
	for i, c := range o.cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// Validate checks card fields for a create or update.
func Validate(d models.CardDetails) error {
	if d.TimeEstimateSeconds <= 0 {
		return fmt.Errorf("%w: timeEstimateSeconds must be positive", ErrValidation)
	}
	for _, b := range d.BulletPoints {
		if len(b) > 2000 {
			return fmt.Errorf("%w: bullet point too long", ErrValidation)
		}
	}
	return nil
}

// LastActive returns the time of the last operation on this outline.
func (o *Outline) LastActive() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastActive
}
