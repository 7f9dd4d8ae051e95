package databases

// go generate: mockery --name CardDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minbarhq/minbar-api/models"
)

const cardName = "cards"

// CardDatabase contains the methods to use with the card database
type CardDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Card, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Card, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	InsertMany(context.Context, []interface{}) error
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	DeleteMany(context.Context, interface{}) (int64, error)
	MaxOrdinal(ctx context.Context, documentID string) (int, error)
}

type cardDatabase struct {
	db DatabaseHelper
}

// NewCardDatabase initializes a new instance of card database with the provided db connection
func NewCardDatabase(db DatabaseHelper) CardDatabase {
	return &cardDatabase{
		db: db,
	}
}

func (c *cardDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Card, error) {
	card := &models.Card{}
	err := c.db.Collection(cardName).FindOne(ctx, filter, opts...).Decode(&card)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (c *cardDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Card, error) {
	var cards []models.Card
	cr, err := c.db.Collection(cardName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cr.Close(ctx)
	err = cr.All(ctx, &cards)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *cardDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(cardName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *cardDatabase) InsertMany(ctx context.Context, documents []interface{}) error {
	return c.db.Collection(cardName).InsertMany(ctx, documents)
}

func (c *cardDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	matched, err := c.db.Collection(cardName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *cardDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	deleted, err := c.db.Collection(cardName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *cardDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(cardName).DeleteMany(ctx, filter)
}

// MaxOrdinal returns the highest ordinal ever assigned to a card of the
// given document, or 0 when the document has no cards.
func (c *cardDatabase) MaxOrdinal(ctx context.Context, documentID string) (int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"card.documentID": documentID}},
		{"$group": bson.M{"_id": nil, "max": bson.M{"$max": "$card.ordinal"}}},
	}
	cr, err := c.db.Collection(cardName).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cr.Close(ctx)

	var results []struct {
		Max int `bson:"max"`
	}
	if err := cr.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Max, nil
}
