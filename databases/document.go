package databases

// go generate: mockery --name DocumentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minbarhq/minbar-api/models"
)

const documentName = "documents"

// DocumentDatabase contains the methods to use with the document database
type DocumentDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Document, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Document, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.Document, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type documentDatabase struct {
	db DatabaseHelper
}

// NewDocumentDatabase initializes a new instance of document database with the provided db connection
func NewDocumentDatabase(db DatabaseHelper) DocumentDatabase {
	return &documentDatabase{
		db: db,
	}
}

func (d *documentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Document, error) {
	doc := &models.Document{}
	err := d.db.Collection(documentName).FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *documentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Document, error) {
	var docs []models.Document
	cr, err := d.db.Collection(documentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cr.Close(ctx)
	err = cr.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *documentDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := d.db.Collection(documentName).InsertOne(ctx, document, opts...)
	return res, err
}

// FindPage returns one page of matching documents, page numbers are 1-based
func (d *documentDatabase) FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.Document, error) {
	return d.Find(ctx, filter, newMongoPaginate(limit, page).getPaginatedOpts())
}

func (d *documentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	matched, err := d.db.Collection(documentName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *documentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return d.db.Collection(documentName).CountDocuments(ctx, filter, opts...)
}
