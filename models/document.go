package models

// Document holds the structure for the document collection in mongo.
// A document is one authored khutbah: a title plus an opaque rich-content body.
type Document struct {
	ID      string          `json:"_id" bson:"_id"`
	Details DocumentDetails `json:"document" bson:"document"`
	Version int32           `json:"__v" bson:"__v"`
}

// DocumentDetails holds the structure for the inner document structure as
// defined in the document collection in mongo
type DocumentDetails struct {
	Title            string      `json:"title" bson:"title"`
	Body             string      `json:"body" bson:"body"`
	OwnerID          string      `json:"ownerID" bson:"ownerID"`
	SourceDocumentID string      `json:"sourceDocumentID" bson:"sourceDocumentID"`
	CreatedAt        interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt        interface{} `json:"updatedAt" bson:"updatedAt"`
}
