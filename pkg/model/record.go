package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type RecordID string

// NewRecordID derives a stable RecordID from the dataset name and row
// position, so re-ingesting the same dataset yields the same IDs.
func NewRecordID(source string, row int) RecordID {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", source, row)))
	return RecordID(hex.EncodeToString(sum[:])[:8])
}

type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
)

type Field struct {
	Key   string    `json:"key" firestore:"key"`
	Value string    `json:"value" firestore:"value"`
	Type  FieldType `json:"type" firestore:"type"`
}

// Validate checks if the field is valid
func (f *Field) Validate() error {
	if f.Key == "" {
		return goerr.New("field key is empty")
	}
	if f.Value == "" {
		return goerr.New("field value is empty", goerr.V("key", f.Key))
	}
	switch f.Type {
	case FieldTypeString, FieldTypeNumber, FieldTypeDate:
		return nil
	default:
		return goerr.New("invalid field type", goerr.V("key", f.Key), goerr.V("type", f.Type))
	}
}

// Record is one immutable row of the source dataset. Fields keep the
// dataset's column order. Embedding is attached once at index build and
// bound to the embedding model that produced it.
type Record struct {
	ID     RecordID `json:"id" firestore:"id"`
	Source string   `json:"source" firestore:"source"`
	Fields []Field  `json:"fields" firestore:"fields"`

	Embedding      []float32 `json:"-" firestore:"embedding,omitempty"`
	EmbeddingModel string    `json:"-" firestore:"embedding_model,omitempty"`
}

// Validate checks if the record is valid
func (r *Record) Validate() error {
	if r.ID == "" {
		return goerr.New("record id is empty")
	}
	if len(r.Fields) == 0 {
		return goerr.New("record has no fields", goerr.V("record_id", r.ID))
	}
	for _, f := range r.Fields {
		if err := f.Validate(); err != nil {
			return goerr.Wrap(err, "invalid field", goerr.V("record_id", r.ID))
		}
	}
	return nil
}

// Field returns the value of the named field and whether it exists.
func (r *Record) Field(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Document renders the record as field-labeled text. This is both the
// embeddable text used at index build and the evidence text enumerated
// in the generation prompt.
func (r *Record) Document() string {
	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		parts = append(parts, f.Key+": "+f.Value)
	}
	return strings.Join(parts, " | ")
}

// Excerpt returns a display-sized prefix of the record document for the
// sources list in responses.
func (r *Record) Excerpt(maxLen int) string {
	doc := r.Document()
	if maxLen <= 0 || len(doc) <= maxLen {
		return doc
	}
	return doc[:maxLen] + "..."
}
