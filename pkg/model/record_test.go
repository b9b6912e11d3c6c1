package model_test

import (
	"testing"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestNewRecordID(t *testing.T) {
	id := model.NewRecordID("funding.csv", 1)
	gt.V(t, len(id)).Equal(8)

	// Same source and row always yields the same ID
	gt.Equal(t, id, model.NewRecordID("funding.csv", 1))

	// Different row or source yields a different ID
	gt.V(t, id).NotEqual(model.NewRecordID("funding.csv", 2))
	gt.V(t, id).NotEqual(model.NewRecordID("other.csv", 1))
}

func TestRecordValidate(t *testing.T) {
	valid := &model.Record{
		ID:     model.NewRecordID("funding.csv", 1),
		Source: "funding.csv",
		Fields: []model.Field{
			{Key: "company", Value: "Acme", Type: model.FieldTypeString},
			{Key: "amount", Value: "2000000", Type: model.FieldTypeNumber},
		},
	}
	gt.NoError(t, valid.Validate())

	t.Run("empty id", func(t *testing.T) {
		r := *valid
		r.ID = ""
		gt.Error(t, r.Validate())
	})

	t.Run("no fields", func(t *testing.T) {
		r := *valid
		r.Fields = nil
		gt.Error(t, r.Validate())
	})

	t.Run("invalid field type", func(t *testing.T) {
		r := *valid
		r.Fields = []model.Field{{Key: "company", Value: "Acme", Type: "blob"}}
		gt.Error(t, r.Validate())
	})

	t.Run("empty field value", func(t *testing.T) {
		r := *valid
		r.Fields = []model.Field{{Key: "company", Value: "", Type: model.FieldTypeString}}
		gt.Error(t, r.Validate())
	})
}

func TestRecordDocument(t *testing.T) {
	r := &model.Record{
		ID: "abcd1234",
		Fields: []model.Field{
			{Key: "company", Value: "Acme Robotics", Type: model.FieldTypeString},
			{Key: "amount", Value: "2000000", Type: model.FieldTypeNumber},
			{Key: "funding_round", Value: "Series A", Type: model.FieldTypeString},
		},
	}

	gt.Equal(t, r.Document(), "company: Acme Robotics | amount: 2000000 | funding_round: Series A")

	value, ok := r.Field("amount")
	gt.True(t, ok)
	gt.Equal(t, value, "2000000")

	_, ok = r.Field("ceo")
	gt.False(t, ok)
}

func TestRecordExcerpt(t *testing.T) {
	r := &model.Record{
		ID: "abcd1234",
		Fields: []model.Field{
			{Key: "company", Value: "Acme Robotics", Type: model.FieldTypeString},
		},
	}

	// Short documents pass through untouched
	gt.Equal(t, r.Excerpt(150), r.Document())

	// Long documents are cut with an ellipsis
	excerpt := r.Excerpt(10)
	gt.Equal(t, excerpt, "company: A...")

	// Non-positive length disables truncation
	gt.Equal(t, r.Excerpt(0), r.Document())
}

func TestResponseVerified(t *testing.T) {
	gt.True(t, (&model.Response{State: model.StateAnswered}).Verified())
	gt.False(t, (&model.Response{State: model.StatePartial}).Verified())
	gt.False(t, (&model.Response{State: model.StateRejected}).Verified())
}
