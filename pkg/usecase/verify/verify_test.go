package verify_test

import (
	"testing"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/usecase/verify"
	"github.com/m-mizutani/gt"
)

func evidenceRecord(id model.RecordID, fields map[string]string, order []string) *model.Record {
	r := &model.Record{ID: id, Source: "funding.csv"}
	for _, key := range order {
		r.Fields = append(r.Fields, model.Field{Key: key, Value: fields[key], Type: model.FieldTypeString})
	}
	return r
}

func acmeRecord() *model.Record {
	return evidenceRecord("aaaa0001", map[string]string{
		"company":       "Acme Robotics",
		"amount":        "2,000,000",
		"funding_round": "Series A",
		"investor":      "Northgate Capital",
	}, []string{"company", "amount", "funding_round", "investor"})
}

func boltRecord() *model.Record {
	return evidenceRecord("bbbb0002", map[string]string{
		"company":  "Bolt Logistics",
		"amount":   "5,500,000",
		"investor": "Harbor Ventures",
	}, []string{"company", "amount", "investor"})
}

func TestGate(t *testing.T) {
	v := verify.New(verify.DefaultConfig())

	t.Run("no candidates", func(t *testing.T) {
		verdict := v.Gate(nil)
		gt.False(t, verdict.Passed)
		gt.Equal(t, verdict.Reason, model.GateReasonNoEvidence)
	})

	t.Run("top score below threshold", func(t *testing.T) {
		verdict := v.Gate([]*model.RetrievalCandidate{
			{ID: "aaaa0001", Score: 0.4},
		})
		gt.False(t, verdict.Passed)
		gt.Equal(t, verdict.Reason, model.GateReasonLowConfidence)
		gt.Equal(t, verdict.TopScore, 0.4)
	})

	t.Run("top score at threshold", func(t *testing.T) {
		verdict := v.Gate([]*model.RetrievalCandidate{
			{ID: "aaaa0001", Score: 0.5},
			{ID: "bbbb0002", Score: 0.1},
		})
		gt.True(t, verdict.Passed)
		gt.Equal(t, verdict.TopScore, 0.5)
	})
}

func TestGroundSupportedClaim(t *testing.T) {
	v := verify.New(verify.DefaultConfig())
	evidence := []*model.Record{acmeRecord(), boltRecord()}

	claims := v.Ground("Acme Robotics raised 2,000,000 in their Series A round.", evidence)
	gt.A(t, claims).Length(1)
	gt.True(t, claims[0].Supported)
	gt.A(t, claims[0].Citations).Length(1)
	gt.Equal(t, claims[0].Citations[0], model.RecordID("aaaa0001"))
}

func TestGroundNumericMismatch(t *testing.T) {
	v := verify.New(verify.DefaultConfig())
	evidence := []*model.Record{acmeRecord()}

	// One fabricated amount sinks the claim regardless of term overlap
	claims := v.Ground("Acme Robotics raised 3,000,000 in their Series A round.", evidence)
	gt.A(t, claims).Length(1)
	gt.False(t, claims[0].Supported)
	gt.A(t, claims[0].Citations).Length(0)
}

func TestGroundDigitNormalization(t *testing.T) {
	v := verify.New(verify.DefaultConfig())
	evidence := []*model.Record{acmeRecord()}

	// "2000000" in the answer matches "2,000,000" in the evidence
	claims := v.Ground("Acme Robotics raised 2000000 in their Series A round.", evidence)
	gt.A(t, claims).Length(1)
	gt.True(t, claims[0].Supported)
}

func TestGroundLowTermCoverage(t *testing.T) {
	v := verify.New(verify.DefaultConfig())
	evidence := []*model.Record{acmeRecord()}

	// No number, and almost none of the key terms appear in evidence
	claims := v.Ground("Quantum computing adoption accelerated across European manufacturing sectors.", evidence)
	gt.A(t, claims).Length(1)
	gt.False(t, claims[0].Supported)
}

func TestGroundMultipleClaims(t *testing.T) {
	v := verify.New(verify.DefaultConfig())
	evidence := []*model.Record{acmeRecord(), boltRecord()}

	answer := "Acme Robotics raised 2,000,000 from Northgate Capital. " +
		"Bolt Logistics raised 5,500,000 from Harbor Ventures."
	claims := v.Ground(answer, evidence)
	gt.A(t, claims).Length(2)
	gt.True(t, claims[0].Supported)
	gt.True(t, claims[1].Supported)
	gt.Equal(t, claims[0].Citations[0], model.RecordID("aaaa0001"))
	gt.Equal(t, claims[1].Citations[0], model.RecordID("bbbb0002"))
}

func TestBind(t *testing.T) {
	v := verify.New(verify.DefaultConfig())

	t.Run("grounded answer", func(t *testing.T) {
		verdict := v.Bind([]model.Claim{
			{Text: "Acme raised money.", Supported: true, Citations: []model.RecordID{"aaaa0001"}},
			{Text: "Bolt raised money.", Supported: true, Citations: []model.RecordID{"bbbb0002", "aaaa0001"}},
		})
		gt.True(t, verdict.Grounded)
		gt.A(t, verdict.UnsupportedClaims).Length(0)
		// Union in first-appearance order, deduplicated
		gt.Equal(t, verdict.Citations, []model.RecordID{"aaaa0001", "bbbb0002"})
	})

	t.Run("unsupported claim blocks grounding", func(t *testing.T) {
		verdict := v.Bind([]model.Claim{
			{Text: "Acme raised money.", Supported: true, Citations: []model.RecordID{"aaaa0001"}},
			{Text: "Acme will IPO next year.", Supported: false},
		})
		gt.False(t, verdict.Grounded)
		gt.A(t, verdict.UnsupportedClaims).Length(1)
	})

	t.Run("no citations blocks grounding", func(t *testing.T) {
		verdict := v.Bind([]model.Claim{
			{Text: "Something vaguely true.", Supported: true},
		})
		gt.False(t, verdict.Grounded)
	})

	t.Run("empty claim set is not grounded", func(t *testing.T) {
		verdict := v.Bind(nil)
		gt.False(t, verdict.Grounded)
	})
}

func TestStrip(t *testing.T) {
	claims := []model.Claim{
		{Text: "Acme Robotics raised 2,000,000.", Supported: true},
		{Text: "Acme will IPO next year.", Supported: false},
		{Text: "The round was led by Northgate Capital.", Supported: true},
	}

	gt.Equal(t, verify.Strip(claims),
		"Acme Robotics raised 2,000,000. The round was led by Northgate Capital.")

	gt.Equal(t, verify.Strip(nil), "")
}
