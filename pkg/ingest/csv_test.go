package ingest_test

import (
	"strings"
	"testing"

	"github.com/gema-dev/gema/pkg/ingest"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestReadCSV(t *testing.T) {
	data := `Startup Name,Investors Name,Amount in USD,InvestmentnType,Industry Vertical,City  Location
Acme Robotics,Northgate Capital,"2,000,000",Series A,Robotics,Bangalore
Bolt Logistics,Harbor Ventures,5500000,Seed,Logistics,Mumbai
`
	records, err := ingest.ReadCSV(strings.NewReader(data), "funding.csv")
	gt.NoError(t, err)
	gt.A(t, records).Length(2)

	acme := records[0]
	gt.Equal(t, acme.ID, model.NewRecordID("funding.csv", 1))
	gt.Equal(t, acme.Source, "funding.csv")

	company, ok := acme.Field("company")
	gt.True(t, ok)
	gt.Equal(t, company, "Acme Robotics")

	investor, ok := acme.Field("investor")
	gt.True(t, ok)
	gt.Equal(t, investor, "Northgate Capital")

	round, ok := acme.Field("funding_round")
	gt.True(t, ok)
	gt.Equal(t, round, "Series A")

	// The raw amount is kept and a digit-normalized value is added
	amount, ok := acme.Field("amount")
	gt.True(t, ok)
	gt.Equal(t, amount, "2,000,000")

	value, ok := acme.Field("amount_value")
	gt.True(t, ok)
	gt.Equal(t, value, "2000000")
}

func TestReadCSVStableIDs(t *testing.T) {
	data := "Company,Amount\nAcme,100\n"

	first, err := ingest.ReadCSV(strings.NewReader(data), "funding.csv")
	gt.NoError(t, err)
	second, err := ingest.ReadCSV(strings.NewReader(data), "funding.csv")
	gt.NoError(t, err)

	gt.Equal(t, first[0].ID, second[0].ID)
}

func TestReadCSVSkipsRowsWithoutCompany(t *testing.T) {
	data := `Company,Amount
Acme,100
,200
NaN,300
`
	records, err := ingest.ReadCSV(strings.NewReader(data), "funding.csv")
	gt.NoError(t, err)
	gt.A(t, records).Length(1)

	company, _ := records[0].Field("company")
	gt.Equal(t, company, "Acme")
}

func TestReadCSVNoCompanyColumn(t *testing.T) {
	data := "Color,Shape\nred,circle\n"
	_, err := ingest.ReadCSV(strings.NewReader(data), "funding.csv")
	gt.Error(t, err)
}

func TestCanonicalAmount(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{"2,000,000", "2000000", true},
		{"$2.5M", "2500000", true},
		{"1.2 billion", "1200000000", true},
		{"Rs. 20 Lakhs", "2000000", true},
		{"5 crore", "50000000", true},
		{"750K", "750000", true},
		{"12000", "12000", true},
		{"undisclosed", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ingest.CanonicalAmount(tc.raw)
			gt.Equal(t, ok, tc.ok)
			gt.Equal(t, got, tc.expected)
		})
	}
}
