package model

import "github.com/zakupwatch/lotscan/internal/normalize"

// FeatureRow is the numeric feature vector consumed by the scoring session.
// The field order here is the schema the models and scaler were fit on.
type FeatureRow struct {
	Amount   float64 `json:"amount"`
	Quantity float64 `json:"quantity"`
}

// FeatureNames lists the schema columns in vector order.
var FeatureNames = []string{"amount", "quantity"}

// Vector returns the row as a dense vector in schema order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Amount, r.Quantity}
}

// FeatureRowFromLot builds a feature row from an already-normalized lot.
func FeatureRowFromLot(l Lot) FeatureRow {
	return FeatureRow{Amount: l.Amount, Quantity: l.Quantity}
}

// FeatureRowFromRecord builds a feature row from a loosely-typed record, such
// as one element of an uploaded JSON array. Values may be native numbers or
// locale-formatted strings; anything unparseable defaults to zero.
func FeatureRowFromRecord(rec map[string]any) FeatureRow {
	return FeatureRow{
		Amount:   normalize.ParseNumber(rec["amount"]),
		Quantity: normalize.ParseNumber(rec["quantity"]),
	}
}
