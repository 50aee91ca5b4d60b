package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakupwatch/lotscan/internal/model"
)

func sampleScored() []model.ScoredLot {
	return []model.ScoredLot{
		model.Lot{LotID: "lot-1", Subject: "Pencils", Amount: 1234.56, Quantity: 10}.Scored(82.5),
		model.Lot{LotID: "lot-2", Subject: "Paper, A4", Amount: 500, Quantity: 5}.Scored(12),
	}
}

func TestWriteScoredCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeScoredCSV(&buf, sampleScored()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "lot_id,subject,amount,quantity,suspicion_percentage,suspicion_level", lines[0])
	assert.Contains(t, lines[1], "lot-1,Pencils,1234.56,10.00,82.50,High")
	assert.Contains(t, lines[2], "Low")
}

func TestWriteScoredTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeScoredTable(&buf, sampleScored()))

	out := buf.String()
	assert.Contains(t, out, "LOT ID")
	assert.Contains(t, out, "82.5%")
	assert.Contains(t, out, "High")
}

func TestWriteScoredTable_TruncatesLongSubjects(t *testing.T) {
	long := model.Lot{LotID: "a", Subject: strings.Repeat("ы", 60)}.Scored(1)
	var buf bytes.Buffer
	require.NoError(t, writeScoredTable(&buf, []model.ScoredLot{long}))
	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), strings.Repeat("ы", 60))
}

func TestStringField(t *testing.T) {
	rec := map[string]any{"id": "abc", "subject": 42}
	assert.Equal(t, "abc", stringField(rec, "id", "x"))
	assert.Equal(t, "x", stringField(rec, "subject", "x"), "non-string falls back")
	assert.Equal(t, "x", stringField(rec, "missing", "x"))
}
