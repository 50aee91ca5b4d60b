// Package extract turns one result-table row into a typed lot record.
package extract

import (
	"regexp"
	"strings"

	"github.com/zakupwatch/lotscan/internal/fetch"
	"github.com/zakupwatch/lotscan/internal/model"
	"github.com/zakupwatch/lotscan/internal/normalize"
)

// customerMarker is the literal the upstream site prints before the customer
// name inside the announcement cell.
const customerMarker = "Заказчик:"

// historyBoilerplate is the "History" link text embedded in the subject cell.
const historyBoilerplate = "История"

// minCells is the structural floor for a usable row; the status cell beyond
// it is optional.
const minCells = 6

var customerRe = regexp.MustCompile(customerMarker + `\s*(.*?)\s*$`)

// Outcome is the per-row result: either a lot or a skip with its reason.
// Skips are expected operational noise, not errors.
type Outcome struct {
	Lot     *model.Lot
	Skipped bool
	Reason  string
}

func skipped(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

// Extract builds a Lot from one table row. Rows with fewer than six cells are
// structurally incomplete and get skipped; they never abort a page.
func Extract(row fetch.Row) Outcome {
	if len(row) < minCells {
		return skipped("short row")
	}

	// Cell 0 is a multi-line block. The upstream column nominally holds
	// id / name / status, but the third line is what ends up rendered as the
	// customer; this mapping is inherited from the source site, not re-derived.
	lines := normalize.Lines(row[0].Text)
	lot := model.Lot{}
	if len(lines) > 0 {
		lot.LotID = lines[0]
	}
	if len(lines) > 1 {
		lot.Announcement = lines[1]
	}
	if len(lines) > 2 {
		lot.Customer = lines[2]
	}
	if lot.LotID == "" {
		return skipped("missing lot id")
	}

	// Cell 1 carries the announcement body with the customer appended after
	// the marker. When cell 0 gave no customer, fall back to the marker text.
	announcement, customer := splitAnnouncement(row[1].Text)
	if lot.Announcement == "" {
		lot.Announcement = announcement
	}
	if lot.Customer == "" {
		lot.Customer = customer
	}

	lot.Subject = cleanSubject(row[2].Text)
	lot.SubjectLink = row[2].Href
	lot.Quantity = nonNegative(normalize.ParseNumber(normalize.Clean(row[3].Text)))
	lot.Amount = nonNegative(normalize.ParseNumber(normalize.Clean(row[4].Text)))
	lot.PurchaseType = normalize.Clean(row[5].Text)
	if len(row) > minCells {
		lot.Status = normalize.Clean(row[6].Text)
	}

	return Outcome{Lot: &lot}
}

// splitAnnouncement separates the announcement body from the customer name
// that follows the marker literal.
func splitAnnouncement(text string) (announcement, customer string) {
	before, _, found := strings.Cut(text, customerMarker)
	announcement = normalize.Clean(before)
	if !found {
		return announcement, ""
	}
	if m := customerRe.FindStringSubmatch(text); m != nil {
		customer = normalize.Clean(m[1])
	}
	return announcement, customer
}

func cleanSubject(text string) string {
	return normalize.Clean(strings.ReplaceAll(text, historyBoilerplate, ""))
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
