// Package export renders a user's transactions as a CSV document suitable
// for spreadsheet import.
//
// The format is fixed: a UTF-8 BOM so spreadsheet applications detect the
// encoding, a Date,Type,Category,Amount,Note header, dates as YYYY-MM-DD and
// the note always quoted.
package export

import (
	"bytes"
	"strings"
	"time"

	"finura/internal/core"
)

const header = "Date,Type,Category,Amount,Note"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV renders the transactions in their given order.
func CSV(txs []core.Transaction) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString(header)
	buf.WriteString("\n")
	for _, tx := range txs {
		buf.WriteString(row(tx))
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

func row(tx core.Transaction) string {
	fields := []string{
		RawDateField(tx.Date),
		string(tx.Type),
		tx.Category,
		tx.Amount.String(),
		quote(tx.Note),
	}
	return strings.Join(fields, ",")
}

// RawDateField renders the calendar day of a date in any wire shape. Missing
// dates render "Unknown" (these exist in data imported from older exports),
// unparseable ones "Invalid Date". A bad date never aborts the export.
func RawDateField(v any) string {
	if v == nil {
		return "Unknown"
	}
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "Unknown"
		}
	case string:
		if strings.TrimSpace(d) == "" {
			return "Unknown"
		}
	}
	t, err := core.ParseWhen(v)
	if err != nil {
		return "Invalid Date"
	}
	return core.DayKey(t)
}

// quote wraps the note in double quotes unconditionally, doubling any quotes
// inside, so embedded commas and newlines survive the round trip.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename names the download after the day the export was taken.
func Filename(now time.Time) string {
	return "transactions_" + core.DayKey(now) + ".csv"
}
