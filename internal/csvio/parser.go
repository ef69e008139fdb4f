// Package csvio maps auction CSV exports to vehicle records and back.
//
// Two shapes are understood: the initial listing export
// (REG, MAKE, MODEL, MILEAGE, CAR_YEAR, RESERVE_OR_BUY_NOW_PRICE,
// PREVIOUS_OWNERS_COUNT, SERVICE_HISTORY) and the annotated follow-up
// export keyed by VRM. Numeric fields tolerate thousands-separator
// commas; blank fields default to zero or the empty string.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

// ParseError reports a malformed or unreadable CSV input. The underlying
// cause is available via Unwrap.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing csv: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Listing export column names.
const (
	colReg            = "REG"
	colMake           = "MAKE"
	colModel          = "MODEL"
	colMileage        = "MILEAGE"
	colCarYear        = "CAR_YEAR"
	colReserve        = "RESERVE_OR_BUY_NOW_PRICE"
	colPreviousOwners = "PREVIOUS_OWNERS_COUNT"
	colServiceHistory = "SERVICE_HISTORY"
	colVRM            = "VRM"
)

// ParseListing reads an initial listing export. Every data row yields
// exactly one record with status "new"; rows shorter than the header are
// padded with blanks, and unknown columns are ignored. Rows repeating a
// registration (case-insensitively) overwrite the earlier row in place,
// so the last occurrence wins.
func ParseListing(r io.Reader) ([]vehicle.Record, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, err
	}

	// The simplified round-trip export labels the id column VRM; accept
	// it as an alias so re-uploads parse cleanly.
	idCol := colReg
	if _, ok := header[colReg]; !ok {
		if _, ok := header[colVRM]; ok {
			idCol = colVRM
		}
	}

	records := make([]vehicle.Record, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		rec := vehicle.Record{
			ID:                   row.get(header, idCol),
			Make:                 row.get(header, colMake),
			Model:                row.get(header, colModel),
			Mileage:              row.getInt(header, colMileage),
			CarYear:              row.getInt(header, colCarYear),
			ReserveOrBuyNowPrice: row.getFloat(header, colReserve),
			PreviousOwnersCount:  row.getInt(header, colPreviousOwners),
			ServiceHistory:       row.get(header, colServiceHistory),
			Status:               vehicle.StatusNew,
		}
		key := strings.ToLower(rec.ID)
		if at, ok := seen[key]; ok {
			records[at] = rec
			continue
		}
		seen[key] = len(records)
		records = append(records, rec)
	}
	return records, nil
}

// ParseFollowUp reads an annotated follow-up export keyed by VRM,
// carrying at minimum a corrected mileage.
func ParseFollowUp(r io.Reader) ([]vehicle.Update, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, err
	}

	updates := make([]vehicle.Update, 0, len(rows))
	for _, row := range rows {
		u := vehicle.Update{ID: row.get(header, colVRM)}
		mileage := row.getInt(header, colMileage)
		u.Mileage = &mileage
		updates = append(updates, u)
	}
	return updates, nil
}

// WriteSimplified emits the two-column VRM,MILEAGE table used for
// external annotation and re-upload.
func WriteSimplified(w io.Writer, records []vehicle.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colVRM, colMileage}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{rec.ID, strconv.Itoa(rec.Mileage)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SimplifiedCSV is WriteSimplified into a string.
func SimplifiedCSV(records []vehicle.Record) (string, error) {
	var sb strings.Builder
	if err := WriteSimplified(&sb, records); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// row is one data row addressed by the header index.
type row []string

// headerIndex maps upper-cased column names to their positions.
type headerIndex map[string]int

func readAll(r io.Reader) ([]row, headerIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows
	cr.TrimLeadingSpace = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &ParseError{Cause: err}
	}
	if len(all) == 0 {
		return nil, nil, &ParseError{Cause: fmt.Errorf("missing header row")}
	}

	header := make(headerIndex, len(all[0]))
	for i, name := range all[0] {
		header[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	rows := make([]row, 0, len(all)-1)
	for _, rec := range all[1:] {
		if isBlankRow(rec) {
			continue
		}
		rows = append(rows, row(rec))
	}
	return rows, header, nil
}

func isBlankRow(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func (r row) get(header headerIndex, col string) string {
	i, ok := header[col]
	if !ok || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

func (r row) getInt(header headerIndex, col string) int {
	raw := stripThousands(r.get(header, col))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func (r row) getFloat(header headerIndex, col string) float64 {
	raw := stripThousands(r.get(header, col))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
