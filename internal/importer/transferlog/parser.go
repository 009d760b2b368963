package transferlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Row is one incoming bank transfer. Only credit rows are kept; the memo
// is what reconciliation matches against contract deposit codes.
type Row struct {
	Date   time.Time
	Payer  string
	Memo   string
	Amount int64 // smallest currency unit (KRW)
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse reads a bank transfer-log CSV, auto-detecting the bank format
// from the header row. Rows before the header (report titles, account
// summaries) and non-credit rows are skipped.
func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true    // Allow sloppy quotes if necessary

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	var profile *Profile

	var idx columnIndex

	var rows []Row

	for _, record := range records {
		// 1. Search for a header row matching one of the bank profiles.
		if profile == nil {
			if match, cols, ok := matchHeader(record); ok {
				profile = match
				idx = cols
			}

			continue
		}

		// 2. Parse data rows.
		if len(record) <= idx.max() {
			continue
		}

		dateStr := strings.TrimSpace(record[idx.date])
		if dateStr == "" {
			continue
		}

		date, err := time.Parse(profile.DateLayout, dateStr)
		if err != nil {
			// Probably not a data row (maybe footer).
			continue
		}

		creditStr := strings.TrimSpace(record[idx.credit])
		if creditStr == "" || creditStr == "0" {
			// Withdrawal row.
			continue
		}

		amount, err := parseWonAmount(creditStr)
		if err != nil || amount <= 0 {
			continue
		}

		memo := ""
		if idx.memo >= 0 {
			memo = strings.TrimSpace(record[idx.memo])
		}

		rows = append(rows, Row{
			Date:   date,
			Payer:  strings.TrimSpace(record[idx.payer]),
			Memo:   memo,
			Amount: amount,
		})
	}

	if profile == nil {
		return nil, fmt.Errorf("no known transfer-log header found")
	}

	return rows, nil
}

type columnIndex struct {
	date   int
	payer  int
	memo   int
	credit int
}

func (c columnIndex) max() int {
	m := c.date
	for _, v := range []int{c.payer, c.memo, c.credit} {
		if v > m {
			m = v
		}
	}

	return m
}

// matchHeader checks whether the record contains every required column of
// some profile and, if so, maps the column indices.
func matchHeader(record []string) (*Profile, columnIndex, bool) {
	cols := make(map[string]int, len(record))
	for i, col := range record {
		cols[strings.TrimSpace(col)] = i
	}

	for i := range profiles {
		p := &profiles[i]

		found := true

		for _, required := range p.requiredCols() {
			if _, ok := cols[required]; !ok {
				found = false
				break
			}
		}

		if !found {
			continue
		}

		idx := columnIndex{
			date:   cols[p.DateCol],
			payer:  cols[p.PayerCol],
			memo:   -1,
			credit: cols[p.CreditCol],
		}

		if memoIdx, ok := cols[p.MemoCol]; ok {
			idx.memo = memoIdx
		}

		return p, idx, true
	}

	return nil, columnIndex{}, false
}
