package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"portfolio/src/schemas"
	"portfolio/src/utils"
)

// SnapshotHolding is one position read from a broker export.
type SnapshotHolding struct {
	// Ticker is the broker ticker as exported, trimmed. Registry matching uses it case-insensitively.
	Ticker string
	// Symbol is the quote provider symbol, filled in by the TickerNormalizer.
	Symbol      string
	DisplayName string
	Quantity    float64
	Currency    string
	// Price is the snapshot's own price, nil when the cell could not be parsed.
	Price *float64
}

type ParsedSnapshot struct {
	Holdings []SnapshotHolding
	// Tickers lists every security present in the export, including rows dropped for bad numbers,
	// so a malformed row never causes its security to be removed from the registry.
	Tickers []string
	Skipped []schemas.RowSkip
}

var columnAliases = map[string][]string{
	"ticker":   {"ticker", "symbol"},
	"name":     {"name", "company", "display_name"},
	"quantity": {"no._of_shares", "quantity", "shares"},
	"price":    {"price", "last_price"},
	"value":    {"holding_value", "value", "market_value"},
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// NormalizeColumnName case-folds a header and collapses whitespace runs into "_".
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// CleanNumeric drops everything but digits, '.' and '-'.
func CleanNumeric(raw string) string {
	return nonNumeric.ReplaceAllString(raw, "")
}

func ParseNumeric(raw string) (float64, error) {
	cleaned := CleanNumeric(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in %q", raw)
	}
	return strconv.ParseFloat(cleaned, 64)
}

// DetectCurrency looks for a "c$" marker in the raw, uncleaned cells. Anything else is USD.
func DetectCurrency(rawValues ...string) string {
	for _, raw := range rawValues {
		if strings.Contains(strings.ToLower(raw), "c$") {
			return utils.CurrencyCAD
		}
	}
	return utils.CurrencyUSD
}

func bindColumns(header []string) map[string]int {
	positions := map[string]int{}
	for i, name := range header {
		normalized := NormalizeColumnName(name)
		if _, exists := positions[normalized]; !exists {
			positions[normalized] = i
		}
	}

	bound := map[string]int{}
	for field, aliases := range columnAliases {
		bound[field] = -1
		for _, alias := range aliases {
			if idx, ok := positions[alias]; ok {
				bound[field] = idx
				break
			}
		}
	}
	return bound
}

// ParseSnapshotRows turns raw rows (header first) into holdings. Only a missing ticker or quantity column is
// fatal; problems on a single row are reported in Skipped.
func ParseSnapshotRows(rows [][]string) (*ParsedSnapshot, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: snapshot is empty", ErrMalformedInput)
	}

	columns := bindColumns(rows[0])
	if columns["ticker"] < 0 || columns["quantity"] < 0 {
		return nil, fmt.Errorf("%w: snapshot needs ticker and quantity columns, got %v", ErrMalformedInput, rows[0])
	}

	cell := func(row []string, field string) string {
		idx := columns[field]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	parsed := &ParsedSnapshot{}
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		ticker := cell(row, "ticker")
		if ticker == "" || strings.EqualFold(ticker, "cash") {
			continue
		}

		key := strings.ToLower(ticker)
		if seen[key] {
			parsed.Skipped = append(parsed.Skipped, schemas.RowSkip{Ticker: ticker, Reason: "duplicate ticker in snapshot"})
			continue
		}
		seen[key] = true
		parsed.Tickers = append(parsed.Tickers, ticker)

		quantityRaw := cell(row, "quantity")
		quantity, err := ParseNumeric(quantityRaw)
		if err != nil {
			parsed.Skipped = append(parsed.Skipped, schemas.RowSkip{
				Ticker: ticker,
				Reason: fmt.Sprintf("%v: unparseable quantity %q", ErrRowSkipped, quantityRaw),
			})
			continue
		}

		holding := SnapshotHolding{
			Ticker:      ticker,
			DisplayName: cell(row, "name"),
			Quantity:    quantity,
			Currency:    DetectCurrency(cell(row, "value"), cell(row, "price")),
		}
		if holding.DisplayName == "" {
			holding.DisplayName = ticker
		}
		if price, err := ParseNumeric(cell(row, "price")); err == nil {
			holding.Price = &price
		}
		parsed.Holdings = append(parsed.Holdings, holding)
	}
	return parsed, nil
}
