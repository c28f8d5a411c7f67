package services

import "strings"

// DefaultExchangeSuffixes maps broker exchange prefixes to the quote provider's symbol suffix.
var DefaultExchangeSuffixes = map[string]string{
	"TSE": ".TO",
}

type TickerNormalizer struct {
	suffixes map[string]string
}

// NewTickerNormalizer builds a normalizer from prefix -> suffix pairs. Prefixes match case-insensitively.
func NewTickerNormalizer(suffixes map[string]string) *TickerNormalizer {
	if len(suffixes) == 0 {
		suffixes = DefaultExchangeSuffixes
	}
	normalized := make(map[string]string, len(suffixes))
	for prefix, suffix := range suffixes {
		normalized[strings.ToUpper(strings.TrimSpace(prefix))] = suffix
	}
	return &TickerNormalizer{suffixes: normalized}
}

// Normalize maps a broker ticker to the symbol used for price lookups.
// "TSE:ABC.X" becomes "ABC-X.TO"; anything else is trimmed and uppercased, unknown prefixes included.
func (n *TickerNormalizer) Normalize(raw string) string {
	ticker := strings.TrimSpace(raw)

	exchange, symbol, found := strings.Cut(ticker, ":")
	if found {
		if suffix, ok := n.suffixes[strings.ToUpper(strings.TrimSpace(exchange))]; ok {
			symbol = strings.ReplaceAll(strings.TrimSpace(symbol), ".", "-")
			return strings.ToUpper(symbol) + suffix
		}
	}
	return strings.ToUpper(ticker)
}
