package yahoo

type ChartResponse struct {
	Chart Chart `json:"chart"`
}

type Chart struct {
	Result []ChartResult `json:"result"`
	Error  *ChartError   `json:"error"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ChartResult struct {
	Meta       ChartMeta       `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators ChartIndicators `json:"indicators"`
}

type ChartMeta struct {
	Currency             string   `json:"currency"`
	Symbol               string   `json:"symbol"`
	ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
}

type ChartIndicators struct {
	Quote []ChartQuote `json:"quote"`
}

// ChartQuote holds the per-timestamp series. Closes are null on days the symbol did not trade.
type ChartQuote struct {
	Close []*float64 `json:"close"`
}
