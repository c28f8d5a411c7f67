package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"portfolio/src/config"
	"portfolio/src/schemas"
	"portfolio/src/utils"
	"portfolio/src/utils/requests"

	"github.com/sethvargo/go-retry"
)

var ErrSymbolNotFound = errors.New("symbol not found")

type YahooServiceClientI interface {
	GetHistory(ctx context.Context, symbol string, startDate, endDate time.Time) ([]schemas.PricePoint, error)
	GetLatest(ctx context.Context, symbol string) (*schemas.Quote, error)
}

type YahooServiceClient struct {
	API     *requests.ExternalAPIService
	BaseURL string
	Retries uint64
	Backoff time.Duration
}

// NewClient creates a new instance of YahooServiceClient
func NewClient(cfg *config.Config) *YahooServiceClient {
	yahooCfg := cfg.ExternalClients.Yahoo
	return &YahooServiceClient{
		API:     requests.NewExternalAPIService(yahooCfg.Timeout),
		BaseURL: yahooCfg.BaseURL,
		Retries: yahooCfg.Retries,
		Backoff: 250 * time.Millisecond,
	}
}

// GetHistory returns one close per trading day in [startDate, endDate], sorted by date.
func (c *YahooServiceClient) GetHistory(ctx context.Context, symbol string, startDate, endDate time.Time) ([]schemas.PricePoint, error) {
	params := url.Values{}
	params.Add("period1", strconv.FormatInt(startDate.Unix(), 10))
	params.Add("period2", strconv.FormatInt(endDate.AddDate(0, 0, 1).Unix(), 10))
	params.Add("interval", "1d")
	params.Add("events", "history")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	points := dailyCloses(result)
	filtered := points[:0]
	for _, p := range points {
		if p.Date.Before(startDate) || p.Date.After(endDate) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

// GetLatest returns the most recent close and the 52-week extremes reported in the chart metadata.
func (c *YahooServiceClient) GetLatest(ctx context.Context, symbol string) (*schemas.Quote, error) {
	params := url.Values{}
	params.Add("range", "5d")
	params.Add("interval", "1d")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	quote := &schemas.Quote{
		Symbol:   symbol,
		Currency: result.Meta.Currency,
		YearHigh: result.Meta.FiftyTwoWeekHigh,
		YearLow:  result.Meta.FiftyTwoWeekLow,
	}

	points := dailyCloses(result)
	switch {
	case len(points) > 0:
		last := points[len(points)-1]
		quote.Date = last.Date
		quote.Price = last.Close
	case result.Meta.RegularMarketPrice != nil:
		quote.Date = utils.CalendarDate(time.Unix(result.Meta.RegularMarketTime, 0).In(exchangeLocation(result)))
		quote.Price = *result.Meta.RegularMarketPrice
	default:
		return nil, fmt.Errorf("%w: %s has no recent close", ErrSymbolNotFound, symbol)
	}
	return quote, nil
}

func (c *YahooServiceClient) fetchChart(ctx context.Context, symbol string, params url.Values) (*ChartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.BaseURL, url.PathEscape(symbol))

	base := c.Backoff
	if base <= 0 {
		base = time.Millisecond
	}

	var response ChartResponse
	backoff := retry.WithMaxRetries(c.Retries, retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		response = ChartResponse{}
		err := c.API.GetJSON(ctx, endpoint, params, &response)
		if err == nil {
			return nil
		}

		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.Code == http.StatusNotFound {
				return fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
			}
			if httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= http.StatusInternalServerError {
				return retry.RetryableError(err)
			}
			return err
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || ctx.Err() != nil {
			return err
		}
		// Network level failure
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}

	if response.Chart.Error != nil {
		if response.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("chart error for %s: %s", symbol, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &response.Chart.Result[0], nil
}

func exchangeLocation(result *ChartResult) *time.Location {
	if result.Meta.ExchangeTimezoneName != "" {
		if location, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil {
			return location
		}
	}
	return time.UTC
}

// dailyCloses pairs timestamps with non-null closes. Timestamps are mapped to the exchange's calendar date and
// a later point on the same date replaces an earlier one.
func dailyCloses(result *ChartResult) []schemas.PricePoint {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close
	location := exchangeLocation(result)

	byDate := map[time.Time]float64{}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		byDate[utils.CalendarDate(time.Unix(ts, 0).In(location))] = *closes[i]
	}

	points := make([]schemas.PricePoint, 0, len(byDate))
	for date, price := range byDate {
		points = append(points, schemas.PricePoint{Date: date, Close: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
