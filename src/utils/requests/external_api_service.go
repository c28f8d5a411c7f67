package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"portfolio/src/utils"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; portfolio-tracker/1.0)"

// ExternalAPIService is a thin JSON-over-HTTP client shared by the external clients
type ExternalAPIService struct {
	client  *http.Client
	headers map[string]string
}

// NewExternalAPIService creates a client whose every call is bounded by timeout.
func NewExternalAPIService(timeout time.Duration) *ExternalAPIService {
	return &ExternalAPIService{
		client: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent": defaultUserAgent,
			"Accept":     "application/json",
		},
	}
}

// makeRequest builds and executes the request. Non 2xx responses are returned as *utils.HTTPError
// carrying the upstream status code, with the body already drained.
func (s *ExternalAPIService) makeRequest(ctx context.Context, method, endpoint string, params url.Values, body interface{}) (*http.Response, error) {
	if params != nil {
		endpoint = endpoint + "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, utils.NewHTTPError(resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// Get makes a GET request to the external service, accepting optional query parameters
func (s *ExternalAPIService) Get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	return s.makeRequest(ctx, http.MethodGet, endpoint, params, nil)
}

// GetJSON performs a GET and decodes the JSON body into out.
func (s *ExternalAPIService) GetJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	resp, err := s.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(responseBody, out)
}
