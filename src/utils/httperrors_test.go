package utils_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"http error", utils.NotFound("security 7 not found"), http.StatusNotFound, "security 7 not found"},
		{"wrapped http error", fmt.Errorf("handler: %w", utils.Conflict("busy")), http.StatusConflict, "busy"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			utils.WriteError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["error"])
		})
	}
}

func TestWrapHTTPError(t *testing.T) {
	sentinel := errors.New("not found")
	err := utils.WrapHTTPError(http.StatusNotFound, fmt.Errorf("lookup: %w", sentinel))

	assert.ErrorIs(t, err, sentinel)
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "lookup: not found", httpErr.Message)
}
