package render_test

import (
	"bytes"
	"testing"
	"time"

	"portfolio/src/schemas"
	"portfolio/src/utils/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPortfolioChart(t *testing.T) {
	totals := []schemas.DailyTotal{
		{Date: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), Total: 100},
		{Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Total: 185.456},
	}

	t.Run("labels follow the configured layout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.RenderPortfolioChart(&buf, "Portfolio value", totals, "Jan 2, 2006"))

		html := buf.String()
		assert.Contains(t, html, "Portfolio value")
		assert.Contains(t, html, "Mar 7, 2024")
		assert.Contains(t, html, "Mar 8, 2024")
		assert.Contains(t, html, "185.46")
		assert.NotContains(t, html, "2024-03-08")
	})

	t.Run("layout is required", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, render.RenderPortfolioChart(&buf, "Portfolio value", totals, ""))
		assert.Zero(t, buf.Len())
	})

	t.Run("empty series still renders", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.RenderPortfolioChart(&buf, "Empty", nil, "2006-01-02"))
		assert.Contains(t, buf.String(), "Empty")
	})
}
