package main

import (
	"flag"
	"testing"
	"time"

	"portfolio/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmdRequest(t *testing.T) {
	t.Run("backfill flags", func(t *testing.T) {
		cmd := newBackfillCmd()
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		require.NoError(t, fs.Parse([]string{"-start", "2024-03-01", "-end", "2024-03-08"}))

		req, err := cmd.request()
		require.NoError(t, err)
		assert.Equal(t, models.RunModeBackfillRange, req.Mode)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *req.StartDate)
		assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), *req.EndDate)
	})

	t.Run("backfill bounds are optional", func(t *testing.T) {
		req, err := newBackfillCmd().request()
		require.NoError(t, err)
		assert.Nil(t, req.StartDate)
		assert.Nil(t, req.EndDate)
	})

	t.Run("bad date", func(t *testing.T) {
		cmd := newBackfillCmd()
		cmd.end = "08/03/2024"
		_, err := cmd.request()
		assert.Error(t, err)
	})

	t.Run("other modes take no range flags", func(t *testing.T) {
		for _, cmd := range []*runCmd{newRunCmd(), newQuantitiesCmd(), newYearRangeCmd()} {
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			assert.Nil(t, fs.Lookup("start"), cmd.Name())
		}
	})
}

func TestCommandsAreUnique(t *testing.T) {
	names := map[string]bool{}
	for _, c := range commands {
		assert.False(t, names[c.Name()], c.Name())
		names[c.Name()] = true
	}
	assert.Len(t, names, 6)
}
