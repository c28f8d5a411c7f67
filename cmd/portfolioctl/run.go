package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/google/subcommands"
)

// runCmd executes one reconciliation mode synchronously and prints its report.
type runCmd struct {
	name     string
	synopsis string
	usage    string
	mode     models.RunMode

	start string
	end   string
}

func newRunCmd() *runCmd {
	return &runCmd{
		name:     "sync",
		synopsis: "reconcile the registry with the snapshot and record today's valuations",
		usage:    "sync\n\n  Runs a daily sync for the current calendar date in the configured time zone.\n",
		mode:     models.RunModeDailySync,
	}
}

func newBackfillCmd() *runCmd {
	return &runCmd{
		name:     "backfill",
		synopsis: "rebuild daily valuations over a date range",
		usage: `backfill [-start YYYY-MM-DD] [-end YYYY-MM-DD]

  Replaces the records of every snapshot security between start and end (inclusive) with provider closes.
  Missing bounds fall back to reconciliation.startDate and reconciliation.endDate.
`,
		mode: models.RunModeBackfillRange,
	}
}

func newQuantitiesCmd() *runCmd {
	return &runCmd{
		name:     "quantities",
		synopsis: "copy snapshot quantities onto each security's latest record",
		usage:    "quantities\n\n  Updates the quantity of the most recent record of every snapshot security.\n",
		mode:     models.RunModeQuantityRefresh,
	}
}

func newYearRangeCmd() *runCmd {
	return &runCmd{
		name:     "year-range",
		synopsis: "refresh 52-week highs and lows from the quote provider",
		usage:    "year-range\n\n  Stores the provider's 52-week extremes on every registered security.\n",
		mode:     models.RunModeYearRangeRefresh,
	}
}

func (c *runCmd) Name() string     { return c.name }
func (c *runCmd) Synopsis() string { return c.synopsis }
func (c *runCmd) Usage() string    { return c.usage }

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	if c.mode != models.RunModeBackfillRange {
		return
	}
	f.StringVar(&c.start, "start", "", "first date of the range, YYYY-MM-DD")
	f.StringVar(&c.end, "end", "", "last date of the range, YYYY-MM-DD")
}

// request builds the run request from the parsed flags.
func (c *runCmd) request() (schemas.RunRequest, error) {
	req := schemas.RunRequest{Mode: c.mode}
	if c.start != "" {
		start, err := time.Parse(utils.ShortDashDateLayout, c.start)
		if err != nil {
			return req, fmt.Errorf("invalid -start %q: %w", c.start, err)
		}
		req.StartDate = &start
	}
	if c.end != "" {
		end, err := time.Parse(utils.ShortDashDateLayout, c.end)
		if err != nil {
			return req, fmt.Errorf("invalid -end %q: %w", c.end, err)
		}
		req.EndDate = &end
	}
	return req, nil
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	ctx, deps, err := connect(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer deps.Close()

	syncService, err := deps.SyncService()
	if err != nil {
		return fail("%v", err)
	}

	report, err := syncService.Run(ctx, req)
	if report != nil {
		if perr := printJSON(os.Stdout, report); perr != nil {
			return fail("printing report: %v", perr)
		}
	}
	if err != nil {
		return fail("%s run failed: %v", c.mode, err)
	}
	return subcommands.ExitSuccess
}
