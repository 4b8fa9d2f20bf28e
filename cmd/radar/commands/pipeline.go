package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/report"
)

// pipelineCmd represents the pipeline command group
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the returns pipeline",
}

// pipelineRunCmd runs one pass in the foreground
var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass and print the rankings",
	Long: `Run one pass over the universe: fetch prices, compute returns, save
the snapshot and publish daily/weekly/monthly JSON plus all_assets.json.

The rankings are printed to stdout unless --quiet is set.

Example:
  go run ./cmd/radar pipeline run
  go run ./cmd/radar pipeline run --universe data/universe.yaml --source yahoo`,
	RunE: runPipeline,
}

var (
	pipelineQuiet    bool
	pipelineUniverse string
	pipelineSource   string
	pipelineRange    string
)

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.AddCommand(pipelineRunCmd)

	// Flags
	pipelineRunCmd.Flags().BoolVarP(&pipelineQuiet, "quiet", "q", false, "do not print rankings")
	pipelineRunCmd.Flags().StringVar(&pipelineUniverse, "universe", "", "universe file (default from UNIVERSE_FILE)")
	pipelineRunCmd.Flags().StringVar(&pipelineSource, "source", "", "price source: auto, yahoo, naver")
	pipelineRunCmd.Flags().StringVar(&pipelineRange, "range", "", "fetch range, e.g. 1mo, 3mo")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if pipelineRange != "" && !contracts.ValidRange(pipelineRange) {
		return fmt.Errorf("unknown --range %q", pipelineRange)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Flag overrides go through the environment so config.Load stays the only reader
	overrides := map[string]string{
		"UNIVERSE_FILE":        pipelineUniverse,
		"PRICE_SOURCE":         pipelineSource,
		"PIPELINE_FETCH_RANGE": pipelineRange,
	}
	for key, value := range overrides {
		if value != "" {
			os.Setenv(key, value)
		}
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !pipelineQuiet && !a.cfg.Report.Console {
		a.pipeline.WithConsole(report.NewConsole(os.Stdout))
	}

	rep, err := a.pipeline.Run(ctx)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	fmt.Println()
	PrintDoubleSeparator()
	PrintKeyValue("Pass", rep.ID, 10)
	PrintKeyValue("Assets", fmt.Sprintf("%d", rep.Assets), 10)
	PrintKeyValue("OK", fmt.Sprintf("%d", rep.Succeeded), 10)
	PrintKeyValue("Failed", fmt.Sprintf("%d", rep.Failed), 10)
	PrintKeyValue("Snapshot", fmt.Sprintf("%t", rep.SnapshotSaved), 10)
	PrintKeyValue("Output", a.publisher.Dir(), 10)
	PrintKeyValue("Duration", rep.Duration().String(), 10)
	PrintDoubleSeparator()

	if rep.PublishErrors > 0 {
		PrintWarning(fmt.Sprintf("%d artifact(s) failed to publish", rep.PublishErrors))
	}
	return nil
}
