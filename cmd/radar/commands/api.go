package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/market-radar/internal/api"
	"github.com/wonny/market-radar/internal/scheduler"
	"github.com/wonny/market-radar/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server and the pass scheduler",
	Long: `Start the REST API server together with the scheduler.

The scheduler runs a full pass every SCHEDULER_INTERVAL and, when
SCHEDULER_RUN_ON_START is set, once immediately.

Endpoints:
  GET  /health                          - Health check
  GET  /market/{daily|weekly|monthly}   - Published rankings
  GET  /market/all                      - Every asset of the last pass
  GET  /market/asset/{symbol}?period=   - On-demand asset detail
  GET  /market/changes?n=               - Day-over-day daily return changes
  GET  /api/scheduler/jobs              - Job statistics

Example:
  go run ./cmd/radar api
  go run ./cmd/radar api --port 8080 --no-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiNoScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().BoolVar(&apiNoScheduler, "no-scheduler", false, "serve artifacts only, do not run passes")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	var sched *scheduler.Scheduler
	if !apiNoScheduler {
		sched, err = a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		defer sched.Stop()

		if err := jobs.StartPipeline(sched, a.cfg.Scheduler.RunOnStart); err != nil {
			a.log.WithError(err).Warn("Initial pass not started")
		}
	}

	server := api.New(a.cfg, a.log, a.newRouter(sched))

	a.log.WithFields(map[string]interface{}{
		"port":      a.cfg.Port,
		"scheduler": sched != nil,
		"interval":  a.cfg.Scheduler.Interval.String(),
	}).Info("API server starting")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Blocks until SIGINT/SIGTERM, then shuts down gracefully
	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
