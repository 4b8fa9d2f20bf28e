package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/market-radar/internal/report"
	"github.com/wonny/market-radar/internal/snapshot"
)

// snapshotCmd represents the snapshot command group
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the daily snapshot history",
}

var (
	snapshotChangesCmd = &cobra.Command{
		Use:   "changes",
		Short: "Show the largest daily return increases vs the previous snapshot",
		RunE:  runSnapshotChanges,
	}

	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored snapshot dates",
		RunE:  runSnapshotList,
	}

	snapshotPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than --days",
		RunE:  runSnapshotPrune,
	}
)

var (
	changesLimit int
	pruneDays    int
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotChangesCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotPruneCmd)

	// Flags
	snapshotChangesCmd.Flags().IntVarP(&changesLimit, "n", "n", snapshot.DefaultChangesLimit, "number of rows")
	snapshotPruneCmd.Flags().IntVar(&pruneDays, "days", 90, "keep this many days")
}

// openStore opens only the snapshot backend, without providers
func openStore(cmd *cobra.Command) (snapshot.Store, func(), error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return a.store, a.close, nil
}

func runSnapshotChanges(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	yesterday, today, ok, err := snapshot.LoadLastTwo(cmd.Context(), store)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	if !ok {
		PrintInfo("Fewer than two snapshots stored, nothing to compare")
		return nil
	}

	report.NewConsole(cmd.OutOrStdout()).Changes(snapshot.DailyChanges(yesterday, today, changesLimit))
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	dates, err := store.Dates(cmd.Context())
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	items := make([]string, 0, len(dates))
	for _, d := range dates {
		items = append(items, d.Format(snapshot.DateLayout))
	}
	PrintList(items)
	fmt.Printf("\n%d snapshot(s)\n", len(dates))
	return nil
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	if pruneDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	store, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	before := time.Now().UTC().AddDate(0, 0, -pruneDays)
	n, err := store.Prune(cmd.Context(), before)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Removed %d snapshot(s) before %s", n, before.Format(snapshot.DateLayout)))
	return nil
}
