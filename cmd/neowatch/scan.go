package main

import (
	"os/signal"
	"syscall"

	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/couchcryptid/neo-approach-service/internal/report"
	"github.com/spf13/cobra"
)

var (
	scanLimit   int
	scanPublish bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the closest approaches",
		RunE:  runScan,
	}
)

func init() {
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "number of objects to list (default RANK_LIMIT)")
	scanCmd.Flags().BoolVar(&scanPublish, "publish", false, "also publish the report to Kafka")
}

func runScan(cmd *cobra.Command, _ []string) error {
	limit := cfg.RankLimit
	if cmd.Flags().Changed("limit") {
		limit = scanLimit
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := buildComponents(observability.NewMetrics(), limit, scanPublish || cfg.KafkaEnabled)
	defer c.close()

	// A publish failure still yields a report worth printing.
	rep, err := c.scanner.Scan(ctx)
	if rep.ScanID == "" {
		return err
	}
	if werr := report.WriteText(cmd.OutOrStdout(), rep); werr != nil {
		return werr
	}
	return err
}
