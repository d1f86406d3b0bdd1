package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"anggaran/internal/amqp"
	"anggaran/internal/backend"
	"anggaran/internal/config"
	"anggaran/internal/services"
)

func newSyncCommand() *cobra.Command {
	var configPath string
	var queue bool

	cmd := &cobra.Command{
		Use:   "sync [document]",
		Short: "Import budget sheets from the configured source",
		Long: `Import budget sheets from the configured source into the local database.

With no argument every document in the source is synced. Passing a
document id or name syncs that one document inline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if queue {
				if len(args) > 0 {
					return fmt.Errorf("targeted syncs run inline, drop --queue")
				}
				return queueSync(cmd.Context(), cmd.OutOrStdout(), cfg)
			}

			return runSync(cmd.Context(), cmd.OutOrStdout(), cfg, args)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "configuration file")
	cmd.Flags().BoolVar(&queue, "queue", false, "publish a sync request for the worker instead of running inline")

	return cmd
}

func queueSync(ctx context.Context, w io.Writer, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not configured, run without --queue")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer client.Close()

	if err := client.PublishSyncRequest(ctx, "cli"); err != nil {
		return fmt.Errorf("publishing sync request: %w", err)
	}

	fmt.Fprintln(w, "Sync request queued")
	return nil
}

func runSync(ctx context.Context, w io.Writer, cfg *config.Config, args []string) error {
	repo, err := openRepo(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer repo.Close()

	source, err := backend.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing source: %w", err)
	}

	svc := services.NewSyncService(repo, source, services.SyncConfig{
		Backend:     cfg.SourceBackend,
		Reference:   backend.Reference(cfg),
		ExportDir:   cfg.ExportDir,
		Parallelism: cfg.SyncParallelism,
	})

	if len(args) == 1 {
		outcome, err := svc.SyncOne(ctx, args[0])
		if err != nil {
			return err
		}
		printOutcomes(w, []services.Outcome{outcome})
		return nil
	}

	report, err := svc.SyncAll(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Batch %s: %d created, %d updated, %d skipped, %d failed in %s\n",
		report.BatchID, report.Created, report.Updated, report.Skipped, report.Failed,
		report.Duration.Round(time.Millisecond))
	printOutcomes(w, report.Outcomes)
	return nil
}

func printOutcomes(w io.Writer, outcomes []services.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSTATUS\tEXPENSES\tINCOME\tREASON")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", o.Document, o.Status, o.Expenses, o.Income, o.Reason)
	}
	tw.Flush()
}
