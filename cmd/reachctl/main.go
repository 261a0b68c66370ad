// reachctl is an operator tool for one-off reach operations: fetching raw
// records, resolving individual reaches, refreshing gauge stage fields, and
// flushing the feature layers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/aw"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/esrihydro"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/feature"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/waters"
	"github.com/couchcryptid/reach-hydroline-service/internal/config"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
	"github.com/couchcryptid/reach-hydroline-service/internal/resolver"
)

type app struct {
	cfg      *config.Config
	source   *aw.Client
	resolver *resolver.Resolver
	store    *feature.Store
}

func newApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	httpClient := retryhttp.New(cfg.RequestTimeout, cfg.RequestsPerSecond, logger)

	network := waters.New(httpClient, waters.Options{
		IndexingURL:    cfg.WatersIndexingURL,
		NavigationURL:  cfg.WatersNavigationURL,
		SearchRadiusKm: cfg.SearchRadiusKm,
		SnapAttempts:   cfg.SnapAttempts,
		TraceAttempts:  cfg.TraceAttempts,
	}, logger, metrics)

	basin := esrihydro.New(httpClient, esrihydro.Options{
		BaseURL:       cfg.HydrologyBaseURL,
		TraceAttempts: cfg.BasinTraceAttempts,
	}, logger, metrics)

	return &app{
		cfg: cfg,
		source: aw.New(httpClient, aw.Options{
			BaseURL:       cfg.AWBaseURL,
			FetchAttempts: cfg.FetchAttempts,
		}, logger, metrics),
		resolver: resolver.New(network, basin, resolver.Options{
			TraceAttempts: cfg.TraceAttempts,
		}, logger, metrics),
		store: feature.NewStore(
			feature.NewLayerClient(httpClient, cfg.LineLayerURL, "line", cfg.FetchAttempts, logger, metrics),
			feature.NewLayerClient(httpClient, cfg.CentroidLayerURL, "centroid", cfg.FetchAttempts, logger, metrics),
			feature.NewLayerClient(httpClient, cfg.PointLayerURL, "point", cfg.FetchAttempts, logger, metrics),
		),
	}, nil
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <reach-id>",
		Short: "Fetch a reach record and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			reach, err := a.source.FetchReach(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reach)
		},
	}
}

func newResolveCmd() *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "resolve <reach-id>...",
		Short: "Resolve hydrolines for the given reaches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var failed int
			for _, id := range args {
				reach, err := a.source.FetchReach(cmd.Context(), id)
				if err != nil {
					fmt.Fprintf(os.Stderr, "reach %s: fetch failed: %v\n", id, err)
					failed++
					continue
				}
				if err := a.resolver.Resolve(cmd.Context(), reach); err != nil {
					return err
				}
				if publish {
					reach.MarkExported()
					if err := a.store.PublishReach(cmd.Context(), reach); err != nil {
						fmt.Fprintf(os.Stderr, "reach %s: publish failed: %v\n", id, err)
						failed++
						continue
					}
				}
				status := "resolved"
				if reach.Error {
					status = "failed"
				}
				fmt.Printf("reach %s: %s (%s)\n", id, status, reach.TracingMethod)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d reaches failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "write results to the feature layers")
	return cmd
}

func newStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <reach-id>...",
		Short: "Refresh gauge stage fields on published reaches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			for _, id := range args {
				reach, err := a.source.FetchReach(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("reach %s: %w", id, err)
				}
				if err := a.store.UpdateStage(cmd.Context(), reach); err != nil {
					return err
				}
				fmt.Printf("reach %s: stage %s\n", id, reach.Stage())
			}
			return nil
		},
	}
}

func newFlushCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Delete every feature from the line, centroid, and point layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to flush without --confirm")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			for _, layer := range []*feature.LayerClient{a.store.Lines, a.store.Centroids, a.store.Points} {
				if err := layer.Flush(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Println("all layers flushed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "actually delete everything")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:           "reachctl",
		Short:         "Operator tool for the reach hydroline service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newResolveCmd(), newStageCmd(), newFlushCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
