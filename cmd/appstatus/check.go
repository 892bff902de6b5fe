package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/appstatus/internal/aggregate"
	"github.com/hazz-dev/appstatus/internal/checker"
	"github.com/hazz-dev/appstatus/internal/config"
	"github.com/hazz-dev/appstatus/internal/status"
	"github.com/hazz-dev/appstatus/internal/store"
)

func executeCheck(cmd *cobra.Command, cfg *config.Config, outputDir string) error {
	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	ck := checker.NewChecker(cfg.Application.HostName, nil)
	return runChecks(cmd.OutOrStdout(), cfg, providers, ck, outputDir)
}

func runChecks(out io.Writer, cfg *config.Config, providers map[string]checker.StateProvider, ck *checker.Checker, outputDir string) error {
	results := make([]status.Record, len(cfg.Dependencies))
	var wg sync.WaitGroup

	for i, dep := range cfg.Dependencies {
		wg.Add(1)
		go func(i int, dep config.Dependency) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), dep.Timeout.Duration)
			defer cancel()
			results[i] = ck.Check(ctx, dep.Name, providers[dep.Name])
		}(i, dep)
	}
	wg.Wait()

	fresh := make(map[string]status.Record, len(results))
	for _, r := range results {
		fresh[r.ServiceName] = r
	}

	appStatus := aggregate.Status(cfg.DependencyNames(), fresh)
	appRecord, err := status.NewRecord(cfg.Application.Name, appStatus, ck.Host(), time.Now())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tPROVIDER\tSTATUS\tHOST")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ServiceName,
			cfg.Dependencies[i].Provider,
			r.Status,
			r.HostName,
		)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		appRecord.ServiceName,
		"aggregate",
		appRecord.Status,
		appRecord.HostName,
	)
	w.Flush()

	if outputDir != "" {
		fs, err := store.OpenFileStore(outputDir)
		if err != nil {
			return fmt.Errorf("opening output directory: %w", err)
		}
		defer fs.Close()
		ctx := context.Background()
		for _, r := range results {
			if _, err := fs.Append(ctx, r); err != nil {
				return fmt.Errorf("writing record for %s: %w", r.ServiceName, err)
			}
		}
		if _, err := fs.Append(ctx, appRecord); err != nil {
			return fmt.Errorf("writing record for %s: %w", appRecord.ServiceName, err)
		}
	}

	if appRecord.Status != status.Up {
		return fmt.Errorf("application %s is %s", appRecord.ServiceName, appRecord.Status)
	}
	return nil
}
