package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/appstatus/internal/query"
)

type statusService interface {
	Overview(ctx context.Context) (query.Overview, error)
}

func executeStatus(cmd *cobra.Command, svc statusService) error {
	out := cmd.OutOrStdout()
	ov, err := svc.Overview(context.Background())
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}

	if len(ov.Services) == 0 {
		fmt.Fprintln(out, "No status history. Run 'appstatus serve' or 'appstatus check' first.")
		return nil
	}

	names := make([]string, 0, len(ov.Services))
	for name := range ov.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tHOST\tLAST UPDATED")
	for _, name := range names {
		r := ov.Services[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ServiceName,
			r.Status,
			r.HostName,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d up, %d down\n", ov.Up, ov.Down)
	if len(ov.Attention) > 0 {
		fmt.Fprintf(out, "Needs attention: %s\n", strings.Join(ov.Attention, ", "))
	}
	return nil
}
