package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <reference>...",
	Short: "Resolve image references and report where each one ends up",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	prober := resolver.NewHTTPProber(nil, cfg.Resolver.UserAgent)
	defer prober.Close()

	res := resolver.New(prober, resolver.Config{
		Timeout:     cfg.Resolver.Timeout,
		Placeholder: cfg.Resolver.Placeholder,
		SizeHint:    cfg.Resolver.SizeHint,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	handles := make([]*resolver.Handle, len(args))
	for i, ref := range args {
		handles[i] = res.Resolve(ctx, domain.ImageReference(ref), fmt.Sprintf("probe %d", i+1))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tFORM\tSTATUS\tOUTCOME\tREWRITES\tSOURCE")
	for _, h := range handles {
		r, err := h.Wait(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.Original, domain.Classify(r.Original), r.Status, r.Outcome, r.Rewrites, r.Source)
	}
	return w.Flush()
}
