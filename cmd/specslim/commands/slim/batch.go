package slim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/internal/sliceutil"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch <profile>...",
	Short: "Run several shortening profiles concurrently",
	Long: `Run every given profile as if by shorten, several at a time.

Source documents shared between profiles are parsed once and kept in a cache.
A failing profile does not stop the others; every failure is reported at the end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntP("concurrency", "c", 0, "profiles processed at once")
	batchCmd.Flags().Int("cache-size", 0, "parsed source documents kept in memory")
	batchCmd.Flags().String("jsonpath-version", "", "JSONPath dialect for profiles that do not set one: rfc9535 or legacy")
}

func runBatch(cmd *cobra.Command, args []string) error {
	p := newProcessor(cmd)

	start := time.Now()
	if err := batch(cmd.Context(), p, args); err != nil {
		return err
	}
	p.reportElapsed("Batch", start)

	return nil
}

func batch(ctx context.Context, p *Processor, profiles []string) error {
	cache, err := document.NewCache(&document.FSLoader{FS: p.FS}, p.Settings.CacheSize)
	if err != nil {
		return err
	}

	errs := make([]error, len(profiles))

	var g errgroup.Group
	g.SetLimit(p.Settings.Concurrency)
	for i, path := range profiles {
		g.Go(func() error {
			if _, err := shortenProfile(ctx, p, cache, path); err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed := sliceutil.Filter(errs, func(err error) bool { return err != nil }); len(failed) > 0 {
		return fmt.Errorf("%d of %d profiles failed: %w", len(failed), len(profiles), errors.Join(failed...))
	}

	p.PrintSuccess(fmt.Sprintf("Processed %d profiles, %d source documents cached", len(profiles), cache.Len()))
	return nil
}
