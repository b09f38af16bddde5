package cmd

import (
	"fmt"

	"github.com/javi11/remotefile/pkg/remotefile"
	"github.com/javi11/remotefile/pkg/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const statConcurrency = 8

func init() {
	statCmd := &cobra.Command{
		Use:   "stat URL...",
		Short: "Print the size of remote files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStat,
	}

	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}

	type result struct {
		size int64
		ok   bool
	}
	results := make([]result, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(statConcurrency)

	for i, name := range args {
		g.Go(func() error {
			f, err := remotefile.OpenFile(e.router, name, storage.OpenRead, 0, e.fileOptions(ctx)...)
			if err != nil {
				return err
			}
			defer f.Close()

			size, err := f.Size()
			if err != nil {
				return err
			}
			results[i] = result{size: size, ok: true}
			return nil
		})
	}

	err = g.Wait()

	// Sizes are printed in argument order, up to the first failure.
	for i, name := range args {
		if !results[i].ok {
			break
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", results[i].size, name)
	}

	return err
}
