package cmd

import (
	"fmt"
	"io"

	"github.com/javi11/remotefile/internal/adapters/aferofs"
	"github.com/spf13/cobra"
)

func init() {
	catCmd := &cobra.Command{
		Use:   "cat URL...",
		Short: "Print remote files to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCat,
	}

	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	fsys := aferofs.New(e.router, e.fileOptions(ctx)...)
	for _, name := range args {
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}

		_, err = io.Copy(cmd.OutOrStdout(), f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("cat %s: %w", name, err)
		}
	}

	return nil
}
