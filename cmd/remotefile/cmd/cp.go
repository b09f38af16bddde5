package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/javi11/remotefile/pkg/remotefile"
	"github.com/javi11/remotefile/pkg/storage"
	"github.com/spf13/cobra"
)

var cpNoClobber bool

func init() {
	cpCmd := &cobra.Command{
		Use:   "cp SRC DST",
		Short: "Copy a remote file to another location",
		Long: `Copy SRC to DST. Both are endpoint URLs and may use different schemes.
DST is created along with any missing parent path; an existing DST is
replaced unless --no-clobber is given.`,
		Args: cobra.ExactArgs(2),
		RunE: runCp,
	}
	cpCmd.Flags().BoolVarP(&cpNoClobber, "no-clobber", "n", false, "fail if DST already exists")

	rootCmd.AddCommand(cpCmd)
}

func runCp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	opts := e.fileOptions(ctx)

	src, err := remotefile.OpenFile(e.router, args[0], storage.OpenRead, 0, opts...)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := remotefile.CreateFile(e.router, args[1], cpNoClobber, 0o644, opts...)
	if err != nil {
		return err
	}

	n, err := copyFile(dst, src, e.config.GetConfig().Transfer.MaxChunkSize)
	if err != nil {
		dst.Abort()
		return fmt.Errorf("cp %s %s: %w", args[0], args[1], err)
	}

	// Close uploads staged objects; its failures are only logged.
	_ = dst.Close()

	e.log.InfoContext(ctx, "Copied", "src", args[0], "dst", args[1], "bytes", n)

	return nil
}

// copyFile streams src into dst through a bufSize buffer.
func copyFile(dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	buf := make([]byte, bufSize)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
