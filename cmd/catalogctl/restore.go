package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipico/catalog-backend/internal/backup"
)

func newRestoreCmd(opts *options) *cobra.Command {
	var (
		file             string
		backupID         int64
		skipConfirmation bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the live catalog with a backup",
		Long: `Replace every product and the site settings with the contents of a
stored backup (--id) or a snapshot file (--file).

A safety snapshot of the current catalog is stored before anything changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "-" && !skipConfirmation {
				return errors.New("--yes is required when the snapshot is read from stdin")
			}

			src := backup.Source{BackupID: backupID}
			if file != "" {
				data, err := readSnapshotFile(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				src.Uploaded = data
			}

			if !skipConfirmation {
				what := fmt.Sprintf("backup %d", backupID)
				if file != "" {
					what = file
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "About to replace the catalog in %s with %s.\n", opts.cfg.DatabasePath, what)
				if !confirmAction(cmd.InOrStdin(), cmd.ErrOrStderr(), "Do you want to continue?") {
					fmt.Fprintln(cmd.ErrOrStderr(), "Restore cancelled")
					return nil
				}
			}

			_, _, restorer, closeFn, err := opts.openServices(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := restorer.Restore(cmd.Context(), src)
			if err != nil {
				var rerr *backup.RestoreError
				if errors.As(err, &rerr) && rerr.Kind == backup.KindPartialFailure {
					fmt.Fprintf(cmd.ErrOrStderr(), "live catalog unchanged; %d products were staged before batch %d failed\n", rerr.Inserted, rerr.Batch)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "restored %d products in %d batches (safety snapshot %d)\n",
				result.RestoredCount, result.Batches, result.SafetyBackupID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Snapshot JSON file to restore (- for stdin)")
	cmd.Flags().Int64Var(&backupID, "id", 0, "Stored backup ID to restore")
	cmd.Flags().BoolVarP(&skipConfirmation, "yes", "y", false, "Skip the confirmation prompt")
	cmd.MarkFlagsOneRequired("file", "id")
	cmd.MarkFlagsMutuallyExclusive("file", "id")

	return cmd
}

// readSnapshotFile reads a snapshot from path, or from stdin when path is "-".
// Only the JSON syntax is checked here; the restorer validates the contents.
func readSnapshotFile(stdin io.Reader, path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", path, backup.ErrInvalidFormat)
	}
	return data, nil
}

func confirmAction(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s (y/N): ", message)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
