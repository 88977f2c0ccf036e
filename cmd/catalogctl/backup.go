package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipico/catalog-backend/internal/storage"
)

func newBackupCmd(opts *options) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, download and delete catalog backups",
	}
	backupCmd.AddCommand(
		newBackupCreateCmd(opts),
		newBackupListCmd(opts),
		newBackupDownloadCmd(opts),
		newBackupDeleteCmd(opts),
	)
	return backupCmd
}

func newBackupCreateCmd(opts *options) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the live catalog into a new backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, builder, _, closeFn, err := opts.openServices(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := builder.CreateLabeledBackup(cmd.Context(), label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created backup %d %q (%d products)\n", summary.ID, summary.Label, summary.RecordCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Backup label (default \"Backup <local time>\")")
	return cmd
}

func newBackupListCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, closeFn, err := opts.openServices(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			backups, err := store.ListBackups(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRODUCTS\tCREATED\tLABEL")
			for _, b := range backups {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.ID, b.RecordCount, b.CreatedAt.In(opts.cfg.DisplayLocation).Format(time.DateTime), b.Label)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultBackupListLimit, "Maximum number of backups to list")
	return cmd
}

func newBackupDownloadCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download [ID]",
		Short: "Write a stored backup, or a live snapshot when ID is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseBackupID(args[0]); err != nil {
					return err
				}
			}

			_, builder, _, closeFn, err := opts.openServices(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			data, err := builder.Download(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("backup %d not found", id)
				}
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newBackupDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBackupID(args[0])
			if err != nil {
				return err
			}

			store, _, _, closeFn, err := opts.openServices(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.DeleteBackup(cmd.Context(), id); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("backup %d not found", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted backup %d\n", id)
			return nil
		},
	}
}

func parseBackupID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid backup ID %q", s)
	}
	return id, nil
}
