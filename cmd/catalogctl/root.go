package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipico/catalog-backend/internal/backup"
	"github.com/sipico/catalog-backend/internal/config"
	"github.com/sipico/catalog-backend/internal/storage"
)

// options holds flag values shared by every subcommand.
type options struct {
	dbPath   string
	secret   string
	ttl      time.Duration
	timezone string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Operate a catalog backend database from the command line",
		Long: `catalogctl issues and checks admin tokens and manages catalog backups
directly against the SQLite database used by catalog-server.

Defaults come from the same environment variables and .env file as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default $DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.secret, "secret", "", "Token signing secret (default resolved like the server)")
	rootCmd.PersistentFlags().DurationVar(&opts.ttl, "ttl", 0, "Token lifetime (default $TOKEN_TTL or 720h)")
	rootCmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "", "IANA zone for default backup labels (default $DISPLAY_TIMEZONE)")

	rootCmd.AddCommand(newTokenCmd(opts))
	rootCmd.AddCommand(newBackupCmd(opts))
	rootCmd.AddCommand(newRestoreCmd(opts))

	return rootCmd
}

// load resolves the server configuration and applies flag overrides.
func (o *options) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.DatabasePath = o.dbPath
	}
	if o.secret != "" {
		cfg.TokenSecret = o.secret
		cfg.TokenSecretSource = config.SecretFromEnv
	}
	if o.ttl != 0 {
		cfg.TokenTTL = o.ttl
	}
	if o.timezone != "" {
		loc, err := time.LoadLocation(o.timezone)
		if err != nil {
			return fmt.Errorf("invalid --timezone %q: %w", o.timezone, err)
		}
		cfg.DisplayTimezone = o.timezone
		cfg.DisplayLocation = loc
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive, got %s", cfg.TokenTTL)
	}
	o.cfg = cfg
	return nil
}

// openServices opens the database and builds the backup services on it.
// The returned close function must be called when the command finishes.
func (o *options) openServices(stderr io.Writer) (*storage.SQLiteStorage, *backup.Builder, *backup.Restorer, func(), error) {
	store, err := storage.New(o.cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open database %s: %w", o.cfg.DatabasePath, err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	builder := backup.NewBuilder(store, store, store, o.cfg.DisplayLocation)
	restorer := backup.NewRestorer(builder, store, store, store, store, logger)
	return store, builder, restorer, func() { _ = store.Close() }, nil
}
