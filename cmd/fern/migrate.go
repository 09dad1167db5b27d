package main

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the resolution audit log migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().String("path", "", "migration folder (default DB_MIGRATION_FOLDER_PATH)")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, syncLogs, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogs()

	migration := cfg.Migration()
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		migration.MigrationFolderPath = path
	}

	ctx := cmd.Context()
	db, err := database.Connect(ctx, cfg.Database(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return database.NewMigrationService(logger, migration).MigratePostgres(db.Unwrap(), cfg.DatabaseName)
}
