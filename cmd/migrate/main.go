package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"openlang/backend/internal/config"
	"openlang/backend/internal/domain"
	"openlang/backend/internal/logger"
	sqlstore "openlang/backend/internal/storage/sql"
)

var (
	dbType string
	dbDSN  string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the form submission tables",
	Long: `migrate creates or updates the contact_submissions, panel_registrations,
voicera_interest_leads and inquiries tables.

Connection settings default to OPENLANG_DATABASE_TYPE and OPENLANG_DATABASE_DSN
and can be overridden with flags.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().StringVar(&dbType, "type", "", "database type: postgres, mysql or pgx")
	rootCmd.Flags().StringVar(&dbDSN, "dsn", "", "database connection string")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	log, err := logger.NewLogger(logger.Config{Level: "info", Development: true})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if dbType == "" || dbDSN == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbType == "" {
			dbType = cfg.Database.Type
		}
		if dbDSN == "" {
			dbDSN = cfg.Database.DSN
		}
	}

	driver := dbType
	// pgx 存储使用同一套表结构，迁移走 GORM 的 PostgreSQL 方言
	if driver == "pgx" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "mysql" {
		return fmt.Errorf("unsupported database type %q (supported: postgres, mysql, pgx)", dbType)
	}

	store, err := sqlstore.NewStore(driver, dbDSN, 2, 1, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("connected to database", zap.String("type", driver))

	if err := store.Migrate(); err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}

	for _, model := range domain.AllRecords() {
		if rec, ok := model.(domain.Record); ok {
			log.Info("table ready", zap.String("table", rec.TableName()))
		}
	}
	cmd.Println("migration completed")
	return nil
}
