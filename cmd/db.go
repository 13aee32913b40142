package cmd

import (
	"fmt"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/core/datamodel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// sqlDriverName maps the configured driver to its database/sql name.
func sqlDriverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}

// initDB opens the shared connection pool used by both sqlx and GORM.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := sqlDriverName(cfg.Driver)

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One writer; also keeps :memory: databases on a single connection.
		dbConn.SetMaxOpenConns(1)
	} else {
		dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm wraps the sqlx pool in GORM and runs AutoMigrate when configured.
func initGorm(cfg internal.DatabaseConfig, db *sqlx.DB, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.New(sqlite.Config{Conn: db.DB})
	default:
		dialector = postgres.New(postgres.Config{Conn: db.DB})
	}

	level := gormLogger.Warn
	if debug {
		level = gormLogger.Info
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	if cfg.AutoMigrate {
		if err := gdb.AutoMigrate(datamodel.All()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return gdb, nil
}
