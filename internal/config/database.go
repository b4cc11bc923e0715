package config

import (
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DB is the global database instance
var DB *gorm.DB

// ConnectDatabase establishes the database connection and sets the global DB
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	// Configure GORM logger based on mode
	level := logger.Error
	if cfg.IsDev() {
		level = logger.Info
	}

	db, err := OpenDatabase(cfg.Database, logger.Default.LogMode(level))
	if err != nil {
		return nil, err
	}

	// Set global DB instance
	DB = db

	if cfg.Database.Driver == DriverSQLite {
		log.Printf("✅ Database connected successfully [sqlite:%s]", cfg.Database.SQLitePath)
	} else {
		log.Printf("✅ Database connected successfully [%s:%s/%s]",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.DBName,
		)
	}

	return db, nil
}

// OpenDatabase opens and pings a database without touching the global DB
func OpenDatabase(d DatabaseConfig, gormLogger logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch d.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(d.SQLitePath)
	case DriverMySQL, "":
		dialector = mysql.Open(buildDSN(d))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", d.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // Better performance
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	if d.Driver == DriverSQLite {
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// buildDSN returns the database connection string.
// clientFoundRows makes affected-row counts report matched rows.
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
