package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"supplier-service/internal/config"

	"github.com/jmoiron/sqlx"
)

var DBStatus bool

// ConnectAndCreateDB connects to the maintenance database, creates the
// service database if it does not exist yet, then returns a sqlx handle
// bound to it. On a fresh database the bundled schema.sql is applied.
func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	slog.Info("Connecting to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"user", cfg.Username,
		"dbname", cfg.DBname)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		_, err = defaultDB.Exec(createQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		slog.Info("Database created successfully", "dbname", cfg.DBname)
	} else {
		slog.Info("Database already exists", "dbname", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	// Execute schema.sql if database was newly created
	if !exists {
		if err := executeSchema(db); err != nil {
			slog.Warn("Failed to execute schema.sql", "error", err)
			// Don't return error, just log warning to allow manual schema setup
		}
	}

	DBStatus = true
	return db, nil
}

// executeSchema reads and executes the schema.sql file
func executeSchema(db *sqlx.DB) error {
	// Find schema.sql file - check multiple possible locations
	schemaLocations := []string{
		"schema.sql",      // Current directory
		"./schema.sql",    // Relative to current directory
		"/app/schema.sql", // Docker container location
		filepath.Join(os.Getenv("PWD"), "schema.sql"), // Working directory
	}

	var schemaPath string
	var schemaContent []byte
	var err error

	for _, location := range schemaLocations {
		if _, err := os.Stat(location); err == nil {
			schemaPath = location
			break
		}
	}

	if schemaPath == "" {
		return fmt.Errorf("schema.sql not found in any expected locations: %v", schemaLocations)
	}

	schemaContent, err = os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql from %s: %w", schemaPath, err)
	}

	slog.Info("Executing schema", "path", schemaPath)

	// Split schema into individual statements (split by semicolon)
	statements := strings.Split(string(schemaContent), ";")

	successCount := 0
	for i, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" || strings.HasPrefix(statement, "--") {
			continue // Skip empty lines and comments
		}

		// Execute each statement, continue even if one fails
		_, err := db.Exec(statement)
		if err != nil {
			slog.Warn("Failed to execute schema statement",
				"index", i+1,
				"error", err,
				"statement", statement[:min(100, len(statement))])
		} else {
			successCount++
		}
	}

	slog.Info("Schema execution completed", "executed", successCount)
	return nil
}

// RetryConnectOnFailed keeps retrying the database connection until it
// succeeds, swapping the new handle into *db. Run it in a goroutine when
// the initial connect fails so the service can come up degraded.
func RetryConnectOnFailed(waitAmount time.Duration, db **sqlx.DB, cfg config.PostgresConfig) {
	if DBStatus {
		slog.Info("Database connection already established, abort retry")
		return
	}

	if *db != nil {
		curDB := *db
		if err := curDB.Ping(); err == nil {
			slog.Info("Database connection is healthy, no retry needed")
			return
		} else {
			slog.Warn("Failed to ping target database, retrying connection", "error", err)
		}
	} else {
		slog.Warn("Database connection is nil, attempting to reconnect")
	}

	newDB, err := ConnectAndCreateDB(cfg)
	if err == nil {
		*db = newDB
		slog.Info("Database retry connection succeeded")
		return
	}
	slog.Warn("Failed to reconnect to database", "error", err, "next_retry_in", waitAmount)
	time.Sleep(waitAmount)

	RetryConnectOnFailed(waitAmount, db, cfg)
}
