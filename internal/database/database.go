package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"docstack/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the metadata store. It is the sole arbiter of consistency for
// employee, folder, file and audit records; blob payloads live in the
// storage backend and are reconciled by the file catalog.
type Database struct {
	Pool *pgxpool.Pool
}

func NewDatabase() Database {
	return Database{Pool: nil}
}

// buildPoolConfig translates the configuration into pool settings: the
// open-connection cap becomes MaxConns and the idle target becomes
// MinConns, the floor of connections the pool keeps warm.
func buildPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	dsn := "host=" + cfg.Host +
		" port=" + strconv.Itoa(cfg.Port) +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.Name +
		" sslmode=" + cfg.SSLMode

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database configuration: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	return poolConfig, nil
}

func (db *Database) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return err
	}

	db.Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("unable to create database pool: %w", err)
	}

	return nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// rejection. Bootstrap racers and duplicate physical keys are detected
// through this rather than by locking.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Migrate creates the schema. Statements are idempotent so repeated runs
// (and racing replicas) are safe.
func (db *Database) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tbl_role (
			id UUID PRIMARY KEY,
			name VARCHAR(50) NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tbl_department (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tbl_employee (
			employee_id VARCHAR(20) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			department_id UUID REFERENCES tbl_department(id),
			role_id UUID NOT NULL REFERENCES tbl_role(id),
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tbl_folder (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			visibility VARCHAR(20) NOT NULL,
			department_id UUID REFERENCES tbl_department(id),
			employee_id VARCHAR(20) REFERENCES tbl_employee(employee_id),
			created_at TIMESTAMPTZ NOT NULL
		)`,
		// One logical folder per scope: a department has at most one
		// DEPARTMENT folder, an employee at most one PERSONAL folder, and
		// the company at most one COMPANY_POLICY folder. Racing creators
		// lose here, not in application code.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_folder_department
			ON tbl_folder (department_id) WHERE visibility = 'DEPARTMENT'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_folder_owner
			ON tbl_folder (employee_id) WHERE visibility = 'PERSONAL'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_folder_policy
			ON tbl_folder (visibility) WHERE visibility = 'COMPANY_POLICY'`,
		`CREATE TABLE IF NOT EXISTS tbl_file (
			id UUID PRIMARY KEY,
			folder_id UUID NOT NULL REFERENCES tbl_folder(id),
			file_name VARCHAR(255) NOT NULL,
			physical_key VARCHAR(255) NOT NULL UNIQUE,
			file_url VARCHAR(300) NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			uploader_id VARCHAR(20) NOT NULL REFERENCES tbl_employee(employee_id),
			uploaded_at TIMESTAMPTZ NOT NULL,
			last_opened_by VARCHAR(20) REFERENCES tbl_employee(employee_id),
			last_opened_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_file_folder ON tbl_file (folder_id)`,
		`CREATE TABLE IF NOT EXISTS tbl_audit_entry (
			id UUID PRIMARY KEY,
			actor_id VARCHAR(20),
			action VARCHAR(30) NOT NULL,
			entity_kind VARCHAR(30) NOT NULL,
			entity_id VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL,
			ip_address VARCHAR(45) NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_entity
			ON tbl_audit_entry (entity_kind, entity_id, occurred_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return nil
}
