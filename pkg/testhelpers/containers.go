// Package testhelpers provides shared fixtures for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image used for integration-test databases.
const PostgresImage = "postgres:16-alpine"

// TestDB holds a shared test database container and connection pool.
// The financial tables are created and seeded on first use.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "finlens_test",
			"POSTGRES_USER":     "finlens",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://finlens:test_password@%s:%s/finlens_test?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := seedFinancialTables(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to seed financial tables: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

func seedFinancialTables(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS general_ledger (
			txn_date date NOT NULL,
			account_type text NOT NULL,
			account_name text,
			debit numeric NOT NULL DEFAULT 0,
			credit numeric NOT NULL DEFAULT 0,
			customer text,
			vendor text,
			memo text
		)`,
		`CREATE TABLE IF NOT EXISTS ar_aging_detail (
			customer text NOT NULL,
			open_balance numeric NOT NULL DEFAULT 0,
			due_date date,
			status text
		)`,
		`CREATE TABLE IF NOT EXISTS ap_aging (
			vendor text NOT NULL,
			open_balance numeric NOT NULL DEFAULT 0,
			due_date date,
			status text
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			payee text,
			total_amount numeric NOT NULL DEFAULT 0,
			payment_date date,
			method text
		)`,
		`CREATE TABLE IF NOT EXISTS payroll_submissions (
			employee text,
			total_amount numeric NOT NULL DEFAULT 0,
			pay_date date,
			status text
		)`,
		`TRUNCATE general_ledger, ar_aging_detail, ap_aging, payments, payroll_submissions`,
		`INSERT INTO general_ledger (txn_date, account_type, account_name, debit, credit, customer, vendor) VALUES
			(date_trunc('year', now())::date + 10, 'Income', 'Consulting Revenue', 0, 12000, 'Acme Corp', NULL),
			(date_trunc('year', now())::date + 40, 'Income', 'Consulting Revenue', 500, 8500, 'Globex', NULL),
			(date_trunc('year', now())::date + 40, 'Sales', 'Product Sales', 0, 4000, 'Initech', NULL),
			(date_trunc('year', now())::date + 70, 'Expense', 'Office Rent', 3000, 0, NULL, 'Brickyard LLC'),
			(date_trunc('year', now())::date + 70, 'Cost of Goods Sold', 'Materials', 2200, 100, NULL, 'Supply Co'),
			(date_trunc('year', now())::date - 20, 'Income', 'Consulting Revenue', 0, 9999, 'Last Year Inc', NULL)`,
		`INSERT INTO ar_aging_detail (customer, open_balance, due_date, status) VALUES
			('Acme Corp', 5000, now()::date - 15, 'pending'),
			('Globex', 2500, now()::date + 30, 'approved'),
			('Initech', 0, now()::date - 5, 'paid')`,
		`INSERT INTO ap_aging (vendor, open_balance, due_date, status) VALUES
			('Brickyard LLC', 3000, now()::date + 10, 'pending'),
			('Supply Co', 1200, now()::date - 3, 'approved')`,
		`INSERT INTO payments (payee, total_amount, payment_date, method) VALUES
			('Brickyard LLC', 3000, now()::date - 40, 'ach'),
			('Acme Corp', 7000, now()::date - 35, 'check')`,
		`INSERT INTO payroll_submissions (employee, total_amount, pay_date, status) VALUES
			('Dana Fuentes', 6400, now()::date - 14, 'paid'),
			('Lee Park', 5900, now()::date, 'pending')`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement failed: %w", err)
		}
	}
	return nil
}
