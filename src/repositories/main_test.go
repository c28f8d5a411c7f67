package repositories_test

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"portfolio/migrations"
	"portfolio/src/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *pgxpool.Pool

// TestMain starts a disposable Postgres, applies the migrations and shares the pool across tests.
// Without Docker every test in the package is skipped.
func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	container, dsn, err := startPostgres(ctx)
	if err != nil {
		log.Println("postgres container unavailable, skipping repository tests:", err)
		os.Exit(m.Run())
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		sqlDB, err := migrations.OpenSQLDB(dsn)
		if err != nil {
			log.Println(err)
			return 1
		}
		defer sqlDB.Close()
		if err := migrations.Up(sqlDB); err != nil {
			log.Println(err)
			return 1
		}

		testDB, err = database.Connect(ctx, dsn)
		if err != nil {
			log.Println(err)
			return 1
		}
		defer testDB.Close()

		return m.Run()
	}()
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	if testing.Short() {
		return nil, "", fmt.Errorf("short mode")
	}

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "portfolio_test",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}

	dsn := fmt.Sprintf("host=%s user=postgres password=postgres dbname=portfolio_test port=%s sslmode=disable", host, port.Port())
	return container, dsn, nil
}

// setupTest skips when no database is available and truncates every table once the test is done.
func setupTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDB == nil {
		t.Skip("no test database available")
	}

	t.Cleanup(func() {
		_, err := testDB.Exec(context.Background(),
			"TRUNCATE TABLE historical_records, securities, users, reconciliation_runs RESTART IDENTITY CASCADE")
		if err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
	})
	return testDB
}
