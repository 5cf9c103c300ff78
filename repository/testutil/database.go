package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"santa/database"
)

// TestDatabase is a migrated postgres shared by every test in a package
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

var (
	shared   *TestDatabase
	startErr error
	start    sync.Once
)

// Main starts the shared container, runs the package tests and tears the
// container down. Call it from TestMain.
func Main(m *testing.M) {
	code := m.Run()
	if shared != nil {
		shared.terminate()
	}
	os.Exit(code)
}

// SetupTestDatabase returns the shared database with the users table emptied.
// The container is started on first use.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	start.Do(func() {
		shared, startErr = startDatabase(context.Background())
	})
	require.NoError(t, startErr, "failed to start test database")

	shared.Reset(t)
	return shared
}

func startDatabase(ctx context.Context) (*TestDatabase, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("santa_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	td := &TestDatabase{Container: container}

	td.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		td.terminate()
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := migrateSchema(td.URL); err != nil {
		td.terminate()
		return nil, err
	}

	td.DB, err = database.NewConnection(ctx, td.URL, database.PoolOptions{MaxConns: 4})
	if err != nil {
		td.terminate()
		return nil, err
	}

	return td, nil
}

// migrateSchema applies the embedded migrations before any pool is opened
func migrateSchema(url string) error {
	migrator, err := database.NewMigrator(url)
	if err != nil {
		return err
	}
	defer migrator.Close()

	_, err = migrator.Up()
	return err
}

// Reset removes every participant and restarts the insertion sequence
func (td *TestDatabase) Reset(t *testing.T) {
	t.Helper()
	_, err := td.DB.Exec(context.Background(), "TRUNCATE users RESTART IDENTITY")
	require.NoError(t, err)
}

func (td *TestDatabase) terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to terminate test container: %v\n", err)
		}
	}
}
