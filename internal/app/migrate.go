package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/videohub/backend/internal/config"
)

const connectMaxElapsed = 30 * time.Second

var retryablePgErrorCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57P03": {}, // cannot_connect_now
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	dir, err := absPath(cfg.MigrationDir)
	if err != nil {
		return err
	}

	sqlDB, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	switch command {
	case "up", "":
		if err := migrator.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("no migrations to apply")
				return nil
			}
			return fmt.Errorf("apply migrations: %w", err)
		}
		return printVersion(migrator)
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
		}
		if err := migrator.Steps(-steps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
				fmt.Println("no migrations to roll back")
				return nil
			}
			return fmt.Errorf("roll back migrations: %w", err)
		}
		return printVersion(migrator)
	case "status":
		version, dirty, err := currentVersion(migrator)
		if err != nil {
			return err
		}
		files, err := migrationFiles(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			mark := " "
			if f.Version <= version {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, f.Name)
		}
		if dirty {
			fmt.Printf("database is dirty at version %d\n", version)
		}
		return nil
	case "version":
		return printVersion(migrator)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func currentVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

func printVersion(m *migrate.Migrate) error {
	version, dirty, err := currentVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Printf("schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Printf("schema version %d\n", version)
	return nil
}

type migrationFile struct {
	Version uint
	Name    string
}

// migrationFiles lists the up migrations in dir ordered by version.
func migrationFiles(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, migrationFile{Version: uint(version), Name: name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// openDatabase connects through lib/pq, retrying while the server is starting up.
func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectMaxElapsed
	err = backoff.RetryNotify(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			if !shouldRetryConnect(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		fmt.Fprintf(os.Stderr, "database not ready, retrying in %s: %v\n", wait.Round(time.Millisecond), err)
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return sqlDB, nil
}

// shouldRetryConnect treats transport failures and transient server states as retryable.
// Other server errors, such as bad credentials, are final.
func shouldRetryConnect(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := retryablePgErrorCodes[pqErr.Code]
		return ok
	}
	return true
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := absPath(cfg.SeedDir)
	if err != nil {
		return err
	}
	seedName := seedFileName(args[0])
	contents, err := os.ReadFile(filepath.Join(dir, seedName))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", seedName, err)
	}

	sqlDB, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", seedName, err)
	}

	fmt.Printf("applied seed %s\n", seedName)
	return nil
}

func seedFileName(name string) string {
	if strings.HasSuffix(name, ".sql") {
		return name
	}
	return name + "_seed.sql"
}
