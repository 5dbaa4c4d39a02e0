package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"grid-ingest-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded observation schema files.
// Every file is written to be idempotent, so reruns on an already
// migrated database are safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
