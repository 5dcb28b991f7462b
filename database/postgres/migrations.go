package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lockbox"
)

// column is one expected column of the items table as reported by
// information_schema.
type column struct {
	dataType string
	nullable bool
}

// itemsColumns mirrors the CREATE TABLE statement in createItemsTable.
var itemsColumns = map[string]column{
	"key":        {dataType: "text"},
	"value":      {dataType: "text"},
	"updated_at": {dataType: "timestamp with time zone"},
}

// itemsColumnOrder fixes the order problems are reported in.
var itemsColumnOrder = []string{"key", "value", "updated_at"}

func createItemsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	if !lockbox.IsValidTableName(tableName) {
		return fmt.Errorf("create items table: invalid table name: %s", tableName)
	}

	quotedTable := pgx.Identifier{tableName}.Sanitize()

	// text_pattern_ops lets LIKE 'prefix%' use the index under any collation
	indexPrefix := pgx.Identifier{fmt.Sprintf("idx_%s_key_prefix", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s ON %s (key text_pattern_ops);
	`, quotedTable, indexPrefix, quotedTable)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create items table %s: %w", tableName, err)
	}

	return nil
}

// validateItemsTable checks the items table exists in the current schema and
// carries every expected column. Extra columns are allowed.
func validateItemsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	if !lockbox.IsValidTableName(tableName) {
		return fmt.Errorf("validate %s: invalid table name", tableName)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tableName)
	if err != nil {
		return fmt.Errorf("validate %s: %w", tableName, err)
	}

	actual := make(map[string]column)
	var (
		name string
		got  column
	)
	_, err = pgx.ForEachRow(rows, []any{&name, &got.dataType, &got.nullable}, func() error {
		actual[name] = got
		return nil
	})
	if err != nil {
		return fmt.Errorf("validate %s: %w", tableName, err)
	}

	if len(actual) == 0 {
		return fmt.Errorf("validate %s: table does not exist", tableName)
	}

	var missing []string
	var problems []error
	for _, col := range itemsColumnOrder {
		want := itemsColumns[col]
		have, ok := actual[col]
		switch {
		case !ok:
			missing = append(missing, col)
		case have.dataType != want.dataType:
			problems = append(problems, fmt.Errorf("column %s: type %s, want %s", col, have.dataType, want.dataType))
		case have.nullable != want.nullable:
			problems = append(problems, fmt.Errorf("column %s: nullable %v, want %v", col, have.nullable, want.nullable))
		}
	}

	if len(missing) > 0 {
		problems = append([]error{fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}, problems...)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("validate %s: %w", tableName, errors.Join(problems...))
}
