package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/lockbox"
)

// column is one expected column of the items table.
type column struct {
	name     string
	declType string
	notNull  bool
}

// itemsColumns mirrors the CREATE TABLE statement in createItemsTable.
var itemsColumns = []column{
	{name: "key", declType: "text", notNull: true},
	{name: "value", declType: "text", notNull: true},
	{name: "updated_at", declType: "text", notNull: true},
}

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createItemsTable creates the items table if it does not exist yet.
func createItemsTable(ctx context.Context, db *sql.DB, tableName string) error {
	if !lockbox.IsValidTableName(tableName) {
		return fmt.Errorf("create items table: invalid table name: %s", tableName)
	}

	// key is the primary key, so ORDER BY key walks the index
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`, quoteIdentifier(tableName))

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create items table %s: %w", tableName, err)
	}
	return nil
}

// validateItemsTable checks the items table exists and carries every
// expected column with the expected type and nullability. Extra columns are
// allowed.
func validateItemsTable(ctx context.Context, db *sql.DB, tableName string) error {
	if !lockbox.IsValidTableName(tableName) {
		return fmt.Errorf("validate %s: invalid table name", tableName)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return fmt.Errorf("validate %s: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]column)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return fmt.Errorf("validate %s: scan column: %w", tableName, err)
		}
		actual[name] = column{name: name, declType: strings.ToLower(typ), notNull: notNull == 1}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate %s: %w", tableName, err)
	}

	// PRAGMA table_info returns no rows for an unknown table
	if len(actual) == 0 {
		return fmt.Errorf("validate %s: table does not exist", tableName)
	}

	return compareColumns(tableName, itemsColumns, actual)
}

func compareColumns(tableName string, want []column, actual map[string]column) error {
	var missing []string
	var problems []error

	for _, w := range want {
		got, ok := actual[w.name]
		switch {
		case !ok:
			missing = append(missing, w.name)
		case got.declType != w.declType:
			problems = append(problems, fmt.Errorf("column %s: type %s, want %s", w.name, got.declType, w.declType))
		case got.notNull != w.notNull:
			problems = append(problems, fmt.Errorf("column %s: not null %v, want %v", w.name, got.notNull, w.notNull))
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
