package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect holds the SQL differences between the supported engines.
type Dialect struct {
	Name        string
	existsQuery string
	idColumn    string
	placeholder func(n int) string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		existsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		placeholder: func(int) string { return "?" },
	}

	Postgres = Dialect{
		Name:        "postgres",
		existsQuery: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`,
		idColumn:    "id BIGSERIAL PRIMARY KEY",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLTable stores rows in a SQL table with one TEXT column per record column
// plus a surrogate id that keeps insertion order.
type SQLTable[T Record] struct {
	db      *sql.DB
	dialect Dialect
	name    string
	columns []string
	decode  func([]string) T
}

func newSQLTable[T Record](db *sql.DB, dialect Dialect, name string, decode func([]string) T) (*SQLTable[T], error) {
	if !identifierPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	var zero T
	return &SQLTable[T]{
		db:      db,
		dialect: dialect,
		name:    name,
		columns: zero.Columns(),
		decode:  decode,
	}, nil
}

// NewSQLSubcategoryTable returns the subcategories table on db.
func NewSQLSubcategoryTable(db *sql.DB, dialect Dialect, name string) (*SQLTable[SubcategoryRow], error) {
	return newSQLTable(db, dialect, name, subcategoryRowFromValues)
}

// NewSQLProductTable returns the products table on db.
func NewSQLProductTable(db *sql.DB, dialect Dialect, name string) (*SQLTable[ProductRow], error) {
	return newSQLTable(db, dialect, name, productRowFromValues)
}

func (t *SQLTable[T]) Name() string {
	return t.name
}

func (t *SQLTable[T]) Exists(ctx context.Context) (bool, error) {
	var count int
	if err := t.db.QueryRowContext(ctx, t.dialect.existsQuery, t.name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", t.name, err)
	}
	return count > 0, nil
}

func (t *SQLTable[T]) CreateWithHeader(ctx context.Context) error {
	defs := make([]string, 0, len(t.columns)+1)
	defs = append(defs, t.dialect.idColumn)
	for _, col := range t.columns {
		defs = append(defs, fmt.Sprintf(`"%s" TEXT NOT NULL DEFAULT ''`, col))
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (%s)`, t.name, strings.Join(defs, ", "))
	if _, err := t.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.name, err)
	}
	return nil
}

func (t *SQLTable[T]) Append(ctx context.Context, rows []T) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, t.insertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.name, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		values := row.Values()
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", t.name, err)
	}
	return nil
}

func (t *SQLTable[T]) ReadAll(ctx context.Context) ([]T, error) {
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY id`, t.quotedColumns(), t.name)
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		values := make([]string, len(t.columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		result = append(result, t.decode(values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.name, err)
	}
	return result, nil
}

func (t *SQLTable[T]) insertQuery() string {
	placeholders := make([]string, len(t.columns))
	for i := range t.columns {
		placeholders[i] = t.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`, t.name, t.quotedColumns(), strings.Join(placeholders, ", "))
}

func (t *SQLTable[T]) quotedColumns() string {
	quoted := make([]string, len(t.columns))
	for i, col := range t.columns {
		quoted[i] = `"` + col + `"`
	}
	return strings.Join(quoted, ", ")
}
