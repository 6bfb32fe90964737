package searchimpl

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

const createTableDDL = `
create table search_index (
    id         text,
    index_name text,
    content    text
)`

// Dialect covers the differences between backing stores reachable through database/sql.
type Dialect interface {
	Name() string
	// Placeholder responds the bind marker of the n-th parameter, starting from 1
	Placeholder(n int) string
	// ContainsFilter renders a substring match of the n-th parameter against the column
	ContainsFilter(column string, n int) string
	TableExists(ctx context.Context, db *sql.DB) (bool, error)
	CreateTable(ctx context.Context, db *sql.DB) error
	// IsTableExists reports whether a CreateTable error means another caller created the table first
	IsTableExists(err error) bool
	// IdentifierFilter renders a filter on the id column with the identifiers bound as
	// structured parameters, the first one at position start.
	IdentifierFilter(start int, identifiers []string) (string, []any)
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

type postgresDialect struct {
}

func (postgresDialect) Name() string {
	return "postgres"
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p postgresDialect) ContainsFilter(column string, n int) string {
	return column + " like '%' || " + p.Placeholder(n) + "::text || '%'"
}

func (postgresDialect) TableExists(ctx context.Context, db *sql.DB) (bool, error) {
	ormDb, err := orm(db)
	if err != nil {
		return false, err
	}
	return ormDb.WithContext(ctx).Migrator().HasTable(searchapi.TableName), nil
}

func (postgresDialect) CreateTable(ctx context.Context, db *sql.DB) error {
	ormDb, err := orm(db)
	if err != nil {
		return err
	}
	return ormDb.WithContext(ctx).Exec(createTableDDL).Error
}

// IsTableExists matches duplicate_table, and the catalog unique_violation raised when two
// sessions create the same table concurrently
func (postgresDialect) IsTableExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "42P07" || (pgErr.Code == "23505" && pgErr.ConstraintName == "pg_type_typname_nsp_index")
}

// IdentifierFilter binds the whole list as a single text[] parameter
func (p postgresDialect) IdentifierFilter(start int, identifiers []string) (string, []any) {
	return "id = any(" + p.Placeholder(start) + ")", []any{identifiers}
}

type sqliteDialect struct {
}

func (sqliteDialect) Name() string {
	return "sqlite"
}

func (sqliteDialect) Placeholder(int) string {
	return "?"
}

func (sqliteDialect) ContainsFilter(column string, _ int) string {
	return column + " like '%' || ? || '%'"
}

func (sqliteDialect) TableExists(ctx context.Context, db *sql.DB) (bool, error) {
	var cnt int
	row := db.QueryRowContext(ctx, "select count(*) from sqlite_master where type = 'table' and name = ?", searchapi.TableName)
	if err := row.Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (sqliteDialect) CreateTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, createTableDDL)
	return err
}

func (sqliteDialect) IsTableExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "table "+searchapi.TableName+" already exists")
}

// IdentifierFilter binds one parameter per identifier since sqlite has no array type
func (sqliteDialect) IdentifierFilter(_ int, identifiers []string) (string, []any) {
	marks := make([]string, 0, len(identifiers))
	args := make([]any, 0, len(identifiers))
	for _, id := range identifiers {
		marks = append(marks, "?")
		args = append(args, id)
	}
	return "id in (" + strings.Join(marks, ", ") + ")", args
}
