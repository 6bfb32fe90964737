package searchimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxIdleConns:    2,
		MaxOpenConns:    10,
		ConnMaxIdleTime: time.Hour,
	}
}

// SqlAdapter stores every logical index in the search_index table of a database/sql handle.
type SqlAdapter struct {
	db      *sql.DB
	dialect Dialect
	opt     Options
	stmts   statements

	// owned marks the handle as opened by the adapter, so Close releases it
	owned bool
}

var _ searchapi.Adapter = new(SqlAdapter)

// NewSqlAdapter borrows an existing handle. Close will not close it.
func NewSqlAdapter(db *sql.DB, dialect Dialect, opt Options) *SqlAdapter {
	return &SqlAdapter{
		db:      db,
		dialect: dialect,
		opt:     opt,
		stmts:   newStatements(dialect),
	}
}

func NewPostgresAdapter(pgUrl string, opt Options) (*SqlAdapter, error) {
	conf, err := pgx.ParseConfig(pgUrl)
	if err != nil {
		return nil, err
	}
	connector := stdlib.GetConnector(*conf)
	db := sql.OpenDB(connector)

	a := NewSqlAdapter(db, Postgres, opt)
	a.owned = true
	return a, nil
}

// NewSqliteAdapter opens the sqlite database at dsn.
// An in-memory database only lives inside one connection, so the pool is pinned to it.
func NewSqliteAdapter(dsn string, opt Options) (*SqlAdapter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		opt.MaxOpenConns = 1
		opt.MaxIdleConns = 1
		opt.ConnMaxIdleTime = 0
	}

	a := NewSqlAdapter(db, SQLite, opt)
	a.owned = true
	return a, nil
}

func (s *SqlAdapter) Startup() error {
	s.db.SetMaxIdleConns(s.opt.MaxIdleConns)
	s.db.SetMaxOpenConns(s.opt.MaxOpenConns)
	s.db.SetConnMaxIdleTime(s.opt.ConnMaxIdleTime)
	return s.db.Ping()
}

func (s *SqlAdapter) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SqlAdapter) Dialect() Dialect {
	return s.dialect
}

func (s *SqlAdapter) Setup(ctx context.Context) error {
	exists, err := s.dialect.TableExists(ctx, s.db)
	if err != nil {
		return searchapi.StorageFailure("check schema", err)
	}
	if exists {
		return searchapi.ErrSchemaAlreadyExists
	}
	if err := s.dialect.CreateTable(ctx, s.db); err != nil {
		if s.dialect.IsTableExists(err) {
			return searchapi.ErrSchemaAlreadyExists
		}
		return searchapi.StorageFailure("create schema", err)
	}
	return nil
}

func (s *SqlAdapter) GetIndex(name string) searchapi.Index {
	return &SqlIndex{
		name:    name,
		db:      s.db,
		dialect: s.dialect,
		stmts:   s.stmts,
	}
}

// SqlIndex is one logical index, selected by the index_name column.
type SqlIndex struct {
	name    string
	db      *sql.DB
	dialect Dialect
	stmts   statements
}

var _ searchapi.Index = new(SqlIndex)

func (s *SqlIndex) Name() string {
	return s.name
}

func (s *SqlIndex) Query(ctx context.Context, q searchapi.Query) (*searchapi.QueryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.stmts.query, s.name, q.SearchString, q.Limit, q.Offset)
	if err != nil {
		return nil, searchapi.StorageFailure("query", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var results []searchapi.Result
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, searchapi.StorageFailure("query scan", err)
		}
		doc, err := documentFromRow(id, content, q.AttributeNamesToRetrieve)
		if err != nil {
			return nil, err
		}
		results = append(results, searchapi.Result{Document: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, searchapi.StorageFailure("query", err)
	}
	return searchapi.NewQueryResult(q, results), nil
}

func (s *SqlIndex) FindByIdentifier(ctx context.Context, identifier string) (*searchapi.Document, error) {
	var id, content string
	row := s.db.QueryRowContext(ctx, s.stmts.findById, s.name, identifier)
	if err := row.Scan(&id, &content); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, searchapi.StorageFailure("find by identifier", err)
	}
	return documentFromRow(id, content, nil)
}

func (s *SqlIndex) Index(ctx context.Context, documents ...*searchapi.Document) (searchapi.OperationResult, error) {
	// encode everything before the first write, a bad document must not leave a partial batch behind
	rows, err := encodeDocuments(documents)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		r, err := s.db.ExecContext(ctx, s.stmts.insert, row.Identifier, s.name, row.Content)
		if err != nil {
			return nil, searchapi.StorageFailure("insert", err)
		}
		if n, err := r.RowsAffected(); err != nil {
			return nil, searchapi.StorageFailure("insert", err)
		} else if n != 1 {
			return nil, searchapi.StorageFailure("insert", fmt.Errorf("unexpected number of rows affected: %d", n))
		}
	}
	return searchapi.SynchronousResult(true), nil
}

func (s *SqlIndex) Delete(ctx context.Context, identifiers ...string) (searchapi.OperationResult, error) {
	ids := uniqueIdentifiers(identifiers)
	if len(ids) == 0 {
		return searchapi.SynchronousResult(true), nil
	}
	filter, args := s.dialect.IdentifierFilter(2, ids)
	stmt := s.stmts.deleteByIndex + " and " + filter
	if _, err := s.db.ExecContext(ctx, stmt, append([]any{s.name}, args...)...); err != nil {
		return nil, searchapi.StorageFailure("delete", err)
	}
	return searchapi.SynchronousResult(true), nil
}

func (s *SqlIndex) Purge(ctx context.Context) (searchapi.OperationResult, error) {
	if _, err := s.db.ExecContext(ctx, s.stmts.deleteByIndex, s.name); err != nil {
		return nil, searchapi.StorageFailure("purge", err)
	}
	return searchapi.SynchronousResult(true), nil
}
