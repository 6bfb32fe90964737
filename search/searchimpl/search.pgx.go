package searchimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

// PgxAdapter is the pgx native variant of the postgres backing store.
// It shares the statements of the Postgres dialect and keeps its own connection pool.
// Startup must be called before the adapter or any of its indexes touch the store.
type PgxAdapter struct {
	connString string

	p     *pgxpool.Pool
	stmts statements
}

var _ searchapi.Adapter = new(PgxAdapter)

var ErrNotStarted = errors.New("adapter is not started")

func NewPgxAdapter(connString string) *PgxAdapter {
	return &PgxAdapter{
		connString: connString,
		stmts:      newStatements(Postgres),
	}
}

func (d *PgxAdapter) Startup() error {
	c, err := pgxpool.ParseConfig(d.connString)
	if err != nil {
		return err
	}
	p, err := pgxpool.NewWithConfig(context.Background(), c)
	if err != nil {
		return err
	}
	d.p = p
	return nil
}

func (d *PgxAdapter) Stop() error {
	if d.p != nil {
		d.p.Close()
	}
	return nil
}

func (d *PgxAdapter) pool(op string) (*pgxpool.Pool, error) {
	if d.p == nil {
		return nil, searchapi.StorageFailure(op, ErrNotStarted)
	}
	return d.p, nil
}

func (d *PgxAdapter) Setup(ctx context.Context) error {
	p, err := d.pool("check schema")
	if err != nil {
		return err
	}
	var exists bool
	if err := p.QueryRow(ctx, "select to_regclass($1) is not null", searchapi.TableName).Scan(&exists); err != nil {
		return searchapi.StorageFailure("check schema", err)
	}
	if exists {
		return searchapi.ErrSchemaAlreadyExists
	}
	if _, err := p.Exec(ctx, createTableDDL); err != nil {
		if Postgres.IsTableExists(err) {
			return searchapi.ErrSchemaAlreadyExists
		}
		return searchapi.StorageFailure("create schema", err)
	}
	return nil
}

func (d *PgxAdapter) GetIndex(name string) searchapi.Index {
	return &PgxIndex{
		name:    name,
		adapter: d,
		stmts:   d.stmts,
	}
}

// PgxIndex resolves the pool on every call, so an index taken before Startup works once the adapter is started
type PgxIndex struct {
	name    string
	adapter *PgxAdapter
	stmts   statements
}

var _ searchapi.Index = new(PgxIndex)

func (x *PgxIndex) Name() string {
	return x.name
}

func (x *PgxIndex) Query(ctx context.Context, q searchapi.Query) (*searchapi.QueryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	p, err := x.adapter.pool("query")
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, x.stmts.query, x.name, q.SearchString, q.Limit, q.Offset)
	if err != nil {
		return nil, searchapi.StorageFailure("query", err)
	}
	defer rows.Close()

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

func (x *PgxIndex) FindByIdentifier(ctx context.Context, identifier string) (*searchapi.Document, error) {
	p, err := x.adapter.pool("find by identifier")
	if err != nil {
		return nil, err
	}
	var id, content string
	if err := p.QueryRow(ctx, x.stmts.findById, x.name, identifier).Scan(&id, &content); errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, searchapi.StorageFailure("find by identifier", err)
	}
	return documentFromRow(id, content, nil)
}

func (x *PgxIndex) Index(ctx context.Context, documents ...*searchapi.Document) (searchapi.OperationResult, error) {
	rows, err := encodeDocuments(documents)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return searchapi.SynchronousResult(true), nil
	}
	p, err := x.adapter.pool("insert")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		tag, err := p.Exec(ctx, x.stmts.insert, row.Identifier, x.name, row.Content)
		if err != nil {
			return nil, searchapi.StorageFailure("insert", err)
		}
		if tag.RowsAffected() != 1 {
			return nil, searchapi.StorageFailure("insert", fmt.Errorf("unexpected number of rows affected: %d", tag.RowsAffected()))
		}
	}
	return searchapi.SynchronousResult(true), nil
}

func (x *PgxIndex) Delete(ctx context.Context, identifiers ...string) (searchapi.OperationResult, error) {
	ids := uniqueIdentifiers(identifiers)
	if len(ids) == 0 {
		return searchapi.SynchronousResult(true), nil
	}
	p, err := x.adapter.pool("delete")
	if err != nil {
		return nil, err
	}
	filter, args := Postgres.IdentifierFilter(2, ids)
	if _, err := p.Exec(ctx, x.stmts.deleteByIndex+" and "+filter, append([]any{x.name}, args...)...); err != nil {
		return nil, searchapi.StorageFailure("delete", err)
	}
	return searchapi.SynchronousResult(true), nil
}

func (x *PgxIndex) Purge(ctx context.Context) (searchapi.OperationResult, error) {
	p, err := x.adapter.pool("purge")
	if err != nil {
		return nil, err
	}
	if _, err := p.Exec(ctx, x.stmts.deleteByIndex, x.name); err != nil {
		return nil, searchapi.StorageFailure("purge", err)
	}
	return searchapi.SynchronousResult(true), nil
}
