package searchimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

func newSqliteTestAdapter(t *testing.T) (*SqlAdapter, *sql.DB) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "search.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	adapter := NewSqlAdapter(db, SQLite, DefaultOptions())
	if err := adapter.Startup(); err != nil {
		t.Fatal(err)
	}
	if err := adapter.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	return adapter, db
}

func TestSqliteIndexContract(t *testing.T) {
	adapter, _ := newSqliteTestAdapter(t)
	runIndexContract(t, adapter, "products")
}

func TestSqliteSetupTwice(t *testing.T) {
	adapter, _ := newSqliteTestAdapter(t)
	if err := adapter.Setup(context.Background()); !errors.Is(err, searchapi.ErrSchemaAlreadyExists) {
		t.Fatal("second setup should report existing schema, got:", err)
	}
}

// staleDialect never sees the table, like a caller that lost the race after its existence check
type staleDialect struct {
	Dialect
}

func (staleDialect) TableExists(context.Context, *sql.DB) (bool, error) {
	return false, nil
}

func TestSqliteSetupConcurrentCreate(t *testing.T) {
	_, db := newSqliteTestAdapter(t)
	adapter := NewSqlAdapter(db, staleDialect{SQLite}, DefaultOptions())
	if err := adapter.Setup(context.Background()); !errors.Is(err, searchapi.ErrSchemaAlreadyExists) {
		t.Fatal("create on existing table should report existing schema, got:", err)
	}
}

func TestIsTableExists(t *testing.T) {
	if !Postgres.IsTableExists(&pgconn.PgError{Code: "42P07"}) {
		t.Fatal("duplicate_table should be recognized")
	}
	if !Postgres.IsTableExists(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505", ConstraintName: "pg_type_typname_nsp_index"})) {
		t.Fatal("concurrent catalog insert should be recognized")
	}
	if Postgres.IsTableExists(&pgconn.PgError{Code: "23505", ConstraintName: "other"}) || Postgres.IsTableExists(errors.New("boom")) {
		t.Fatal("unrelated errors should not be recognized")
	}
	if SQLite.IsTableExists(nil) || SQLite.IsTableExists(errors.New("no such table: search_index")) {
		t.Fatal("unrelated sqlite errors should not be recognized")
	}
}

func TestSqliteMemoryAdapter(t *testing.T) {
	adapter, err := NewSqliteAdapter(":memory:", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer func(adapter *SqlAdapter) {
		_ = adapter.Close()
	}(adapter)
	if err := adapter.Startup(); err != nil {
		t.Fatal(err)
	}
	if err := adapter.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	idx := adapter.GetIndex("memory")
	if idx.Name() != "memory" {
		t.Fatal("unexpected index name:", idx.Name())
	}
	indexDocs(t, idx, doc("m", "name", "in memory"))
	assertIds(t, query(t, idx, searchapi.NewQuery("memory")), "m")
}

func TestSqliteMalformedContent(t *testing.T) {
	adapter, db := newSqliteTestAdapter(t)
	idx := adapter.GetIndex("broken")
	if _, err := db.Exec("insert into search_index (id, index_name, content) values (?, ?, ?)", "bad", "broken", "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := idx.Query(context.Background(), searchapi.NewQuery("json")); !errors.Is(err, searchapi.ErrMalformedContent) {
		t.Fatal("query should report malformed content, got:", err)
	}
	if _, err := idx.FindByIdentifier(context.Background(), "bad"); !errors.Is(err, searchapi.ErrMalformedContent) {
		t.Fatal("find should report malformed content, got:", err)
	}
}

func TestSqliteStorageFailure(t *testing.T) {
	adapter, db := newSqliteTestAdapter(t)
	idx := adapter.GetIndex("closed")
	_ = db.Close()

	if _, err := idx.Query(context.Background(), searchapi.NewQuery("x")); !errors.Is(err, searchapi.ErrStorageFailure) {
		t.Fatal("query on closed database should be a storage failure, got:", err)
	}
	if _, err := idx.Index(context.Background(), doc("x", "name", "x")); !errors.Is(err, searchapi.ErrStorageFailure) {
		t.Fatal("index on closed database should be a storage failure, got:", err)
	}
	if _, err := idx.Delete(context.Background(), "x"); !errors.Is(err, searchapi.ErrStorageFailure) {
		t.Fatal("delete on closed database should be a storage failure, got:", err)
	}
	if _, err := idx.Purge(context.Background()); !errors.Is(err, searchapi.ErrStorageFailure) {
		t.Fatal("purge on closed database should be a storage failure, got:", err)
	}
	if _, err := idx.FindByIdentifier(context.Background(), "x"); !errors.Is(err, searchapi.ErrStorageFailure) {
		t.Fatal("find on closed database should be a storage failure, got:", err)
	}
}

func TestStatements(t *testing.T) {
	pg := newStatements(Postgres)
	if pg.query != "select id, content from search_index where index_name = $1 and content like '%' || $2::text || '%' limit $3 offset $4" {
		t.Fatal("unexpected postgres query:", pg.query)
	}
	lite := newStatements(SQLite)
	if lite.findById != "select id, content from search_index where index_name = ? and id = ? limit 1" {
		t.Fatal("unexpected sqlite lookup:", lite.findById)
	}

	filter, args := Postgres.IdentifierFilter(2, []string{"a,b", "c"})
	if filter != "id = any($2)" || len(args) != 1 {
		t.Fatal("postgres should bind identifiers as one array parameter:", filter, args)
	}
	filter, args = SQLite.IdentifierFilter(2, []string{"a,b", "c"})
	if filter != "id in (?, ?)" || len(args) != 2 || args[0] != "a,b" {
		t.Fatal("sqlite should bind one parameter per identifier:", filter, args)
	}
}
