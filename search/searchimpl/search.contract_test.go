package searchimpl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

// runIndexContract exercises the behaviour every backing store variant shares.
// The index name must not contain any rows when called.
func runIndexContract(t *testing.T, adapter searchapi.Adapter, indexName string) {
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		indexDocs(t, idx,
			doc("a", "name", "widget"),
			doc("b", "name", "gadget"))

		assertIds(t, query(t, idx, searchapi.NewQuery("widget").WithLimit(10)), "a")
		assertIds(t, query(t, idx, searchapi.NewQuery("gadg").WithLimit(10)), "b")
		// both names end with "get"
		assertIds(t, query(t, idx, searchapi.NewQuery("get").WithLimit(10)), "a", "b")
		assertIds(t, query(t, idx, searchapi.NewQuery("gizmo").WithLimit(10)))
	})

	t.Run("Pagination", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		const n = 5
		for i := 0; i < n; i++ {
			indexDocs(t, idx, doc(fmt.Sprint("page", i), "kind", "paged"))
		}
		indexDocs(t, idx, doc("other", "kind", "unrelated"))

		cases := []struct{ offset, limit int }{
			{0, 10}, {0, 2}, {2, 2}, {4, 2}, {5, 2}, {7, 3}, {1, 1},
		}
		for _, c := range cases {
			res := query(t, idx, searchapi.NewQuery("paged").WithOffset(c.offset).WithLimit(c.limit))
			expected := min(c.limit, max(0, n-c.offset))
			if res.Count != expected || len(res.Results) != expected {
				t.Fatalf("offset %d limit %d: expect %d results, got count %d len %d", c.offset, c.limit, expected, res.Count, len(res.Results))
			}
			if res.Exhaustive {
				t.Fatal("query result must never be exhaustive")
			}
		}
	})

	t.Run("FindByIdentifier", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		attrs := searchapi.NewAttributes().
			Set("title", searchapi.String("Hello")).
			Set("rank", searchapi.Number(4.25)).
			Set("tags", searchapi.List(searchapi.String("x"), searchapi.Bool(true), searchapi.Null())).
			Set("meta", searchapi.Object(searchapi.NewAttributes().Set("z", searchapi.Number(1)).Set("a", searchapi.Number(2))))
		indexDocs(t, idx, searchapi.NewDocument("doc-1", attrs))

		found, err := idx.FindByIdentifier(ctx, "doc-1")
		if err != nil {
			t.Fatal(err)
		}
		if found == nil || found.Identifier != "doc-1" {
			t.Fatal("document should be found:", found)
		}
		if !found.Attributes.Equal(attrs) {
			t.Fatal("attributes mismatch:", found.Attributes.Map())
		}

		missing, err := idx.FindByIdentifier(ctx, "doc-2")
		if err != nil {
			t.Fatal(err)
		}
		if missing != nil {
			t.Fatal("absent document should be nil")
		}
	})

	t.Run("AttributeFilter", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		indexDocs(t, idx, searchapi.NewDocument("f", searchapi.NewAttributes().
			Set("name", searchapi.String("filtered")).
			Set("body", searchapi.String("long text")).
			Set("size", searchapi.Number(3))))

		res := query(t, idx, searchapi.NewQuery("filtered").WithAttributes("size", "name"))
		assertIds(t, res, "f")
		attrs := res.Results[0].Document.Attributes
		if attrs.Len() != 2 || attrs.Has("body") {
			t.Fatal("unexpected attributes:", attrs.Names())
		}
	})

	t.Run("DuplicatedIdentifier", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		indexDocs(t, idx, doc("dup", "name", "first copy"))
		indexDocs(t, idx, doc("dup", "name", "second copy"))

		// indexing appends, the earlier row is not replaced
		assertIds(t, query(t, idx, searchapi.NewQuery("copy")), "dup", "dup")

		found, err := idx.FindByIdentifier(ctx, "dup")
		if err != nil {
			t.Fatal(err)
		}
		if found == nil {
			t.Fatal("one of the duplicated rows should be returned")
		}

		// delete removes every copy
		deleteIds(t, idx, "dup")
		assertIds(t, query(t, idx, searchapi.NewQuery("copy")))
	})

	t.Run("Delete", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		indexDocs(t, idx,
			doc("a,b", "name", "comma"),
			doc("a", "name", "plain a"),
			doc("b", "name", "plain b"),
			doc("it's", "name", "quote"))

		deleteIds(t, idx, "a,b", "it's", "it's")
		assertIds(t, query(t, idx, searchapi.NewQuery("name")), "a", "b")

		deleteIds(t, idx)
		assertIds(t, query(t, idx, searchapi.NewQuery("name")), "a", "b")

		deleteIds(t, idx, "a", "unknown")
		found, err := idx.FindByIdentifier(ctx, "a")
		if err != nil {
			t.Fatal(err)
		}
		if found != nil {
			t.Fatal("deleted document should not be found")
		}
		assertIds(t, query(t, idx, searchapi.NewQuery("name")), "b")
	})

	t.Run("Purge", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		other := adapter.GetIndex(indexName + "_other")
		defer purge(t, other)
		indexDocs(t, idx, doc("p1", "name", "purged"), doc("p2", "name", "purged"))
		indexDocs(t, other, doc("p1", "name", "purged"))

		purge(t, idx)
		assertIds(t, query(t, idx, searchapi.NewQuery("").WithLimit(1000)))
		// other indexes share the table but not the rows
		assertIds(t, query(t, other, searchapi.NewQuery("purged")), "p1")
	})

	t.Run("InvalidInput", func(t *testing.T) {
		idx := adapter.GetIndex(indexName)
		defer purge(t, idx)
		if _, err := idx.Query(ctx, searchapi.NewQuery("x").WithLimit(0)); !errors.Is(err, searchapi.ErrInvalidLimit) {
			t.Fatal("zero limit should fail, got:", err)
		}
		if _, err := idx.Query(ctx, searchapi.NewQuery("x").WithOffset(-1)); !errors.Is(err, searchapi.ErrInvalidOffset) {
			t.Fatal("negative offset should fail, got:", err)
		}
		if _, err := idx.Index(ctx, doc("ok", "name", "never stored"), nil); !errors.Is(err, searchapi.ErrNilDocument) {
			t.Fatal("nil document should fail, got:", err)
		}
		assertIds(t, query(t, idx, searchapi.NewQuery("never stored")))

		if r, err := idx.Index(ctx); err != nil || !r.Successful() {
			t.Fatal("indexing nothing should succeed:", err)
		}
	})
}

func doc(id, name, value string) *searchapi.Document {
	return searchapi.NewDocument(id, searchapi.NewAttributes().Set(name, searchapi.String(value)))
}

func indexDocs(t *testing.T, idx searchapi.Index, docs ...*searchapi.Document) {
	t.Helper()
	r, err := idx.Index(context.Background(), docs...)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Successful() {
		t.Fatal("index should be successful")
	}
}

func deleteIds(t *testing.T, idx searchapi.Index, ids ...string) {
	t.Helper()
	r, err := idx.Delete(context.Background(), ids...)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Successful() {
		t.Fatal("delete should be successful")
	}
}

func purge(t *testing.T, idx searchapi.Index) {
	t.Helper()
	r, err := idx.Purge(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Successful() {
		t.Fatal("purge should be successful")
	}
}

func query(t *testing.T, idx searchapi.Index, q searchapi.Query) *searchapi.QueryResult {
	t.Helper()
	res, err := idx.Query(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if res.Exhaustive {
		t.Fatal("query result must never be exhaustive")
	}
	if res.Count != len(res.Results) {
		t.Fatal("count should equal the page size")
	}
	return res
}

// assertIds compares the identifiers regardless of the order the store returns them in
func assertIds(t *testing.T, res *searchapi.QueryResult, ids ...string) {
	t.Helper()
	expected := map[string]int{}
	for _, id := range ids {
		expected[id]++
	}
	for _, r := range res.Results {
		expected[r.Document.Identifier]--
	}
	for id, cnt := range expected {
		if cnt != 0 {
			var got []string
			for _, r := range res.Results {
				got = append(got, r.Document.Identifier)
			}
			t.Fatalf("identifier %q mismatch, expect %v got %v", id, ids, got)
		}
	}
}
