package searchimpl

import (
	"fmt"

	"github.com/meidoworks/nekoq-search/search/searchapi"
	"github.com/meidoworks/nekoq-search/search/searchcodec"
)

type statements struct {
	query         string
	findById      string
	insert        string
	deleteByIndex string
}

// newStatements renders the statements for the dialect placeholders.
// Rows are not ordered, so pages follow whatever order the store scans in.
func newStatements(d Dialect) statements {
	p := d.Placeholder
	return statements{
		query: fmt.Sprintf("select id, content from %s where index_name = %s and %s limit %s offset %s",
			searchapi.TableName, p(1), d.ContainsFilter("content", 2), p(3), p(4)),
		findById: fmt.Sprintf("select id, content from %s where index_name = %s and id = %s limit 1",
			searchapi.TableName, p(1), p(2)),
		insert: fmt.Sprintf("insert into %s (id, index_name, content) values (%s, %s, %s)",
			searchapi.TableName, p(1), p(2), p(3)),
		deleteByIndex: fmt.Sprintf("delete from %s where index_name = %s",
			searchapi.TableName, p(1)),
	}
}

type encodedRow struct {
	Identifier string
	Content    string
}

func encodeDocuments(documents []*searchapi.Document) ([]encodedRow, error) {
	rows := make([]encodedRow, 0, len(documents))
	for i, doc := range documents {
		if doc == nil {
			return nil, fmt.Errorf("%w: position %d", searchapi.ErrNilDocument, i)
		}
		content, err := searchcodec.Encode(doc.Attributes)
		if err != nil {
			return nil, fmt.Errorf("encode document %q: %w", doc.Identifier, err)
		}
		rows = append(rows, encodedRow{Identifier: doc.Identifier, Content: content})
	}
	return rows, nil
}

func uniqueIdentifiers(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	res := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

func documentFromRow(id, content string, attributeNames []string) (*searchapi.Document, error) {
	attrs, err := searchcodec.Decode(content, attributeNames)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", id, err)
	}
	return searchapi.NewDocument(id, attrs), nil
}
