package searchapi

import "slices"

const (
	DefaultQueryLimit = 20
)

type Query struct {
	// SearchString is matched as a contiguous substring of the stored content
	SearchString string
	Offset       int
	Limit        int
	// AttributeNamesToRetrieve limits the returned attributes, empty means all
	AttributeNamesToRetrieve []string
}

func NewQuery(search string) Query {
	return Query{
		SearchString: search,
		Offset:       0,
		Limit:        DefaultQueryLimit,
	}
}

func (q Query) WithOffset(offset int) Query {
	q.Offset = offset
	return q
}

func (q Query) WithLimit(limit int) Query {
	q.Limit = limit
	return q
}

func (q Query) WithAttributes(names ...string) Query {
	q.AttributeNamesToRetrieve = slices.Clone(names)
	return q
}

func (q Query) Validate() error {
	if q.Offset < 0 {
		return ErrInvalidOffset
	}
	if q.Limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
