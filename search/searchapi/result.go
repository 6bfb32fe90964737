package searchapi

type Result struct {
	Document *Document
}

// QueryResult is one page of matches.
// Count is the size of this page and never a corpus total. Exhaustive is always false.
type QueryResult struct {
	Query      Query
	Results    []Result
	Count      int
	Exhaustive bool
}

func NewQueryResult(q Query, results []Result) *QueryResult {
	return &QueryResult{
		Query:      q,
		Results:    results,
		Count:      len(results),
		Exhaustive: false,
	}
}

type OperationResult interface {
	Successful() bool
}

// SynchronousResult is returned once the operation has completed against the store.
type SynchronousResult bool

func (s SynchronousResult) Successful() bool {
	return bool(s)
}

var _ OperationResult = SynchronousResult(true)
