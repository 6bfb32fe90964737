package searchserver

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/meidoworks/nekoq-search/search/searchapi"
	"github.com/meidoworks/nekoq-search/search/searchcodec"
)

// attributesModel keeps the attribute order of request and response bodies by going through the content codec
type attributesModel struct {
	*searchapi.Attributes
}

func (a *attributesModel) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Attributes = searchapi.NewAttributes()
		return nil
	}
	attrs, err := searchcodec.Decode(string(data), nil)
	if err != nil {
		return err
	}
	a.Attributes = attrs
	return nil
}

func (a attributesModel) MarshalJSON() ([]byte, error) {
	content, err := searchcodec.Encode(a.Attributes)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// MarshalCBOR responds a plain cbor map, the attribute order is not kept
func (a attributesModel) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.Attributes.Map())
}

type documentModel struct {
	Id         string          `json:"id" cbor:"id"`
	Attributes attributesModel `json:"attributes" cbor:"attributes"`
}

func newDocumentModel(doc *searchapi.Document) documentModel {
	return documentModel{
		Id:         doc.Identifier,
		Attributes: attributesModel{doc.Attributes},
	}
}

type indexDocumentsReq struct {
	Documents []documentModel `json:"documents"`
}

type queryReq struct {
	Search     string   `json:"search"`
	Offset     int      `json:"offset"`
	Limit      *int     `json:"limit"`
	Attributes []string `json:"attributes"`
}

func (q *queryReq) toQuery() searchapi.Query {
	query := searchapi.NewQuery(q.Search).
		WithOffset(q.Offset).
		WithAttributes(q.Attributes...)
	if q.Limit != nil {
		query = query.WithLimit(*q.Limit)
	}
	return query
}

type queryRes struct {
	Search     string          `json:"search" cbor:"search"`
	Offset     int             `json:"offset" cbor:"offset"`
	Limit      int             `json:"limit" cbor:"limit"`
	Count      int             `json:"count" cbor:"count"`
	Exhaustive bool            `json:"exhaustive" cbor:"exhaustive"`
	Results    []documentModel `json:"results" cbor:"results"`
}

func newQueryRes(res *searchapi.QueryResult) queryRes {
	r := queryRes{
		Search:     res.Query.SearchString,
		Offset:     res.Query.Offset,
		Limit:      res.Query.Limit,
		Count:      res.Count,
		Exhaustive: res.Exhaustive,
		Results:    make([]documentModel, 0, len(res.Results)),
	}
	for _, item := range res.Results {
		r.Results = append(r.Results, newDocumentModel(item.Document))
	}
	return r
}

type deleteDocumentsReq struct {
	Ids []string `json:"ids"`
}

type operationRes struct {
	Index      string `json:"index" cbor:"index"`
	Successful bool   `json:"successful" cbor:"successful"`
	Affected   int    `json:"affected,omitempty" cbor:"affected,omitempty"`
}
