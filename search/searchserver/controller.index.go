package searchserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/meidoworks/nekoq-search/http/chi2"
	"github.com/meidoworks/nekoq-search/search/searchapi"
)

func defaultMiddlewares() chi2.Middlewares {
	return chi2.Middlewares{
		middleware.Logger,
		middleware.RealIP,
		middleware.Recoverer,
	}
}

// indexName is used verbatim, surrounding whitespace included
func indexName(r *http.Request) string {
	return chi.URLParam(r, "index_name")
}

// errorRender maps engine errors to http statuses
func errorRender(message string, err error) chi2.Render {
	switch {
	case errors.Is(err, searchapi.ErrInvalidLimit),
		errors.Is(err, searchapi.ErrInvalidOffset),
		errors.Is(err, searchapi.ErrNilDocument),
		errors.Is(err, searchapi.ErrUnsupportedValue):
		return chi2.NewErrRenderWithStatus(http.StatusBadRequest, err)
	default:
		logError(message, err)
		return chi2.NewErrRender(err)
	}
}

// IndexDocuments appends documents to an index
type IndexDocuments struct {
	chi2.Controller
	Method string `method:"PUT"`
	URL    string `url:"/api/v1/index/{index_name}/documents"`

	adapter searchapi.Adapter
}

func (c *IndexDocuments) HandleHttp(w http.ResponseWriter, r *http.Request) chi2.Render {
	obj, err := c.ParseBody(r)
	if err != nil {
		return chi2.NewErrRenderWithStatus(http.StatusBadRequest, err)
	}
	req := obj.(*indexDocumentsReq)
	name := indexName(r)
	if name == "" || len(req.Documents) == 0 {
		return chi2.NewStatusRender(http.StatusBadRequest)
	}
	docs := make([]*searchapi.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		if d.Id == "" {
			return chi2.NewStatusRender(http.StatusBadRequest)
		}
		docs = append(docs, searchapi.NewDocument(d.Id, d.Attributes.Attributes))
	}

	res, err := c.adapter.GetIndex(name).Index(r.Context(), docs...)
	if err != nil {
		return errorRender("index documents failed", err)
	}
	return chi2.NewJsonOkRender(operationRes{
		Index:      name,
		Successful: res.Successful(),
		Affected:   len(docs),
	})
}

func NewIndexDocuments(adapter searchapi.Adapter, secret []byte) *IndexDocuments {
	return &IndexDocuments{
		Controller: chi2.Controller{
			Middlewares: defaultMiddlewares(),
			RequestValidators: chi2.RequestValidators{
				chi2.AllowContentTypeFor(chi2.ContentTypeJson),
				ValidateJwtToken(secret, ScopeWrite),
			},
			BodyParser: func(hr *http.Request, r io.Reader) (any, error) {
				req := new(indexDocumentsReq)
				if err := render.DecodeJSON(r, req); err != nil {
					return nil, err
				}
				return req, nil
			},
		},
		adapter: adapter,
	}
}

// QueryIndex runs a substring query against an index
type QueryIndex struct {
	chi2.Controller
	Method string `method:"POST"`
	URL    string `url:"/api/v1/index/{index_name}/query"`

	adapter searchapi.Adapter
}

func (c *QueryIndex) HandleHttp(w http.ResponseWriter, r *http.Request) chi2.Render {
	obj, err := c.ParseBody(r)
	if err != nil {
		return chi2.NewErrRenderWithStatus(http.StatusBadRequest, err)
	}
	req := obj.(*queryReq)
	name := indexName(r)
	if name == "" {
		return chi2.NewStatusRender(http.StatusBadRequest)
	}

	res, err := c.adapter.GetIndex(name).Query(r.Context(), req.toQuery())
	if err != nil {
		return errorRender("query index failed", err)
	}
	return chi2.NewJsonOkRender(newQueryRes(res))
}

func NewQueryIndex(adapter searchapi.Adapter, secret []byte) *QueryIndex {
	return &QueryIndex{
		Controller: chi2.Controller{
			Middlewares: defaultMiddlewares(),
			RequestValidators: chi2.RequestValidators{
				chi2.AllowContentTypeFor(chi2.ContentTypeJson),
				chi2.AcceptContentTypeFor(chi2.ContentTypeJson, chi2.ContentTypeCbor),
				ValidateJwtToken(secret, ScopeRead),
			},
			BodyParser: func(hr *http.Request, r io.Reader) (any, error) {
				req := new(queryReq)
				if err := render.DecodeJSON(r, req); err != nil {
					return nil, err
				}
				return req, nil
			},
		},
		adapter: adapter,
	}
}

// GetDocument looks up a single document by identifier
type GetDocument struct {
	chi2.Controller
	Method string `method:"GET"`
	URL    string `url:"/api/v1/index/{index_name}/documents/{id}"`

	adapter searchapi.Adapter
}

func (c *GetDocument) HandleHttp(w http.ResponseWriter, r *http.Request) chi2.Render {
	name := indexName(r)
	id := chi.URLParam(r, "id")
	if name == "" || id == "" {
		return chi2.NewStatusRender(http.StatusBadRequest)
	}
	doc, err := c.adapter.GetIndex(name).FindByIdentifier(r.Context(), id)
	if err != nil {
		return errorRender("find document failed", err)
	}
	if doc == nil {
		return chi2.NewStatusRender(http.StatusNotFound)
	}
	return chi2.NewJsonOkRender(newDocumentModel(doc))
}

func NewGetDocument(adapter searchapi.Adapter, secret []byte) *GetDocument {
	return &GetDocument{
		Controller: chi2.Controller{
			Middlewares: defaultMiddlewares(),
			RequestValidators: chi2.RequestValidators{
				chi2.AcceptContentTypeFor(chi2.ContentTypeJson, chi2.ContentTypeCbor),
				ValidateJwtToken(secret, ScopeRead),
			},
		},
		adapter: adapter,
	}
}

// DeleteDocuments removes documents by identifier
type DeleteDocuments struct {
	chi2.Controller
	Method string `method:"DELETE"`
	URL    string `url:"/api/v1/index/{index_name}/documents"`

	adapter searchapi.Adapter
}

func (c *DeleteDocuments) HandleHttp(w http.ResponseWriter, r *http.Request) chi2.Render {
	obj, err := c.ParseBody(r)
	if err != nil {
		return chi2.NewErrRenderWithStatus(http.StatusBadRequest, err)
	}
	req := obj.(*deleteDocumentsReq)
	name := indexName(r)
	if name == "" {
		return chi2.NewStatusRender(http.StatusBadRequest)
	}

	res, err := c.adapter.GetIndex(name).Delete(r.Context(), req.Ids...)
	if err != nil {
		return errorRender("delete documents failed", err)
	}
	return chi2.NewJsonOkRender(operationRes{
		Index:      name,
		Successful: res.Successful(),
	})
}

func NewDeleteDocuments(adapter searchapi.Adapter, secret []byte) *DeleteDocuments {
	return &DeleteDocuments{
		Controller: chi2.Controller{
			Middlewares: defaultMiddlewares(),
			RequestValidators: chi2.RequestValidators{
				chi2.AllowContentTypeFor(chi2.ContentTypeJson),
				ValidateJwtToken(secret, ScopeWrite),
			},
			BodyParser: func(hr *http.Request, r io.Reader) (any, error) {
				req := new(deleteDocumentsReq)
				if err := render.DecodeJSON(r, req); err != nil {
					return nil, err
				}
				return req, nil
			},
		},
		adapter: adapter,
	}
}

// PurgeIndex removes every document of an index
type PurgeIndex struct {
	chi2.Controller
	Method string `method:"DELETE"`
	URL    string `url:"/api/v1/index/{index_name}"`

	adapter searchapi.Adapter
}

func (c *PurgeIndex) HandleHttp(w http.ResponseWriter, r *http.Request) chi2.Render {
	name := indexName(r)
	if name == "" {
		return chi2.NewStatusRender(http.StatusBadRequest)
	}
	res, err := c.adapter.GetIndex(name).Purge(r.Context())
	if err != nil {
		return errorRender("purge index failed", err)
	}
	return chi2.NewJsonOkRender(operationRes{
		Index:      name,
		Successful: res.Successful(),
	})
}

func NewPurgeIndex(adapter searchapi.Adapter, secret []byte) *PurgeIndex {
	return &PurgeIndex{
		Controller: chi2.Controller{
			Middlewares: defaultMiddlewares(),
			RequestValidators: chi2.RequestValidators{
				ValidateJwtToken(secret, ScopeWrite),
			},
		},
		adapter: adapter,
	}
}
