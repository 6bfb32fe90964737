package chi2

import (
	"errors"
	"io"
	"net/http"
)

var (
	httpMethods = map[string]struct{}{
		http.MethodGet:     {},
		http.MethodPost:    {},
		http.MethodPut:     {},
		http.MethodConnect: {},
		http.MethodDelete:  {},
		http.MethodHead:    {},
		http.MethodOptions: {},
		http.MethodPatch:   {},
		http.MethodTrace:   {},
	}

	ErrNoBodyParser = errors.New("body parser is nil")
)

type HttpController interface {
	HandleHttp(w http.ResponseWriter, r *http.Request) Render
}

type internalCheck interface {
	_chi_internal1_779960()

	middlewares() Middlewares
	requestValidators() RequestValidators

	HttpController
}

// Controller is embedded by every api controller. The embedding type overrides HandleHttp.
type Controller struct {
	Middlewares
	RequestValidators
	BodyParser func(req *http.Request, r io.Reader) (any, error)
}

func (c Controller) middlewares() Middlewares {
	return c.Middlewares
}

func (c Controller) requestValidators() RequestValidators {
	return c.RequestValidators
}

func (c Controller) _chi_internal1_779960() {
}

func (c Controller) ParseBody(r *http.Request) (any, error) {
	if c.BodyParser == nil {
		return nil, ErrNoBodyParser
	}
	return c.BodyParser(r, r.Body)
}

func (c Controller) HandleHttp(w http.ResponseWriter, r *http.Request) Render {
	return NewStatusRender(http.StatusNotImplemented)
}

type Middlewares []func(http.Handler) http.Handler

type RequestValidators []func(w http.ResponseWriter, r *http.Request) Render

type Render interface {
	Render(w http.ResponseWriter, r *http.Request) error
}
