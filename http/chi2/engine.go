package chi2

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

var (
	ErrFieldNotFound     = errors.New("field not found")
	ErrFieldTypeMismatch = errors.New("field type mismatch")
	ErrMethodInvalid     = errors.New("method is invalid")
	ErrEmptyURL          = errors.New("url is empty")
)

type apiItem struct {
	m string
	u string
	Middlewares
	RequestValidators
	internalCheck
}

// ChiApiStub collects controllers and mounts them on a chi router.
// Method and url are read from the `method` and `url` tags of the controller Method/URL fields.
type ChiApiStub struct {
	items map[string]map[string]apiItem
}

func NewChiApiStub() *ChiApiStub {
	return &ChiApiStub{
		items: map[string]map[string]apiItem{},
	}
}

func (c *ChiApiStub) addItem(method, url string, mw Middlewares, rv RequestValidators, ct internalCheck) {
	sub, ok := c.items[method]
	if !ok {
		sub = map[string]apiItem{}
		c.items[method] = sub
	}
	sub[url] = apiItem{m: method, u: url, Middlewares: mw, RequestValidators: rv, internalCheck: ct}
}

func (c *ChiApiStub) RegisterControllers(controllers ...internalCheck) error {
	for _, controller := range controllers {
		m, err := extractTag(controller, "Method", "method")
		if err != nil {
			return err
		}
		m = strings.ToUpper(m)
		if _, ok := httpMethods[m]; !ok {
			return ErrMethodInvalid
		}
		u, err := extractTag(controller, "URL", "url")
		if err != nil {
			return err
		}
		if u == "" {
			return ErrEmptyURL
		}
		c.addItem(m, u, controller.middlewares(), controller.requestValidators(), controller)
	}
	return nil
}

func extractTag(controller internalCheck, fieldName, tagName string) (string, error) {
	ct := reflect.TypeOf(controller)
	if ct.Kind() == reflect.Ptr {
		ct = ct.Elem()
	}

	field, ok := ct.FieldByName(fieldName)
	if !ok {
		return "", ErrFieldNotFound
	}
	if field.Type.Kind() != reflect.String {
		return "", ErrFieldTypeMismatch
	}
	return strings.TrimSpace(field.Tag.Get(tagName)), nil
}

func (c *ChiApiStub) LogAllControllers() {
	methods := make([]string, 0, len(c.items))
	for method := range c.items {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for _, method := range methods {
		log.Println("====>>>> method:", method)
		for url, item := range c.items[method] {
			log.Println(url, len(item.Middlewares), len(item.RequestValidators))
		}
	}
}

func (c *ChiApiStub) BuildFor(r chi.Router) {
	for method, sub := range c.items {
		for url, item := range sub {
			r.With(item.Middlewares...).MethodFunc(method, url, c.generalHandler(item))
		}
	}
}

func (c *ChiApiStub) generalHandler(item apiItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, rv := range item.RequestValidators {
			render := rv(w, r)
			if render != nil {
				if err := render.Render(w, r); err != nil {
					log.Println("[ERROR]", "render validation response failed", err)
				}
				return
			}
		}

		render := item.internalCheck.HandleHttp(w, r)
		if render == nil {
			render = NewStatusRender(http.StatusNoContent)
		}
		if err := render.Render(w, r); err != nil {
			// status may have been committed already, only log it
			log.Println("[ERROR]", "render response failed", err)
		}
	}
}
