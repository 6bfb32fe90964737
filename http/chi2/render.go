package chi2

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	ContentTypeJson = "application/json"
	ContentTypeCbor = "application/cbor"
)

type statusRender struct {
	code int
}

func (s statusRender) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(s.code)
	return nil
}

func NewStatusRender(code int) Render {
	return statusRender{code: code}
}

// objectRender writes cbor when the client accepts it, json otherwise
type objectRender struct {
	status int
	obj    any
}

func (o objectRender) Render(w http.ResponseWriter, r *http.Request) error {
	var data []byte
	var contentType string
	var err error
	if AcceptsCbor(r) {
		data, err = cbor.Marshal(o.obj)
		contentType = ContentTypeCbor
	} else {
		data, err = json.Marshal(o.obj)
		contentType = ContentTypeJson + "; charset=utf-8"
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(o.status)
	_, err = w.Write(data)
	return err
}

func NewObjectRender(status int, obj any) Render {
	return objectRender{status: status, obj: obj}
}

func NewJsonOkRender(obj any) Render {
	return objectRender{status: http.StatusOK, obj: obj}
}

type errRender struct {
	status int
	err    error
}

func (e errRender) Render(w http.ResponseWriter, r *http.Request) error {
	return objectRender{status: e.status, obj: map[string]string{"error": e.err.Error()}}.Render(w, r)
}

func NewErrRender(err error) Render {
	return errRender{status: http.StatusInternalServerError, err: err}
}

func NewErrRenderWithStatus(status int, err error) Render {
	return errRender{status: status, err: err}
}

func AcceptsCbor(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if strings.TrimSpace(strings.Split(part, ";")[0]) == ContentTypeCbor {
			return true
		}
	}
	return false
}
