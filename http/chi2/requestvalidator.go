package chi2

import (
	"net/http"
	"strings"
)

func AllowContentTypeFor(contentTypes ...string) func(w http.ResponseWriter, r *http.Request) Render {
	ctm := map[string]struct{}{}
	for _, ct := range contentTypes {
		ctm[ct] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) Render {
		ct := r.Header.Get("Content-Type")
		ct = strings.TrimSpace(strings.Split(ct, ";")[0])
		_, ok := ctm[ct]
		if ok {
			return nil
		}
		return NewStatusRender(http.StatusUnsupportedMediaType)
	}
}

// AcceptContentTypeFor rejects requests whose Accept header matches none of the types.
// A missing header or */* accepts anything.
func AcceptContentTypeFor(contentTypes ...string) func(w http.ResponseWriter, r *http.Request) Render {
	ctm := map[string]struct{}{}
	for _, ct := range contentTypes {
		ctm[ct] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) Render {
		accept := strings.TrimSpace(r.Header.Get("Accept"))
		if accept == "" {
			return nil
		}
		for _, part := range strings.Split(accept, ",") {
			ct := strings.TrimSpace(strings.Split(part, ";")[0])
			if ct == "*/*" {
				return nil
			}
			if _, ok := ctm[ct]; ok {
				return nil
			}
		}
		return NewStatusRender(http.StatusNotAcceptable)
	}
}
