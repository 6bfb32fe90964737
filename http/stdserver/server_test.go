package stdserver

import (
	"context"
	"io"
	"net/http"
	"testing"
)

func TestCombinedServerPlainHttp(t *testing.T) {
	var started []string
	s, err := StartCombinedStdHttpServer(&CombinedStdHttpServerReq{
		Addr: "127.0.0.1:0",
		// tls is skipped without a key pair
		TlsAddr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pong"))
		}),
		StartedCallback: func(serverTypeName string) {
			started = append(started, serverTypeName)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer func(s *CombinedStdHttpServer) {
		_ = s.Shutdown(context.Background())
	}(s)

	if len(started) != 1 || started[0] != "http" {
		t.Fatal("unexpected started servers:", started)
	}

	resp, err := http.Get("http://" + s.HttpAddr() + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pong" {
		t.Fatal("unexpected body:", string(data))
	}
}

func TestTlsServerMissingKeyPair(t *testing.T) {
	if _, err := StartStdHttpTlsServer(&StdHttpTlsServerReq{
		Addr:     "127.0.0.1:0",
		CertFile: "missing.crt",
		KeyFile:  "missing.key",
	}); err == nil {
		t.Fatal("missing key pair should fail")
	}
}
