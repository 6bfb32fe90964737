package stdserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync/atomic"
)

type StdHttpServerReq struct {
	Addr    string
	Handler http.Handler

	StartedCallback func()
}

type StdHttpServer struct {
	l   net.Listener
	srv *http.Server
}

func StartStdHttpServer(req *StdHttpServerReq) (*StdHttpServer, error) {
	res := &StdHttpServer{}

	l, err := net.Listen("tcp", req.Addr)
	if err != nil {
		return nil, err
	}
	res.l = l
	res.srv = &http.Server{
		Handler: req.Handler,
	}

	go func() {
		if err := res.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println("[ERROR]", "http server stopped unexpectedly", err)
		}
	}()
	if req.StartedCallback != nil {
		req.StartedCallback()
	}

	return res, nil
}

// Addr responds the bound address, useful when listening on port 0
func (h *StdHttpServer) Addr() string {
	return h.l.Addr().String()
}

func (h *StdHttpServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

type StdHttpTlsServerReq struct {
	Addr    string
	Handler http.Handler

	CertFile string
	KeyFile  string

	StartedCallback func()
}

type StdHttpTlsServer struct {
	l   net.Listener
	srv *http.Server

	cert *atomic.Pointer[tls.Certificate]
}

// UpdateCertificate reloads the key pair, new handshakes pick it up immediately
func (h *StdHttpTlsServer) UpdateCertificate(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}
	h.cert.Store(&cert)
	return nil
}

func StartStdHttpTlsServer(req *StdHttpTlsServerReq) (*StdHttpTlsServer, error) {
	result := &StdHttpTlsServer{
		cert: &atomic.Pointer[tls.Certificate]{},
	}
	if err := result.UpdateCertificate(req.CertFile, req.KeyFile); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", req.Addr)
	if err != nil {
		return nil, err
	}
	result.l = ln

	result.srv = &http.Server{
		Handler: req.Handler,
		TLSConfig: &tls.Config{
			GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
				cert := result.cert.Load()
				if err := hello.SupportsCertificate(cert); err != nil {
					return nil, fmt.Errorf("unsupported certificate: %w", err)
				}
				return cert, nil
			},
		},
	}

	go func() {
		if err := result.srv.ServeTLS(ln, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println("[ERROR]", "https server stopped unexpectedly", err)
		}
	}()
	if req.StartedCallback != nil {
		req.StartedCallback()
	}

	return result, nil
}

func (h *StdHttpTlsServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

type CombinedStdHttpServerReq struct {
	Addr     string
	TlsAddr  string
	CertFile string
	KeyFile  string
	Handler  http.Handler

	StartedCallback func(serverTypeName string)
}

// CombinedStdHttpServer serves plain http and, when a tls address and key pair are given, https.
type CombinedStdHttpServer struct {
	httpServer    *StdHttpServer
	tlsHttpServer *StdHttpTlsServer
}

func StartCombinedStdHttpServer(req *CombinedStdHttpServerReq) (*CombinedStdHttpServer, error) {
	result := &CombinedStdHttpServer{}

	httpServer, err := StartStdHttpServer(&StdHttpServerReq{
		Addr:    req.Addr,
		Handler: req.Handler,
		StartedCallback: func() {
			if req.StartedCallback != nil {
				req.StartedCallback("http")
			}
		},
	})
	if err != nil {
		return nil, err
	}
	result.httpServer = httpServer

	if req.TlsAddr != "" && req.CertFile != "" && req.KeyFile != "" {
		tlsHttpServer, err := StartStdHttpTlsServer(&StdHttpTlsServerReq{
			Addr:     req.TlsAddr,
			Handler:  req.Handler,
			CertFile: req.CertFile,
			KeyFile:  req.KeyFile,
			StartedCallback: func() {
				if req.StartedCallback != nil {
					req.StartedCallback("https")
				}
			},
		})
		if err != nil {
			_ = httpServer.Shutdown(context.Background())
			return nil, err
		}
		result.tlsHttpServer = tlsHttpServer
	}
	return result, nil
}

func (h *CombinedStdHttpServer) HttpAddr() string {
	return h.httpServer.Addr()
}

func (h *CombinedStdHttpServer) Shutdown(ctx context.Context) error {
	errs := make([]error, 0)
	if h.httpServer != nil {
		if err := h.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if h.tlsHttpServer != nil {
		if err := h.tlsHttpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
