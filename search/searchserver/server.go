package searchserver

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meidoworks/nekoq-search/http/chi2"
	"github.com/meidoworks/nekoq-search/http/stdserver"
	"github.com/meidoworks/nekoq-search/search/searchapi"
)

type SearchServerReq struct {
	Addr     string
	TlsAddr  string
	CertFile string
	KeyFile  string

	Adapter searchapi.Adapter

	Auth struct {
		// JwtSecret enables bearer token checks on mutating apis when not empty
		JwtSecret []byte
		// ProtectReads extends the checks to query and lookup apis
		ProtectReads bool
	}

	DebugOpt struct {
		PrintRegisteredAPIs bool
	}
}

type SearchServer struct {
	req *SearchServerReq
	mux *chi.Mux

	server *stdserver.CombinedStdHttpServer
}

func logError(msg string, err error) {
	if err != nil {
		log.Println("[ERROR]", msg, err)
	} else {
		log.Println("[ERROR]", msg)
	}
}

func logWarn(message string, args ...any) {
	log.Println(append([]any{"[WARN]", message}, args...)...)
}

func initApis(r *chi.Mux, req *SearchServerReq) error {
	writeSecret := req.Auth.JwtSecret
	var readSecret []byte
	if req.Auth.ProtectReads {
		readSecret = req.Auth.JwtSecret
	}

	stub := chi2.NewChiApiStub()
	if err := stub.RegisterControllers(
		NewQueryIndex(req.Adapter, readSecret),
		NewGetDocument(req.Adapter, readSecret)); err != nil {
		return err
	}
	if err := stub.RegisterControllers(
		NewIndexDocuments(req.Adapter, writeSecret),
		NewDeleteDocuments(req.Adapter, writeSecret),
		NewPurgeIndex(req.Adapter, writeSecret)); err != nil {
		return err
	}
	if req.DebugOpt.PrintRegisteredAPIs {
		stub.LogAllControllers()
	}
	stub.BuildFor(r)
	return nil
}

func NewSearchServer(req *SearchServerReq) (*SearchServer, error) {
	r := chi.NewRouter()
	if err := initApis(r, req); err != nil {
		return nil, err
	}
	if len(req.Auth.JwtSecret) == 0 {
		logWarn("jwt secret is empty, mutating apis are not protected")
	}
	return &SearchServer{
		req: req,
		mux: r,
	}, nil
}

func (s *SearchServer) Handler() http.Handler {
	return s.mux
}

func (s *SearchServer) Startup() error {
	server, err := stdserver.StartCombinedStdHttpServer(&stdserver.CombinedStdHttpServerReq{
		Addr:     s.req.Addr,
		TlsAddr:  s.req.TlsAddr,
		CertFile: s.req.CertFile,
		KeyFile:  s.req.KeyFile,
		Handler:  s.mux,
		StartedCallback: func(serverTypeName string) {
			log.Println("SearchServer [" + serverTypeName + "] endpoint started.")
		},
	})
	if err != nil {
		return err
	}
	s.server = server
	return nil
}

func (s *SearchServer) Addr() string {
	return s.server.HttpAddr()
}

func (s *SearchServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
