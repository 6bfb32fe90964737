package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/meidoworks/nekoq-search/search/searchapi"
	"github.com/meidoworks/nekoq-search/search/searchimpl"
	"github.com/meidoworks/nekoq-search/search/searchserver"
)

var configFile string
var driver string
var connString string
var listenAddr string
var setupOnly bool
var issueToken string
var tokenTTL time.Duration

func init() {
	flag.StringVar(&configFile, "config", "", "yaml configuration file")
	flag.StringVar(&driver, "driver", "", "database driver: postgres, pgx or sqlite")
	flag.StringVar(&connString, "conn", "", "database connection string")
	flag.StringVar(&listenAddr, "listen", "", "listen address")
	flag.BoolVar(&setupOnly, "setup", false, "create the search_index table and exit")
	flag.StringVar(&issueToken, "issue-token", "", "print a jwt token for the comma separated scopes and exit")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "ttl of issued tokens")
}

type storage interface {
	searchapi.Adapter
	Startup() error
	Close() error
}

// pgxStorage aligns the pgx adapter lifecycle with the database/sql one
type pgxStorage struct {
	*searchimpl.PgxAdapter
}

func (p pgxStorage) Close() error {
	return p.Stop()
}

func openStorage(cfg *Config) (storage, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return searchimpl.NewPostgresAdapter(cfg.Database.Conn, cfg.Options())
	case "sqlite":
		return searchimpl.NewSqliteAdapter(cfg.Database.Conn, cfg.Options())
	case "pgx":
		return pgxStorage{searchimpl.NewPgxAdapter(cfg.Database.Conn)}, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func applyFlags(cfg *Config) {
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if connString != "" {
		cfg.Database.Conn = connString
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
}

func main() {
	flag.Parse()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if issueToken != "" {
		if cfg.Auth.JwtSecret == "" {
			log.Fatal("auth.jwt_secret is required to issue tokens")
		}
		token, err := searchserver.IssueToken([]byte(cfg.Auth.JwtSecret), "searchd", tokenTTL, strings.Split(issueToken, ",")...)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := store.Startup(); err != nil {
		log.Fatal(err)
	}
	defer func(store storage) {
		if err := store.Close(); err != nil {
			log.Println("error while closing storage ", err)
		}
	}(store)

	if setupOnly {
		if err := store.Setup(context.Background()); errors.Is(err, searchapi.ErrSchemaAlreadyExists) {
			log.Println("[WARN]", "schema already exists, nothing to do")
			_ = store.Close()
			os.Exit(1)
		} else if err != nil {
			log.Fatal(err)
		}
		log.Println("schema created.")
		return
	}

	req := &searchserver.SearchServerReq{
		Addr:     cfg.Server.Addr,
		TlsAddr:  cfg.Server.TlsAddr,
		CertFile: cfg.Server.CertFile,
		KeyFile:  cfg.Server.KeyFile,
		Adapter:  store,
	}
	req.Auth.JwtSecret = []byte(cfg.Auth.JwtSecret)
	req.Auth.ProtectReads = cfg.Auth.ProtectReads
	req.DebugOpt.PrintRegisteredAPIs = cfg.Debug.PrintRegisteredAPIs

	server, err := searchserver.NewSearchServer(req)
	if err != nil {
		log.Fatal(err)
	}
	if err := server.Startup(); err != nil {
		log.Fatal(err)
	}
	defer func(server *searchserver.SearchServer) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Println("error while shutting down server ", err)
		}
	}(server)

	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)
	<-s
	log.Println("Shutting down...")
}
