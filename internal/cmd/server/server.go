// Package server parses server command flags and starts the story API.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/talendarch/storygraph/internal/auth"
	"github.com/talendarch/storygraph/internal/graph"
	entrypoint "github.com/talendarch/storygraph/internal/platform/cmd"
	"github.com/talendarch/storygraph/internal/service"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/storage/dynamo"
	"github.com/talendarch/storygraph/internal/storage/memory"
	"github.com/talendarch/storygraph/internal/storage/sqlite"
	"github.com/talendarch/storygraph/internal/web"
)

// Backend names accepted by the -backend flag and STORYGRAPH_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendDynamo = "dynamo"
	BackendMemory = "memory"
)

// Config holds server command configuration.
type Config struct {
	Port    int    `env:"STORYGRAPH_PORT" envDefault:"8080"`
	Addr    string `env:"STORYGRAPH_ADDR"`
	Backend string `env:"STORYGRAPH_BACKEND" envDefault:"sqlite"`

	SQLitePath  string `env:"STORYGRAPH_SQLITE_PATH" envDefault:"storygraph.db"`
	AWSRegion   string `env:"STORYGRAPH_AWS_REGION"`
	DynamoTable string `env:"STORYGRAPH_DYNAMO_TABLE" envDefault:"stories"`

	Issuer      string `env:"STORYGRAPH_ISSUER"`
	UserPoolID  string `env:"STORYGRAPH_USER_POOL_ID"`
	AdminEmail  string `env:"STORYGRAPH_ADMIN_EMAIL"`
	EditorGroup string `env:"STORYGRAPH_EDITOR_GROUP"`

	ReadCache  bool          `env:"STORYGRAPH_READ_CACHE" envDefault:"false"`
	ScanBudget time.Duration `env:"STORYGRAPH_SCAN_BUDGET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The server listen address (overrides -port)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Node store backend: sqlite, dynamo, or memory")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "Path to the sqlite database file")
	fs.StringVar(&cfg.DynamoTable, "table", cfg.DynamoTable, "DynamoDB table name")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// issuer resolves the expected token issuer, deriving it from the Cognito
// user pool when no explicit issuer is configured.
func (cfg Config) issuer() string {
	if cfg.Issuer != "" {
		return cfg.Issuer
	}
	if cfg.AWSRegion != "" && cfg.UserPoolID != "" {
		return auth.IssuerForUserPool(cfg.AWSRegion, cfg.UserPoolID)
	}
	return ""
}

func (cfg Config) listenAddr() string {
	if cfg.Addr != "" {
		return cfg.Addr
	}
	return net.JoinHostPort("", strconv.Itoa(cfg.Port))
}

func openStore(ctx context.Context, cfg Config) (storage.NodeStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case BackendDynamo:
		store, err := dynamo.Open(ctx, cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			return nil, nil, fmt.Errorf("open dynamo store: %w", err)
		}
		return store, func() error { return nil }, nil
	case BackendMemory:
		return memory.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run starts the story API server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		issuer := cfg.issuer()
		gate, err := auth.NewGate(ctx, auth.Config{
			Issuer:      issuer,
			JWKSURL:     auth.JWKSURLForIssuer(issuer),
			AdminEmail:  cfg.AdminEmail,
			EditorGroup: cfg.EditorGroup,
		})
		if err != nil {
			return fmt.Errorf("configure auth gate: %w", err)
		}

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		var cache *service.ReadCache
		if cfg.ReadCache {
			cache = service.NewReadCache()
		}

		writeSvc := service.NewWriteService(gate, store, graph.NewEngine(store), cache)
		readSvc := service.NewReadService(store, cfg.ScanBudget, cache)

		srv, err := web.NewServer(cfg.listenAddr(), web.NewHandler(writeSvc, readSvc))
		if err != nil {
			return err
		}
		log.Printf("listening on %s (backend %s)", srv.Addr(), cfg.Backend)
		return srv.Serve(ctx)
	})
}
