// Package loader parses loader command flags and runs bulk store
// maintenance: directory imports and full table dumps.
package loader

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	entrypoint "github.com/talendarch/storygraph/internal/platform/cmd"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/storage/dynamo"
	"github.com/talendarch/storygraph/internal/storage/memory"
	"github.com/talendarch/storygraph/internal/storage/sqlite"
	"github.com/talendarch/storygraph/internal/story"
)

// Config holds loader command configuration.
type Config struct {
	Backend string `env:"STORYGRAPH_BACKEND" envDefault:"sqlite"`

	SQLitePath  string `env:"STORYGRAPH_SQLITE_PATH" envDefault:"storygraph.db"`
	AWSRegion   string `env:"STORYGRAPH_AWS_REGION"`
	DynamoTable string `env:"STORYGRAPH_DYNAMO_TABLE" envDefault:"stories"`

	Dir  string
	Scan bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Node store backend: sqlite, dynamo, or memory")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "Path to the sqlite database file")
	fs.StringVar(&cfg.DynamoTable, "table", cfg.DynamoTable, "DynamoDB table name")
	fs.StringVar(&cfg.Dir, "dir", "", "Directory of story node files to import")
	fs.BoolVar(&cfg.Scan, "scan", false, "Dump every stored node instead of importing")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg Config) (storage.NodeStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case "dynamo":
		store, err := dynamo.Open(ctx, cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			return nil, nil, fmt.Errorf("open dynamo store: %w", err)
		}
		return store, func() error { return nil }, nil
	case "memory":
		return memory.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run executes the loader in import or scan mode.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLoader, func(ctx context.Context) error {
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		if cfg.Scan {
			return Dump(ctx, store, os.Stdout)
		}
		if cfg.Dir == "" {
			return fmt.Errorf("-dir is required unless -scan is set")
		}
		loaded, err := Import(ctx, store, os.DirFS(cfg.Dir))
		if err != nil {
			return err
		}
		log.Printf("imported %d nodes", loaded)
		return nil
	})
}

// Import reads every node file in dir and writes it to the store. Files that
// are not JSON, carry an invalid name, or fail to parse are skipped with a
// log line; a store write failure is also skipped so the rest of the
// directory still loads. Returns the number of nodes written.
func Import(ctx context.Context, store storage.NodeStore, dir fs.FS) (int, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := story.ParseFilename(entry.Name())
		if err != nil {
			log.Printf("skipping invalid filename %s", entry.Name())
			continue
		}
		data, err := fs.ReadFile(dir, entry.Name())
		if err != nil {
			log.Printf("read %s: %v", entry.Name(), err)
			continue
		}
		var node story.Node
		if err := json.Unmarshal(data, &node); err != nil {
			log.Printf("parse %s: %v", entry.Name(), err)
			continue
		}
		node.ID = id
		if err := store.Put(ctx, node); err != nil {
			log.Printf("upload %s: %v", story.Key(id), err)
			continue
		}
		log.Printf("uploaded %s", story.Key(id))
		loaded++
	}
	return loaded, nil
}

// Dump writes every stored node to w as indented JSON, one document per
// node, in store order.
func Dump(ctx context.Context, store storage.NodeStore, w io.Writer) error {
	nodes, err := storage.ScanAll(ctx, store, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "found %d node(s)\n", len(nodes))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, node := range nodes {
		doc := struct {
			StoryID string         `json:"storyId"`
			Section string         `json:"section"`
			Title   string         `json:"title"`
			Content string         `json:"content"`
			Options []story.Option `json:"options"`
		}{
			StoryID: story.Key(node.ID),
			Section: node.ID,
			Title:   node.Title,
			Content: node.Content,
			Options: node.Options,
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}
