// Package sqlite provides a SQLite-backed story node store. Node payloads
// persist in the original record layout: the store key, the section id, and
// the node fields nested under a raw JSON column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/talendarch/storygraph/internal/platform/storage/sqlitemigrate"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/storage/sqlite/migrations"
	"github.com/talendarch/storygraph/internal/story"
	_ "modernc.org/sqlite"
)

// defaultScanPageSize bounds a single scan page. The full-scan loop in
// storage.ScanAll stitches pages together.
const defaultScanPageSize = 100

// rawNode is the JSON shape of the raw column.
type rawNode struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Options []story.Option `json:"options"`
}

// Store persists story nodes in SQLite.
type Store struct {
	sqlDB    *sql.DB
	pageSize int
}

// Open opens a SQLite node store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, pageSize: defaultScanPageSize}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SetPageSize overrides the scan page size.
func (s *Store) SetPageSize(size int) {
	if s == nil || size <= 0 {
		return
	}
	s.pageSize = size
}

// Get fetches a node by section id.
func (s *Store) Get(ctx context.Context, id string) (story.Node, error) {
	if err := ctx.Err(); err != nil {
		return story.Node{}, err
	}
	if s == nil || s.sqlDB == nil {
		return story.Node{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return story.Node{}, fmt.Errorf("section id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT section, raw FROM story_nodes WHERE story_id = ?`,
		story.Key(id),
	)

	var section string
	var rawJSON string
	if err := row.Scan(&section, &rawJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return story.Node{}, storage.ErrNotFound
		}
		return story.Node{}, fmt.Errorf("get node %s: %w", id, err)
	}
	return decodeNode(section, rawJSON)
}

// Put stores a node, replacing any previous record with the same id.
func (s *Store) Put(ctx context.Context, node story.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(node.ID)
	if id == "" {
		return fmt.Errorf("section id is required")
	}

	rawJSON, err := json.Marshal(rawNode{
		Title:   node.Title,
		Content: node.Content,
		Options: normalizeOptions(node.Options),
	})
	if err != nil {
		return fmt.Errorf("marshal node %s: %w", id, err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO story_nodes (story_id, section, raw)
		 VALUES (?, ?, ?)
		 ON CONFLICT(story_id) DO UPDATE SET section = excluded.section, raw = excluded.raw`,
		story.Key(id),
		id,
		string(rawJSON),
	)
	if err != nil {
		return fmt.Errorf("put node %s: %w", id, err)
	}
	return nil
}

// ScanPage returns one page of nodes in key order. The continuation token is
// the store key of the last returned node.
func (s *Store) ScanPage(ctx context.Context, collection, pageToken string) (storage.Page, error) {
	if err := ctx.Err(); err != nil {
		return storage.Page{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Page{}, fmt.Errorf("storage is not configured")
	}
	if collection != "" {
		return storage.Page{}, storage.ErrUnknownCollection
	}
	pageToken = strings.TrimSpace(pageToken)

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT story_id, section, raw FROM story_nodes
			  ORDER BY story_id ASC
			  LIMIT ?`,
			s.pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT story_id, section, raw FROM story_nodes
			  WHERE story_id > ?
			  ORDER BY story_id ASC
			  LIMIT ?`,
			pageToken,
			s.pageSize+1,
		)
	}
	if err != nil {
		return storage.Page{}, fmt.Errorf("scan nodes: %w", err)
	}
	defer rows.Close()

	page := storage.Page{Nodes: make([]story.Node, 0, s.pageSize)}
	for rows.Next() {
		var storyID, section, rawJSON string
		if err := rows.Scan(&storyID, &section, &rawJSON); err != nil {
			return storage.Page{}, fmt.Errorf("scan nodes: %w", err)
		}
		node, err := decodeNode(section, rawJSON)
		if err != nil {
			return storage.Page{}, err
		}
		page.Nodes = append(page.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return storage.Page{}, fmt.Errorf("scan nodes: %w", err)
	}
	if len(page.Nodes) > s.pageSize {
		page.NextPageToken = story.Key(page.Nodes[s.pageSize-1].ID)
		page.Nodes = page.Nodes[:s.pageSize]
	}
	return page, nil
}

func decodeNode(section, rawJSON string) (story.Node, error) {
	var raw rawNode
	if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
		return story.Node{}, fmt.Errorf("unmarshal node %s: %w", section, err)
	}
	return story.Node{
		ID:      section,
		Title:   raw.Title,
		Content: raw.Content,
		Options: raw.Options,
	}, nil
}

func normalizeOptions(options []story.Option) []story.Option {
	if options == nil {
		return []story.Option{}
	}
	return options
}
