// Package memory provides an in-memory NodeStore for tests and local
// development. Scan order is deterministic (sorted by store key).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/story"
)

const defaultPageSize = 2

// Store holds nodes in a mutex-guarded map.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]story.Node
	pageSize int
}

// New creates an empty in-memory store. The scan page size is deliberately
// small so the pagination loop is exercised even by small fixtures.
func New() *Store {
	return &Store{
		nodes:    make(map[string]story.Node),
		pageSize: defaultPageSize,
	}
}

// SetPageSize overrides the scan page size.
func (s *Store) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = size
}

// Len reports the number of stored nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Get fetches a node by section id.
func (s *Store) Get(ctx context.Context, id string) (story.Node, error) {
	if err := ctx.Err(); err != nil {
		return story.Node{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[story.Key(id)]
	if !ok {
		return story.Node{}, storage.ErrNotFound
	}
	return node, nil
}

// Put stores a node, replacing any previous record with the same id.
func (s *Store) Put(ctx context.Context, node story.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[story.Key(node.ID)] = node
	return nil
}

// ScanPage returns one page of nodes in key order. The continuation token is
// the store key of the last returned node.
func (s *Store) ScanPage(ctx context.Context, collection, pageToken string) (storage.Page, error) {
	if err := ctx.Err(); err != nil {
		return storage.Page{}, err
	}
	if collection != "" {
		return storage.Page{}, storage.ErrUnknownCollection
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.nodes))
	for key := range s.nodes {
		if pageToken != "" && key <= pageToken {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	page := storage.Page{}
	if len(keys) > s.pageSize {
		page.NextPageToken = keys[s.pageSize-1]
		keys = keys[:s.pageSize]
	}
	for _, key := range keys {
		page.Nodes = append(page.Nodes, s.nodes[key])
	}
	return page, nil
}
