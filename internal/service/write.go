// Package service orchestrates the story write and read paths over the node
// store.
package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/talendarch/storygraph/internal/auth"
	"github.com/talendarch/storygraph/internal/graph"
	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/story"
)

// Authorizer authenticates an authorization header value and authorizes the
// caller for writes.
type Authorizer interface {
	Authorize(ctx context.Context, authorization string) (auth.Identity, error)
}

// payload is the accepted write body shape. The section id never comes from
// the body; it derives from the filename parameter even if the body
// disagrees.
type payload struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Options []story.Option `json:"options"`
}

// WriteService handles authenticated node saves.
type WriteService struct {
	authorizer Authorizer
	store      storage.NodeStore
	completion *graph.Engine
	cache      *ReadCache
}

// NewWriteService wires the write path. cache may be nil.
func NewWriteService(authorizer Authorizer, store storage.NodeStore, completion *graph.Engine, cache *ReadCache) *WriteService {
	return &WriteService{
		authorizer: authorizer,
		store:      store,
		completion: completion,
		cache:      cache,
	}
}

// Save authorizes the caller, validates the filename-style parameter and
// body, and persists the node. The node write is the one guaranteed
// mutation; stub completion afterwards is best-effort and never fails a
// save that already reached the store.
func (s *WriteService) Save(ctx context.Context, filename string, body []byte, authorization string) (story.Node, error) {
	if s == nil || s.store == nil || s.authorizer == nil {
		return story.Node{}, apperrors.New(apperrors.CodeStoreUnavailable, "write service is not configured")
	}

	identity, err := s.authorizer.Authorize(ctx, authorization)
	if err != nil {
		return story.Node{}, err
	}

	id, err := story.ParseFilename(filename)
	if err != nil {
		return story.Node{}, apperrors.Wrap(apperrors.CodeInvalidFilename, "invalid filename", err)
	}

	var parsed payload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return story.Node{}, apperrors.Wrap(apperrors.CodeInvalidBody, "invalid JSON in request body", err)
	}

	node := story.Node{
		ID:      id,
		Title:   parsed.Title,
		Content: parsed.Content,
		Options: parsed.Options,
	}

	if err := s.store.Put(ctx, node); err != nil {
		return story.Node{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "save failed", err)
	}
	log.Printf("saved node %s (editor %s)", story.Key(id), identity.Email)

	if s.completion != nil {
		if err := s.completion.EnsureTargetsExist(ctx, node); err != nil {
			// The primary write is durable; unresolved stubs heal on a
			// later write or retry.
			log.Printf("complete targets of node %s: %v", story.Key(id), err)
		}
	}

	s.cache.Invalidate()
	return node, nil
}
