package service

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
	"github.com/talendarch/storygraph/internal/platform/timeouts"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/story"
)

// ReadService serves the full story graph to readers.
type ReadService struct {
	store  storage.NodeStore
	budget time.Duration
	cache  *ReadCache
}

// NewReadService wires the read path. budget bounds the wall-clock time of a
// full scan; zero selects the shared default. cache may be nil.
func NewReadService(store storage.NodeStore, budget time.Duration, cache *ReadCache) *ReadService {
	if budget <= 0 {
		budget = timeouts.Scan
	}
	return &ReadService{store: store, budget: budget, cache: cache}
}

// ReadAll scans every node of the selected collection (empty means the
// default) and reshapes records into the flattened client view. The scan
// runs under the configured budget; on expiry the in-flight store call is
// cancelled and an error is returned; a partial list is never served as
// complete.
func (s *ReadService) ReadAll(ctx context.Context, collection string) ([]story.View, error) {
	if s == nil || s.store == nil {
		return nil, apperrors.New(apperrors.CodeStoreUnavailable, "read service is not configured")
	}

	if collection == "" {
		if views, ok := s.cache.Lookup(); ok {
			return views, nil
		}
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	nodes, err := storage.ScanAll(scanCtx, s.store, collection)
	if err != nil {
		if errors.Is(err, storage.ErrUnknownCollection) {
			return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "unknown collection", err)
		}
		return nil, err
	}

	views := make([]story.View, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, story.ToView(node))
	}
	log.Printf("read %d nodes", len(views))

	if collection == "" {
		s.cache.Store(views)
	}
	return views, nil
}
