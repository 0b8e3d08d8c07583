// Package graph keeps the story graph referentially complete: every option
// target a writer links to must resolve to a stored node, if only a stub.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/story"
)

// Engine creates stub nodes for unresolved option targets.
type Engine struct {
	store storage.NodeStore
}

// NewEngine creates a completion engine over the given store.
func NewEngine(store storage.NodeStore) *Engine {
	return &Engine{store: store}
}

// EnsureTargetsExist walks the node's option targets in order and creates a
// stub for each target absent from the store. It is called after the node
// itself has been durably written.
//
// Stub creation is best-effort: a failed lookup or put is logged and
// recorded, and processing continues with the remaining targets. The
// returned error (code STUB_COMPLETION_FAILED) reports which targets stayed
// unresolved; callers log it without failing the write that already
// succeeded.
//
// The existence check and the stub put are not atomic. Two concurrent writes
// referencing the same absent target both observe "absent" and both write
// the stub; because stub content is always identical the second put is a
// harmless rewrite. If an editor concurrently writes real content to the
// same id, arrival order decides the stored content (last-write-wins at the
// store layer) with no ordering guarantee.
func (e *Engine) EnsureTargetsExist(ctx context.Context, node story.Node) error {
	if e == nil || e.store == nil {
		return apperrors.New(apperrors.CodeStoreUnavailable, "node store is not configured")
	}

	var failed []string
	for _, target := range story.Targets(node) {
		if !story.ValidSectionID(target) {
			log.Printf("node %s references malformed target %q, skipping stub", node.ID, target)
			failed = append(failed, target)
			continue
		}

		_, err := e.store.Get(ctx, target)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("check target %s of node %s: %v", target, node.ID, err)
			failed = append(failed, target)
			continue
		}

		if err := e.store.Put(ctx, story.NewStub(target)); err != nil {
			log.Printf("create stub %s for node %s: %v", story.Key(target), node.ID, err)
			failed = append(failed, target)
			continue
		}
		log.Printf("created stub: %s", story.Key(target))
	}

	if len(failed) > 0 {
		return apperrors.WithMetadata(
			apperrors.CodeStubCompletionFailed,
			fmt.Sprintf("%d of %d stub targets unresolved for node %s", len(failed), len(story.Targets(node)), node.ID),
			map[string]string{"targets": strings.Join(failed, ",")},
		)
	}
	return nil
}
