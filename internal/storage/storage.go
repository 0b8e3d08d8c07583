// Package storage defines persistence contracts for story nodes. Backends
// live in subpackages (dynamo, sqlite, memory).
package storage

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
	"github.com/talendarch/storygraph/internal/story"
)

var (
	// ErrNotFound indicates a requested node is missing. Absence is not a
	// failure of the store itself.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCollection indicates a scan named a collection the backend
	// does not host.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Page holds one page of a node scan. NextPageToken is opaque; an empty
// token means the scan is complete.
type Page struct {
	Nodes         []story.Node
	NextPageToken string
}

// NodeStore persists story nodes keyed by section id.
//
// Get returns ErrNotFound when the id is absent. Put is an unconditional
// create-or-replace of the full record. ScanPage returns one page of the
// named collection (empty collection means the backend's default), with a
// continuation token when more pages remain.
type NodeStore interface {
	Get(ctx context.Context, id string) (story.Node, error)
	Put(ctx context.Context, node story.Node) error
	ScanPage(ctx context.Context, collection, pageToken string) (Page, error)
}

// ScanAll drives a paginated scan to completion: it fetches pages until the
// store reports no continuation token, buffering every node. A failed page
// fetch aborts the whole scan; partial results are never returned as
// success. Collection size is unbounded by the store, so the loop has no
// page budget of its own; the caller bounds it through ctx.
func ScanAll(ctx context.Context, store NodeStore, collection string) ([]story.Node, error) {
	if store == nil {
		return nil, apperrors.New(apperrors.CodeStoreUnavailable, "node store is not configured")
	}

	var nodes []story.Node
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeScanTimeout, "scan aborted", err)
		}
		page, err := store.ScanPage(ctx, collection, pageToken)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.Wrap(apperrors.CodeScanTimeout, "scan aborted", err)
			}
			return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, fmt.Sprintf("scan page (token %q)", pageToken), err)
		}
		nodes = append(nodes, page.Nodes...)
		if page.NextPageToken == "" {
			return nodes, nil
		}
		pageToken = page.NextPageToken
	}
}
