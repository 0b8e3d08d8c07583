// Package story defines the story-graph domain model: nodes addressed by
// section coordinates and the options linking them.
package story

import (
	"fmt"
	"regexp"
	"strings"
)

// KeyPrefix namespaces node ids in the backing store.
const KeyPrefix = "s-"

var (
	filenamePattern = regexp.MustCompile(`^s-(\d+)-(\d+)\.json$`)
	sectionPattern  = regexp.MustCompile(`^\d+-\d+$`)
)

// Option is one outbound edge of a node. Order is meaningful: options are
// presented to the reader in authored order.
type Option struct {
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
}

// Node is the unit of persistence. ID has the form "<chapter>-<page>" and is
// derived from the write request, never from the payload body.
type Node struct {
	ID      string   `json:"-"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Options []Option `json:"options"`
}

// View is the client-facing read shape: node fields flattened alongside the id.
type View struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Options []Option `json:"options"`
}

// ParseFilename extracts the section id from a filename-style parameter of
// the form "s-<chapter>-<page>.json".
func ParseFilename(name string) (string, error) {
	match := filenamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if match == nil {
		return "", fmt.Errorf("invalid filename %q: want s-<chapter>-<page>.json", name)
	}
	return match[1] + "-" + match[2], nil
}

// ValidSectionID reports whether id has the "<chapter>-<page>" form.
func ValidSectionID(id string) bool {
	return sectionPattern.MatchString(id)
}

// Key returns the physical store key for a section id.
func Key(id string) string {
	return KeyPrefix + id
}

// SectionFromKey strips the store prefix from a physical key.
func SectionFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}

// NewStub returns the placeholder node written for a referenced-but-unauthored
// section. Stub content is always identical, which keeps concurrent stub
// writes idempotent.
func NewStub(id string) Node {
	return Node{
		ID:      id,
		Title:   "",
		Content: "",
		Options: []Option{},
	}
}

// IsStub reports whether a node carries no authored content.
func IsStub(n Node) bool {
	return n.Title == "" && n.Content == "" && len(n.Options) == 0
}

// Targets lists the non-empty option targets of a node in authored order.
// Duplicates are preserved.
func Targets(n Node) []string {
	var targets []string
	for _, opt := range n.Options {
		if opt.Target == "" {
			continue
		}
		targets = append(targets, opt.Target)
	}
	return targets
}

// ToView flattens a node into its client-facing shape. A nil options slice
// becomes an empty one so stubs serialize as [] rather than null.
func ToView(n Node) View {
	options := n.Options
	if options == nil {
		options = []Option{}
	}
	return View{
		ID:      n.ID,
		Title:   n.Title,
		Content: n.Content,
		Options: options,
	}
}
