// Package resolve maps component tag names to fully-qualified class names.
package resolve

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/romshark/tojs/parser/validate"
)

var (
	ErrNoDefaultNamespace = errors.New("default namespace is not set")
	ErrAliasInvalid       = errors.New("invalid alias")
)

// maxSuggestDistance is the largest case-insensitive edit distance
// at which an alias is still suggested for a tag.
const maxSuggestDistance = 2

// Resolver resolves tag names using an alias table and a default
// namespace. It is immutable and safe for concurrent use.
type Resolver struct {
	defaultNamespace string
	aliases          map[string]string
	aliasNames       []string // Sorted.
}

// New creates a resolver. defaultNamespace must be a dotted identifier
// path. Alias names must be identifiers without dots and alias targets
// must be class names.
func New(defaultNamespace string, aliases map[string]string) (*Resolver, error) {
	if defaultNamespace == "" {
		return nil, ErrNoDefaultNamespace
	}
	if err := validate.Namespace(defaultNamespace); err != nil {
		return nil, fmt.Errorf("%w: %q", err, defaultNamespace)
	}
	r := &Resolver{
		defaultNamespace: defaultNamespace,
		aliases:          make(map[string]string, len(aliases)),
	}
	for _, name := range slices.Sorted(maps.Keys(aliases)) {
		target := aliases[name]
		if strings.Contains(name, ".") || validate.IdentPath(name) != nil {
			return nil, fmt.Errorf("%w: name %q", ErrAliasInvalid, name)
		}
		if err := validate.ClassName(target); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrAliasInvalid, name, err)
		}
		r.aliases[name] = target
		r.aliasNames = append(r.aliasNames, name)
	}
	return r, nil
}

// DefaultNamespace returns the namespace unaliased tags resolve into.
func (r *Resolver) DefaultNamespace() string { return r.defaultNamespace }

// Resolve returns the class name for tag. A tag containing a dot is
// already qualified and returned as is, an alias resolves to its target
// and anything else is placed in the default namespace.
func (r *Resolver) Resolve(tag string) string {
	if strings.Contains(tag, ".") {
		return tag
	}
	if target, ok := r.aliases[tag]; ok {
		return target
	}
	return r.defaultNamespace + "." + tag
}

// Aliased reports whether tag is an alias name.
func (r *Resolver) Aliased(tag string) bool {
	_, ok := r.aliases[tag]
	return ok
}

// Suggest returns alias names within a small case-insensitive edit
// distance of an unaliased, unqualified tag, best match first.
// It returns nil for aliases and qualified names.
func (r *Resolver) Suggest(tag string) []string {
	if tag == "" || strings.Contains(tag, ".") || r.Aliased(tag) {
		return nil
	}
	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	lower := strings.ToLower(tag)
	for _, name := range r.aliasNames {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(name))
		if d <= maxSuggestDistance {
			candidates = append(candidates, candidate{name: name, distance: d})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(a.distance, b.distance)
	})
	var names []string
	for _, c := range candidates {
		names = append(names, c.name)
	}
	return names
}
