package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/circuitgo/internal/flow"
)

// Module is the interface that all node modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Kind is one entry of the node catalog.
type Kind struct {
	// Name is the stable identifier recorded in snapshots.
	Name string
	// DisplayName is shown in menus and matched by Search.
	DisplayName string
	// Category groups kinds in the menu.
	Category string
	// New returns a fresh description of the node's ports. It is called once
	// per instantiation.
	New func() flow.Spec
}

// Group is a menu section: the kinds of one category, sorted by display name.
type Group struct {
	Category string
	Kinds    []*Kind
}

// Registry holds the node kinds registered for a single application instance.
type Registry struct {
	kinds map[string]*Kind
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// RegisterKind adds k to the catalog. Registering the same name twice is a
// programmer error and panics.
func (r *Registry) RegisterKind(k *Kind) {
	if k == nil || k.Name == "" {
		panic("node kind must have a name")
	}
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("node kind '%s' already registered", k.Name))
	}
	slog.Debug("Registering node kind.", "kind", k.Name, "category", k.Category)
	r.kinds[k.Name] = k
}

// Kind looks up a kind by name.
func (r *Registry) Kind(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns every kind sorted by name.
func (r *Registry) Kinds() []*Kind {
	kinds := make([]*Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

// Groups returns the catalog grouped by category. Categories and the kinds
// inside them are sorted by name.
func (r *Registry) Groups() []Group {
	return group(r.Kinds())
}

// Search returns the groups whose kinds' display names contain query,
// ignoring case. An empty query matches everything. Categories left empty
// are omitted.
func (r *Registry) Search(query string) []Group {
	q := strings.ToLower(strings.TrimSpace(query))
	var matched []*Kind
	for _, k := range r.Kinds() {
		if strings.Contains(strings.ToLower(k.DisplayName), q) {
			matched = append(matched, k)
		}
	}
	return group(matched)
}

func group(kinds []*Kind) []Group {
	byCategory := make(map[string][]*Kind)
	for _, k := range kinds {
		byCategory[k.Category] = append(byCategory[k.Category], k)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	groups := make([]Group, 0, len(categories))
	for _, c := range categories {
		ks := byCategory[c]
		sort.SliceStable(ks, func(i, j int) bool { return ks[i].DisplayName < ks[j].DisplayName })
		groups = append(groups, Group{Category: c, Kinds: ks})
	}
	return groups
}

// Instantiate creates a node of the named kind bound to rt. An empty id gets
// a generated one. It must run inside rt.Do when rt is shared.
func (r *Registry) Instantiate(rt *flow.Runtime, kind, id string) (*flow.Node, error) {
	k, ok := r.kinds[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	spec := k.New()
	spec.Kind = k.Name
	if spec.DisplayName == "" {
		spec.DisplayName = k.DisplayName
	}
	n, err := flow.NewNode(rt, id, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s: %w", kind, err)
	}
	return n, nil
}
