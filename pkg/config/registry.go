package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry maps component types to their parameter schemas.
//
// Types are defined once, base types before derived ones, during program
// initialization. Each type's effective schema is resolved at definition
// time by folding its ancestry from the most basic type down and is never
// recomputed.
type Registry struct {
	mu      sync.RWMutex
	own     map[string]*SchemaBuilder
	parents map[string]string
	schemas map[string]*Schema
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		own:     make(map[string]*SchemaBuilder),
		parents: make(map[string]string),
		schemas: make(map[string]*Schema),
		logger:  logger.With().Str("component", "config-registry").Logger(),
	}
}

// Define declares the parameters of typeName, inheriting from parent when it
// is not empty. The parent must already be defined. Declaration errors are
// returned joined; nothing is registered in that case.
func (r *Registry) Define(typeName, parent string, declare func(b *SchemaBuilder)) (*Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if typeName == "" {
		return nil, NewDeclarationError(typeName, "", "type name is required")
	}
	if _, exists := r.schemas[typeName]; exists {
		return nil, NewDeclarationError(typeName, "", "type already defined")
	}
	if parent != "" {
		if _, exists := r.schemas[parent]; !exists {
			return nil, NewDeclarationError(typeName, "",
				fmt.Sprintf("parent type %q is not defined", parent))
		}
	}

	b := newSchemaBuilder(typeName)
	if declare != nil {
		declare(b)
	}
	if err := b.err(); err != nil {
		return nil, err
	}

	r.own[typeName] = b
	r.parents[typeName] = parent

	schema := &Schema{
		Type:     typeName,
		Parent:   parent,
		params:   orderedmap.New[string, *ParamSpec](),
		defaults: orderedmap.New[string, interface{}](),
		registry: r,
	}
	for _, level := range r.ancestry(typeName) {
		mergeSchema(schema, r.own[level])
	}
	r.schemas[typeName] = schema

	r.logger.Debug().
		Str("type", typeName).
		Str("parent", parent).
		Int("params", schema.params.Len()).
		Msg("Schema defined")

	return schema, nil
}

// MustDefine is like Define but panics on a declaration error.
func (r *Registry) MustDefine(typeName, parent string, declare func(b *SchemaBuilder)) *Schema {
	schema, err := r.Define(typeName, parent, declare)
	if err != nil {
		panic(err)
	}
	return schema
}

// Lookup returns the effective schema of typeName.
func (r *Registry) Lookup(typeName string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[typeName]
	return schema, ok
}

// Types returns all defined type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ancestry returns typeName's inheritance chain from the most basic type to
// typeName itself. It returns nil for an undefined type.
func (r *Registry) Ancestry(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.own[typeName]; !ok {
		return nil
	}
	return r.ancestry(typeName)
}

func (r *Registry) ancestry(typeName string) []string {
	var chain []string
	for t := typeName; t != ""; t = r.parents[t] {
		chain = append(chain, t)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
