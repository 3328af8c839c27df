package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/telemetry"
)

// Kind is the role a component plays in the agent.
type Kind string

const (
	// KindInput components are declared in <source> blocks.
	KindInput Kind = "input"

	// KindOutput components are declared in <match pattern> blocks.
	KindOutput Kind = "output"
)

// Block returns the element name that declares components of this kind.
func (k Kind) Block() string {
	switch k {
	case KindInput:
		return "source"
	case KindOutput:
		return "match"
	default:
		return ""
	}
}

// kindForBlock maps a top-level element name to a component kind.
func kindForBlock(name string) (Kind, bool) {
	switch name {
	case "source":
		return KindInput, true
	case "match":
		return KindOutput, true
	default:
		return "", false
	}
}

// SettingsFactory returns a pointer to a fresh settings struct that a
// configured instance is decoded into.
type SettingsFactory func() interface{}

// Descriptor describes a registered component type.
type Descriptor struct {
	// Kind is the component kind.
	Kind Kind `json:"kind" yaml:"kind"`

	// Type is the value of the `type` parameter selecting this component.
	Type string `json:"type" yaml:"type"`

	// Parent is the type this one inherits parameters from, if any.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Abstract types can be inherited from but not instantiated.
	Abstract bool `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Sections lists the nested sub-blocks the type reads.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// entry is a registered component type.
type entry struct {
	desc     Descriptor
	schema   *config.Schema
	settings SettingsFactory
	sections map[string]*section
}

// section is a registered sub-block of a component type.
type section struct {
	schema   *config.Schema
	settings SettingsFactory
}

// Catalog holds the component types the agent can build from configuration.
type Catalog struct {
	// mu protects the catalog state.
	mu sync.RWMutex

	// registry holds the parameter schemas of every type and section.
	registry *config.Registry

	// entries maps kind/type keys to registered types.
	entries map[string]*entry

	logger *telemetry.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *telemetry.Logger) *Catalog {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	logger = logger.NewComponentLogger("catalog")

	return &Catalog{
		registry: config.NewRegistry(logger.Zerolog()),
		entries:  make(map[string]*entry),
		logger:   logger,
	}
}

// schemaName is the registry name for a kind's type. Inputs and outputs
// share type names, so the registry keys are prefixed.
func schemaName(kind Kind, typeName string) string {
	switch kind {
	case KindInput:
		return "in_" + typeName
	case KindOutput:
		return "out_" + typeName
	default:
		return string(kind) + "_" + typeName
	}
}

func buildEntryKey(kind Kind, typeName string) string {
	return string(kind) + "/" + typeName
}

// Register adds a component type. The parent, if set, must already be
// registered with the same kind. settings may be nil.
func (c *Catalog) Register(desc Descriptor, declare func(b *config.SchemaBuilder), settings SettingsFactory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if desc.Kind.Block() == "" {
		return fmt.Errorf("unknown component kind %q", desc.Kind)
	}

	key := buildEntryKey(desc.Kind, desc.Type)
	if _, exists := c.entries[key]; exists {
		return fmt.Errorf("%s type %s already registered", desc.Kind, desc.Type)
	}

	parent := ""
	if desc.Parent != "" {
		if _, ok := c.entries[buildEntryKey(desc.Kind, desc.Parent)]; !ok {
			return fmt.Errorf("%s type %s: parent %s is not registered", desc.Kind, desc.Type, desc.Parent)
		}
		parent = schemaName(desc.Kind, desc.Parent)
	}

	schema, err := c.registry.Define(schemaName(desc.Kind, desc.Type), parent, declare)
	if err != nil {
		return fmt.Errorf("failed to define %s type %s: %w", desc.Kind, desc.Type, err)
	}

	c.entries[key] = &entry{
		desc:     desc,
		schema:   schema,
		settings: settings,
		sections: make(map[string]*section),
	}

	c.logger.WithPlugin(string(desc.Kind), desc.Type).Debugf("registered component type (parent %q)", desc.Parent)
	return nil
}

// RegisterSection declares the parameters of a nested sub-block read by a
// registered type, such as the <server> blocks of a forward output.
// settings may be nil.
func (c *Catalog) RegisterSection(kind Kind, typeName, name string, declare func(b *config.SchemaBuilder), settings SettingsFactory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[buildEntryKey(kind, typeName)]
	if !ok {
		return fmt.Errorf("%s type %s is not registered", kind, typeName)
	}
	if _, exists := e.sections[name]; exists {
		return fmt.Errorf("%s type %s: section <%s> already registered", kind, typeName, name)
	}

	schema, err := c.registry.Define(schemaName(kind, typeName)+"."+name, "", declare)
	if err != nil {
		return fmt.Errorf("failed to define section <%s> of %s: %w", name, typeName, err)
	}

	e.sections[name] = &section{schema: schema, settings: settings}
	e.desc.Sections = append(e.desc.Sections, name)
	return nil
}

// Lookup returns the descriptor and resolved schema of a registered type.
func (c *Catalog) Lookup(kind Kind, typeName string) (Descriptor, *config.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[buildEntryKey(kind, typeName)]
	if !ok {
		return Descriptor{}, nil, false
	}
	return e.desc, e.schema, true
}

// Section returns the schema of a registered type's sub-block.
func (c *Catalog) Section(kind Kind, typeName, name string) (*config.Schema, bool) {
	sec, ok := c.lookupSection(kind, typeName, name)
	if !ok {
		return nil, false
	}
	return sec.schema, true
}

func (c *Catalog) lookupSection(kind Kind, typeName, name string) (*section, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[buildEntryKey(kind, typeName)]
	if !ok {
		return nil, false
	}
	sec, ok := e.sections[name]
	return sec, ok
}

// List returns all registered types ordered by kind then type.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Descriptor, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e.desc)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Kind != list[j].Kind {
			return list[i].Kind < list[j].Kind
		}
		return list[i].Type < list[j].Type
	})
	return list
}

// Ancestry returns a type's inheritance chain, base first, as type names.
func (c *Catalog) Ancestry(kind Kind, typeName string) []string {
	chain := c.registry.Ancestry(schemaName(kind, typeName))
	prefix := len(schemaName(kind, ""))
	names := make([]string, 0, len(chain))
	for _, name := range chain {
		names = append(names, name[prefix:])
	}
	return names
}

func (c *Catalog) lookupEntry(kind Kind, typeName string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[buildEntryKey(kind, typeName)]
	return e, ok
}
