package config

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParamType is the type tag of a declared parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeSize    ParamType = "size"
	TypeBool    ParamType = "bool"
	TypeTime    ParamType = "time"
)

// Well-known option keys.
const (
	OptionType    = "type"
	OptionDefault = "default"
)

// Options is the open set of settings attached to a parameter.
type Options map[string]interface{}

// CoerceFunc converts a raw attribute value into the parameter's typed value.
type CoerceFunc func(raw string, opts Options, name string) (interface{}, error)

// ParamSpec is one declared parameter.
type ParamSpec struct {
	// Name is the attribute key the parameter is read from.
	Name string

	// Coerce converts the raw attribute value.
	Coerce CoerceFunc

	// Options holds the declaration settings, including "type" and "default".
	Options Options

	custom bool
}

// Type returns the declared type tag. Parameters declared without a type
// are strings; a custom coercion has no type and returns "".
func (p *ParamSpec) Type() ParamType {
	if t, ok := p.Options[OptionType].(ParamType); ok {
		return t
	}
	if p.custom {
		return ""
	}
	return TypeString
}

// Default returns the default declared with the parameter.
func (p *ParamSpec) Default() (interface{}, bool) {
	v, ok := p.Options[OptionDefault]
	return v, ok
}

var coercions = map[ParamType]CoerceFunc{
	TypeString: func(raw string, _ Options, _ string) (interface{}, error) {
		return raw, nil
	},
	TypeInteger: func(raw string, _ Options, _ string) (interface{}, error) {
		return ParseInt(raw), nil
	},
	TypeSize: func(raw string, _ Options, _ string) (interface{}, error) {
		return ParseSize(raw), nil
	},
	TypeBool: func(raw string, _ Options, _ string) (interface{}, error) {
		// An unrecognized boolean is stored as nil: set, but neither true
		// nor false.
		if v, ok := ParseBool(raw); ok {
			return v, nil
		}
		return nil, nil
	},
	TypeTime: func(raw string, _ Options, _ string) (interface{}, error) {
		return ParseDuration(raw), nil
	},
}

// ParamOption configures a parameter declaration.
type ParamOption func(*paramDecl)

type paramDecl struct {
	typ     ParamType
	coerce  CoerceFunc
	options Options
}

// OfType selects one of the built-in coercions.
func OfType(t ParamType) ParamOption {
	return func(d *paramDecl) {
		d.typ = t
	}
}

// WithCoercion installs a custom coercion function. It cannot be combined
// with OfType.
func WithCoercion(fn CoerceFunc) ParamOption {
	return func(d *paramDecl) {
		d.coerce = fn
	}
}

// WithDefault sets the parameter's default value.
func WithDefault(v interface{}) ParamOption {
	return WithOption(OptionDefault, v)
}

// WithOption sets an arbitrary option passed to the coercion function.
func WithOption(key string, v interface{}) ParamOption {
	return func(d *paramDecl) {
		d.options[key] = v
	}
}

// SchemaBuilder collects the parameters a single type declares itself.
// Declarations of ancestors are merged in by the Registry.
type SchemaBuilder struct {
	typeName string
	params   *orderedmap.OrderedMap[string, *ParamSpec]
	defaults *orderedmap.OrderedMap[string, interface{}]
	errs     []error
}

func newSchemaBuilder(typeName string) *SchemaBuilder {
	return &SchemaBuilder{
		typeName: typeName,
		params:   orderedmap.New[string, *ParamSpec](),
		defaults: orderedmap.New[string, interface{}](),
	}
}

// Param declares a parameter. Without OfType or WithCoercion the raw string
// is kept as is. Declaring a name again replaces the earlier declaration and
// moves it to the end of the declaration order.
func (b *SchemaBuilder) Param(name string, opts ...ParamOption) *SchemaBuilder {
	d := &paramDecl{options: make(Options)}
	for _, opt := range opts {
		opt(d)
	}

	if d.typ != "" && d.coerce != nil {
		b.errs = append(b.errs, NewDeclarationError(b.typeName, name,
			"a type and a coercion function cannot both be given"))
		return b
	}

	coerce := d.coerce
	if coerce == nil {
		typ := d.typ
		if typ == "" {
			typ = TypeString
		}
		fn, ok := coercions[typ]
		if !ok {
			b.errs = append(b.errs, NewDeclarationError(b.typeName, name,
				fmt.Sprintf("unknown parameter type %q", typ)))
			return b
		}
		coerce = fn
	}
	if d.typ != "" {
		d.options[OptionType] = d.typ
	}

	b.params.Delete(name)
	b.params.Set(name, &ParamSpec{Name: name, Coerce: coerce, Options: d.options, custom: d.coerce != nil})

	if v, ok := d.options[OptionDefault]; ok {
		b.SetDefault(name, v)
	}

	return b
}

// SetDefault registers a default value without redeclaring the parameter.
func (b *SchemaBuilder) SetDefault(name string, v interface{}) *SchemaBuilder {
	b.defaults.Delete(name)
	b.defaults.Set(name, v)
	return b
}

func (b *SchemaBuilder) err() error {
	return errors.Join(b.errs...)
}

// Schema is the effective, inheritance-resolved parameter table of a type.
// It is immutable once returned by the Registry.
type Schema struct {
	// Type is the component type this schema belongs to.
	Type string

	// Parent is the type this one inherits from, or "".
	Parent string

	params   *orderedmap.OrderedMap[string, *ParamSpec]
	defaults *orderedmap.OrderedMap[string, interface{}]
	registry *Registry
}

// Params returns the parameters in declaration order.
func (s *Schema) Params() []*ParamSpec {
	specs := make([]*ParamSpec, 0, s.params.Len())
	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		specs = append(specs, pair.Value)
	}
	return specs
}

// Names returns the parameter names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, 0, s.params.Len())
	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Param returns the named parameter.
func (s *Schema) Param(name string) (*ParamSpec, bool) {
	return s.params.Get(name)
}

// Default returns the effective default of the named parameter.
func (s *Schema) Default(name string) (interface{}, bool) {
	return s.defaults.Get(name)
}

// Defaults returns a copy of the effective default table.
func (s *Schema) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, s.defaults.Len())
	for pair := s.defaults.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// mergeSchema folds one level of declarations onto an accumulated schema.
// Names already present keep their position and take the new value.
func mergeSchema(into *Schema, level *SchemaBuilder) {
	for pair := level.params.Oldest(); pair != nil; pair = pair.Next() {
		into.params.Set(pair.Key, pair.Value)
	}
	for pair := level.defaults.Oldest(); pair != nil; pair = pair.Next() {
		into.defaults.Set(pair.Key, pair.Value)
	}
}
