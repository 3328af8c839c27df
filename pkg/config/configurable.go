package config

import (
	"time"

	"github.com/rs/zerolog"
)

// Instance holds the parameter values of one configured component.
//
// A new instance starts with every parameter that has a default set to it.
// Configure overwrites them from an element and fails if any parameter is
// left without a value.
type Instance struct {
	schema *Schema
	values map[string]interface{}
	logger zerolog.Logger
}

// NewInstance creates an instance initialized with the schema's defaults.
func (s *Schema) NewInstance() *Instance {
	inst := &Instance{
		schema: s,
		values: make(map[string]interface{}, s.params.Len()),
		logger: zerolog.Nop(),
	}
	if s.registry != nil {
		inst.logger = s.registry.logger.With().Str("type", s.Type).Logger()
	}

	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		if v, ok := s.defaults.Get(pair.Key); ok {
			inst.values[pair.Key] = v
		}
	}
	return inst
}

// Schema returns the schema the instance was created from.
func (i *Instance) Schema() *Schema {
	return i.schema
}

// Configure reads every declared parameter from conf, marking each key as
// used, and stores the coerced values. It returns a required-parameter error
// naming the first parameter, in declaration order, that has no value.
func (i *Instance) Configure(conf *Element) error {
	for pair := i.schema.params.Oldest(); pair != nil; pair = pair.Next() {
		spec := pair.Value
		raw, ok := conf.Get(spec.Name)
		if !ok {
			continue
		}

		v, err := spec.Coerce(raw, spec.Options, spec.Name)
		if err != nil {
			return NewCoercionError(spec.Name, err).WithType(i.schema.Type)
		}
		i.values[spec.Name] = v
	}

	for pair := i.schema.params.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := i.values[pair.Key]; !ok {
			i.logger.Error().
				Str("param", pair.Key).
				Msgf("config error in:\n%s", conf)
			return NewRequiredError(pair.Key, conf).WithType(i.schema.Type)
		}
	}

	return nil
}

// IsSet reports whether the parameter has a value, from a default or from
// configuration.
func (i *Instance) IsSet(name string) bool {
	_, ok := i.values[name]
	return ok
}

// Value returns the raw stored value of a parameter.
func (i *Instance) Value(name string) (interface{}, bool) {
	v, ok := i.values[name]
	return v, ok
}

// Values returns a copy of all stored values.
func (i *Instance) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// String returns a parameter as a string, or "" when it is not a string.
func (i *Instance) String(name string) string {
	s, _ := i.values[name].(string)
	return s
}

// Int returns an integer or size parameter. Defaults may be declared with any
// Go integer type; strings are parsed like integer parameters.
func (i *Instance) Int(name string) int64 {
	switch v := i.values[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		return ParseInt(v)
	default:
		return 0
	}
}

// Size returns a size parameter in bytes. String defaults such as "8m" are
// parsed with ParseSize.
func (i *Instance) Size(name string) int64 {
	if s, ok := i.values[name].(string); ok {
		return ParseSize(s)
	}
	return i.Int(name)
}

// Bool returns a boolean parameter. ok is false when the parameter is unset
// or its value was not a recognized boolean.
func (i *Instance) Bool(name string) (value bool, ok bool) {
	switch v := i.values[name].(type) {
	case bool:
		return v, true
	case string:
		return ParseBool(v)
	default:
		return false, false
	}
}

// Seconds returns a time parameter in seconds.
func (i *Instance) Seconds(name string) float64 {
	switch v := i.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return ParseDuration(v)
	default:
		return 0
	}
}

// Duration returns a time parameter as a time.Duration.
func (i *Instance) Duration(name string) time.Duration {
	return Seconds(i.Seconds(name))
}
