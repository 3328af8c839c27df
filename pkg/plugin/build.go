package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/telemetry"
)

var (
	// ErrUnknownType is returned when a block names a type nothing registered.
	ErrUnknownType = errors.New("unknown component type")

	// ErrAbstractType is returned when a block names an abstract type.
	ErrAbstractType = errors.New("abstract component type")

	// ErrUnusedParameters is returned by a strict build that left parameters unread.
	ErrUnusedParameters = errors.New("unused parameters")
)

// BuildOption configures Build and Load.
type BuildOption func(*buildOptions)

type buildOptions struct {
	strict bool
	source string
}

func newBuildOptions(opts []BuildOption) *buildOptions {
	o := &buildOptions{source: "config"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *buildOptions) parseOptions() []config.ParseOption {
	if o.strict {
		return []config.ParseOption{config.WithStrict()}
	}
	return nil
}

// WithStrict rejects unclosed blocks when parsing and fails a build that
// leaves parameters unread.
func WithStrict() BuildOption {
	return func(o *buildOptions) {
		o.strict = true
	}
}

// WithSourceName sets the file name used in logs, metrics and events.
func WithSourceName(name string) BuildOption {
	return func(o *buildOptions) {
		o.source = name
	}
}

// Section is a configured sub-block of a component.
type Section struct {
	Name     string           `json:"name"`
	Conf     *config.Element  `json:"-"`
	Instance *config.Instance `json:"-"`
	Settings interface{}      `json:"settings,omitempty"`
}

// Component is a configured plugin instance.
type Component struct {
	// ID uniquely identifies this instance.
	ID string `json:"id"`

	// Kind is the component kind.
	Kind Kind `json:"kind"`

	// Type is the registered type name.
	Type string `json:"type"`

	// Pattern is the argument of the declaring block, such as a match pattern.
	Pattern string `json:"pattern,omitempty"`

	// Conf is the element the component was configured from.
	Conf *config.Element `json:"-"`

	// Instance holds the bound parameter values.
	Instance *config.Instance `json:"-"`

	// Settings is the decoded settings struct, if the type declares one.
	Settings interface{} `json:"settings,omitempty"`

	// Sections are the configured sub-blocks in file order.
	Sections []*Section `json:"sections,omitempty"`
}

// UnusedParam is a parameter that no component read.
type UnusedParam struct {
	Key   string `json:"key"`
	Block string `json:"block"`
}

// Pipeline is the set of components built from one configuration.
type Pipeline struct {
	Source     string        `json:"source"`
	Components []*Component  `json:"components"`
	Unused     []UnusedParam `json:"unused,omitempty"`
}

// Inputs returns the input components in file order.
func (p *Pipeline) Inputs() []*Component {
	return p.byKind(KindInput)
}

// Outputs returns the output components in file order.
func (p *Pipeline) Outputs() []*Component {
	return p.byKind(KindOutput)
}

func (p *Pipeline) byKind(kind Kind) []*Component {
	var out []*Component
	for _, comp := range p.Components {
		if comp.Kind == kind {
			out = append(out, comp)
		}
	}
	return out
}

// BlockLabel renders an element header as it appears in configuration text.
func BlockLabel(e *config.Element) string {
	if e.Arg == "" {
		return "<" + e.Name + ">"
	}
	return "<" + e.Name + " " + e.Arg + ">"
}

// Build configures a component for every <source> and <match> block of
// root, then reports every parameter that nothing read. Other blocks are
// left alone, so their parameters are reported as unused.
func (c *Catalog) Build(ctx context.Context, root *config.Element, opts ...BuildOption) (*Pipeline, error) {
	o := newBuildOptions(opts)
	logger := c.logger.WithFile(o.source)

	pipeline := &Pipeline{Source: o.source}

	for _, child := range root.Children {
		kind, ok := kindForBlock(child.Name)
		if !ok {
			logger.Debugf("skipping %s block", BlockLabel(child))
			continue
		}

		comp, err := c.buildComponent(ctx, kind, child, o)
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s: %w", BlockLabel(child), err)
		}
		pipeline.Components = append(pipeline.Components, comp)
	}

	root.VisitUnused(func(key string, owner *config.Element) {
		block := BlockLabel(owner)
		logger.Warnf("parameter '%s' in %s is not used", key, block)
		telemetry.RecordUnusedParameter(ctx, o.source, block, key)
		pipeline.Unused = append(pipeline.Unused, UnusedParam{Key: key, Block: block})
	})

	if o.strict && len(pipeline.Unused) > 0 {
		first := pipeline.Unused[0]
		return pipeline, fmt.Errorf("%w: %d in %s, first '%s' in %s",
			ErrUnusedParameters, len(pipeline.Unused), o.source, first.Key, first.Block)
	}

	logger.Infof("built %d components", len(pipeline.Components))
	return pipeline, nil
}

func (c *Catalog) buildComponent(ctx context.Context, kind Kind, conf *config.Element, o *buildOptions) (*Component, error) {
	typeName, ok := conf.Get("type")
	if !ok {
		return nil, config.NewRequiredError("type", conf)
	}

	e, ok := c.lookupEntry(kind, typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownType, kind, typeName)
	}
	if e.desc.Abstract {
		return nil, fmt.Errorf("%w: %s %q", ErrAbstractType, kind, typeName)
	}
	if kind == KindOutput {
		if err := validatePattern(conf.Arg); err != nil {
			return nil, err
		}
	}

	comp := &Component{
		ID:      uuid.New().String(),
		Kind:    kind,
		Type:    typeName,
		Pattern: conf.Arg,
		Conf:    conf,
	}
	logger := c.logger.
		WithFile(o.source).
		WithPlugin(string(kind), typeName).
		WithComponentID(comp.ID)

	err := telemetry.RecordConfigure(ctx, string(kind), typeName, comp.ID, func() error {
		inst := e.schema.NewInstance()
		if err := inst.Configure(conf); err != nil {
			return err
		}
		comp.Instance = inst

		settings, err := decodeSettings(inst, e.settings)
		if err != nil {
			return err
		}
		comp.Settings = settings

		for _, child := range conf.Children {
			sec, ok := c.lookupSection(kind, typeName, child.Name)
			if !ok {
				continue
			}
			built, err := buildSection(child, sec)
			if err != nil {
				return fmt.Errorf("%s: %w", BlockLabel(child), err)
			}
			comp.Sections = append(comp.Sections, built)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("failed to configure component")
		return nil, err
	}

	logger.Debugf("configured %d parameters, %d sections", len(comp.Instance.Values()), len(comp.Sections))
	return comp, nil
}

func buildSection(conf *config.Element, sec *section) (*Section, error) {
	inst := sec.schema.NewInstance()
	if err := inst.Configure(conf); err != nil {
		return nil, err
	}

	settings, err := decodeSettings(inst, sec.settings)
	if err != nil {
		return nil, err
	}

	return &Section{
		Name:     conf.Name,
		Conf:     conf,
		Instance: inst,
		Settings: settings,
	}, nil
}

func decodeSettings(inst *config.Instance, factory SettingsFactory) (interface{}, error) {
	if factory == nil {
		return nil, nil
	}
	settings := factory()
	if err := inst.Decode(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
