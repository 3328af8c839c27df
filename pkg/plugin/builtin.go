package plugin

import (
	"time"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/telemetry"
)

// ForwardInputSettings are the decoded parameters of the forward input.
type ForwardInputSettings struct {
	Port int    `param:"port" json:"port" validate:"min=1,max=65535"`
	Bind string `param:"bind" json:"bind" validate:"required,ip"`
}

// TailInputSettings are the decoded parameters of the tail input.
type TailInputSettings struct {
	Path            string        `param:"path" json:"path" validate:"required"`
	Tag             string        `param:"tag" json:"tag" validate:"required"`
	PosFile         string        `param:"pos_file" json:"pos_file,omitempty"`
	RotateWait      time.Duration `param:"rotate_wait" json:"rotate_wait" validate:"gte=0"`
	RefreshInterval time.Duration `param:"refresh_interval" json:"refresh_interval" validate:"gt=0"`
	ReadFromHead    bool          `param:"read_from_head" json:"read_from_head"`
}

// BufferSettings are the parameters every buffered output inherits.
type BufferSettings struct {
	BufferType       string        `param:"buffer_type" json:"buffer_type" validate:"oneof=memory file"`
	BufferPath       string        `param:"buffer_path" json:"buffer_path,omitempty" validate:"required_if=BufferType file"`
	BufferChunkLimit int64         `param:"buffer_chunk_limit" json:"buffer_chunk_limit" validate:"gt=0"`
	BufferQueueLimit int           `param:"buffer_queue_limit" json:"buffer_queue_limit" validate:"gt=0"`
	FlushInterval    time.Duration `param:"flush_interval" json:"flush_interval" validate:"gte=0"`
	RetryLimit       int           `param:"retry_limit" json:"retry_limit" validate:"gte=0"`
	RetryWait        time.Duration `param:"retry_wait" json:"retry_wait" validate:"gte=0"`
	NumThreads       int           `param:"num_threads" json:"num_threads" validate:"min=1"`
}

// FileOutputSettings are the decoded parameters of the file output.
type FileOutputSettings struct {
	BufferSettings  `param:",squash"`
	Path            string `param:"path" json:"path" validate:"required"`
	Format          string `param:"format" json:"format" validate:"oneof=json ltsv csv"`
	TimeSliceFormat string `param:"time_slice_format" json:"time_slice_format"`
	Compress        bool   `param:"compress" json:"compress"`
}

// ForwardOutputSettings are the decoded parameters of the forward output.
type ForwardOutputSettings struct {
	BufferSettings    `param:",squash"`
	HeartbeatInterval time.Duration `param:"heartbeat_interval" json:"heartbeat_interval" validate:"gt=0"`
	SendTimeout       time.Duration `param:"send_timeout" json:"send_timeout" validate:"gt=0"`
}

// ForwardServerSettings are the decoded parameters of a <server> block.
type ForwardServerSettings struct {
	Host    string `param:"host" json:"host" validate:"required,hostname_rfc1123|ip"`
	Port    int    `param:"port" json:"port" validate:"min=1,max=65535"`
	Weight  int    `param:"weight" json:"weight" validate:"gte=0"`
	Standby bool   `param:"standby" json:"standby"`
}

// StdoutOutputSettings are the decoded parameters of the stdout output.
type StdoutOutputSettings struct {
	OutputType string `param:"output_type" json:"output_type" validate:"oneof=json hash"`
}

// RegisterBuiltins registers the component types shipped with the agent.
func RegisterBuiltins(c *Catalog) error {
	builtins := []struct {
		desc     Descriptor
		declare  func(b *config.SchemaBuilder)
		settings SettingsFactory
	}{
		{
			desc: Descriptor{Kind: KindInput, Type: "forward"},
			declare: func(b *config.SchemaBuilder) {
				b.Param("port", config.OfType(config.TypeInteger), config.WithDefault(24224))
				b.Param("bind", config.WithDefault("0.0.0.0"))
			},
			settings: func() interface{} { return &ForwardInputSettings{} },
		},
		{
			desc: Descriptor{Kind: KindInput, Type: "tail"},
			declare: func(b *config.SchemaBuilder) {
				b.Param("path")
				b.Param("tag")
				b.Param("pos_file", config.WithDefault(""))
				b.Param("rotate_wait", config.OfType(config.TypeTime), config.WithDefault(5))
				b.Param("refresh_interval", config.OfType(config.TypeTime), config.WithDefault(60))
				b.Param("read_from_head", config.OfType(config.TypeBool), config.WithDefault(false))
			},
			settings: func() interface{} { return &TailInputSettings{} },
		},
		{
			desc: Descriptor{Kind: KindOutput, Type: "buffered", Abstract: true},
			declare: func(b *config.SchemaBuilder) {
				b.Param("buffer_type", config.WithDefault("memory"))
				b.Param("buffer_path", config.WithDefault(""))
				b.Param("buffer_chunk_limit", config.OfType(config.TypeSize), config.WithDefault(8*1024*1024))
				b.Param("buffer_queue_limit", config.OfType(config.TypeInteger), config.WithDefault(256))
				b.Param("flush_interval", config.OfType(config.TypeTime), config.WithDefault(60))
				b.Param("retry_limit", config.OfType(config.TypeInteger), config.WithDefault(17))
				b.Param("retry_wait", config.OfType(config.TypeTime), config.WithDefault(1.0))
				b.Param("num_threads", config.OfType(config.TypeInteger), config.WithDefault(1))
			},
		},
		{
			desc: Descriptor{Kind: KindOutput, Type: "file", Parent: "buffered"},
			declare: func(b *config.SchemaBuilder) {
				b.Param("path")
				b.Param("format", config.WithDefault("json"))
				b.Param("time_slice_format", config.WithDefault("%Y%m%d"))
				b.Param("compress", config.OfType(config.TypeBool), config.WithDefault(false))
			},
			settings: func() interface{} { return &FileOutputSettings{} },
		},
		{
			desc: Descriptor{Kind: KindOutput, Type: "forward", Parent: "buffered"},
			declare: func(b *config.SchemaBuilder) {
				b.Param("heartbeat_interval", config.OfType(config.TypeTime), config.WithDefault(1))
				b.Param("send_timeout", config.OfType(config.TypeTime), config.WithDefault(60))
				b.SetDefault("flush_interval", 1)
			},
			settings: func() interface{} { return &ForwardOutputSettings{} },
		},
		{
			desc: Descriptor{Kind: KindOutput, Type: "stdout"},
			declare: func(b *config.SchemaBuilder) {
				b.Param("output_type", config.WithDefault("json"))
			},
			settings: func() interface{} { return &StdoutOutputSettings{} },
		},
	}

	for _, bt := range builtins {
		if err := c.Register(bt.desc, bt.declare, bt.settings); err != nil {
			return err
		}
	}

	return c.RegisterSection(KindOutput, "forward", "server", func(b *config.SchemaBuilder) {
		b.Param("host")
		b.Param("port", config.OfType(config.TypeInteger), config.WithDefault(24224))
		b.Param("weight", config.OfType(config.TypeInteger), config.WithDefault(60))
		b.Param("standby", config.OfType(config.TypeBool), config.WithDefault(false))
	}, func() interface{} { return &ForwardServerSettings{} })
}

// NewDefaultCatalog returns a catalog with the built-in types registered.
func NewDefaultCatalog(logger *telemetry.Logger) (*Catalog, error) {
	c := NewCatalog(logger)
	if err := RegisterBuiltins(c); err != nil {
		return nil, err
	}
	return c, nil
}
