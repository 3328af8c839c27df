// Package config parses streamd's nested-block configuration format and binds
// it to the declared parameters of pluggable components.
//
// # Overview
//
// Configuration flows through two stages:
//
//  1. Parse turns text into a tree of Elements. Each Element has a name, an
//     optional argument, ordered attributes and ordered children.
//  2. A component type's Schema, declared once in a Registry, is applied to
//     an Element by Instance.Configure, producing typed parameter values.
//
// # File Format
//
// The format is line oriented. Blocks open with <name> or <name argument> and
// close with </name>. Every other non-empty line is an attribute: a key
// followed by the rest of the line as its value. A # starts a comment that
// runs to the end of the line; there is no escaping.
//
//	# receive events from other agents
//	<source>
//	  type forward
//	  port 24224
//	</source>
//
//	<match app.**>
//	  type file
//	  path /var/log/streamd/app
//	  flush_interval 10s
//	  <buffer>
//	    chunk_limit 8m
//	  </buffer>
//	</match>
//
// A line that fits none of these forms, or a close tag that does not match
// the open block, is a parse error reported as file:line with a 0-based line
// index. A block still open at the end of input is closed implicitly unless
// WithStrict is given.
//
// # Used-Key Tracking
//
// Element.Get and Element.Has record the key they were asked for. After all
// components have configured themselves, VisitUnused reports every attribute
// nobody read, which usually means a misspelled or misplaced parameter.
//
// # Declaring Parameters
//
//	reg := config.NewRegistry(logger)
//
//	reg.MustDefine("buffered", "", func(b *config.SchemaBuilder) {
//		b.Param("buffer_chunk_limit", config.OfType(config.TypeSize), config.WithDefault("8m"))
//		b.Param("flush_interval", config.OfType(config.TypeTime), config.WithDefault(60.0))
//	})
//
//	reg.MustDefine("file", "buffered", func(b *config.SchemaBuilder) {
//		b.Param("path")
//		b.Param("flush_interval", config.OfType(config.TypeTime), config.WithDefault(10.0))
//	})
//
// A derived type sees its ancestors' parameters and may override them. The
// built-in types are string (the default), integer, size, bool and time;
// WithCoercion installs a custom conversion instead.
//
// # Value Coercion
//
//   - size: 10k, 2m, 1g, 1t in powers of 1024, any case; otherwise an integer
//   - time: 10s, 2m, 1h, 1d in seconds, lowercase only; otherwise a float
//   - bool: true/yes and false/no; anything else is stored as nil
//
// # Binding
//
//	schema, _ := reg.Lookup("file")
//	inst := schema.NewInstance()
//	if err := inst.Configure(elem); err != nil {
//	    return err
//	}
//	path := inst.String("path")
//
// Instance.Decode copies the values into a struct tagged with `param` and
// validates it with go-playground/validator `validate` tags.
//
// # Thread Safety
//
// A Registry may be read concurrently once all types are defined. Elements
// and Instances are not safe for concurrent use: the used-key set is written
// on every read.
package config
