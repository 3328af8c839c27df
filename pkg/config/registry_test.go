package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	reg := NewRegistry(zerolog.Nop())
	reg.MustDefine("output", "", func(b *SchemaBuilder) {
		b.Param("flush_interval", OfType(TypeTime), WithDefault(60.0))
		b.Param("buffer_chunk_limit", OfType(TypeSize), WithDefault(int64(8<<20)))
		b.Param("retry_limit", OfType(TypeInteger), WithDefault(17))
	})
	reg.MustDefine("file", "output", func(b *SchemaBuilder) {
		b.Param("path")
		b.Param("flush_interval", OfType(TypeTime), WithDefault(10.0))
		b.Param("compress", OfType(TypeBool), WithDefault(false))
	})
	reg.MustDefine("file_gz", "file", func(b *SchemaBuilder) {
		b.SetDefault("compress", true)
	})
	return reg
}

func TestRegistry_Inheritance(t *testing.T) {
	reg := newTestRegistry(t)

	file, ok := reg.Lookup("file")
	if !ok {
		t.Fatal("expected file schema")
	}

	wantNames := []string{"flush_interval", "buffer_chunk_limit", "retry_limit", "path", "compress"}
	if got := file.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("unexpected effective params:\n got  %v\n want %v", got, wantNames)
	}

	if v, _ := file.Default("flush_interval"); v != 10.0 {
		t.Errorf("expected derived default to win, got %v", v)
	}
	if v, _ := file.Default("retry_limit"); v != 17 {
		t.Errorf("expected inherited default, got %v", v)
	}
	if _, ok := file.Default("path"); ok {
		t.Error("path should have no default")
	}

	base, _ := reg.Lookup("output")
	if v, _ := base.Default("flush_interval"); v != 60.0 {
		t.Errorf("base schema must not see derived overrides, got %v", v)
	}
	if _, ok := base.Param("path"); ok {
		t.Error("base schema must not see derived params")
	}

	gz, _ := reg.Lookup("file_gz")
	if v, _ := gz.Default("compress"); v != true {
		t.Errorf("expected SetDefault override, got %v", v)
	}
	if got := reg.Ancestry("file_gz"); !reflect.DeepEqual(got, []string{"output", "file", "file_gz"}) {
		t.Errorf("unexpected ancestry: %v", got)
	}
	if gz.Parent != "file" {
		t.Errorf("expected parent 'file', got %q", gz.Parent)
	}
}

func TestRegistry_RedeclareMovesLast(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	schema := reg.MustDefine("t", "", func(b *SchemaBuilder) {
		b.Param("a")
		b.Param("b")
		b.Param("a", OfType(TypeInteger))
	})

	if got := schema.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("expected redeclared name to move last, got %v", got)
	}
	spec, _ := schema.Param("a")
	if spec.Type() != TypeInteger {
		t.Errorf("expected redeclaration to replace the spec, got type %q", spec.Type())
	}
}

func TestRegistry_DeclarationErrors(t *testing.T) {
	custom := func(raw string, _ Options, _ string) (interface{}, error) { return raw, nil }

	tests := []struct {
		name    string
		declare func(b *SchemaBuilder)
		parent  string
		want    string
	}{
		{
			name:    "unknown type tag",
			declare: func(b *SchemaBuilder) { b.Param("x", OfType("float")) },
			want:    "unknown parameter type",
		},
		{
			name:    "type and coercion together",
			declare: func(b *SchemaBuilder) { b.Param("x", OfType(TypeInteger), WithCoercion(custom)) },
			want:    "cannot both be given",
		},
		{
			name:   "undefined parent",
			parent: "nope",
			want:   "is not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(zerolog.Nop())
			_, err := reg.Define("broken", tt.parent, tt.declare)
			if !IsDeclarationError(err) {
				t.Fatalf("expected declaration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %v", tt.want, err)
			}
			if _, ok := reg.Lookup("broken"); ok {
				t.Error("a failed definition must not be registered")
			}
		})
	}
}

func TestRegistry_DefineTwice(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	reg.MustDefine("t", "", nil)

	if _, err := reg.Define("t", "", nil); !errors.Is(err, &Error{Kind: ErrorKindDeclaration}) {
		t.Errorf("expected declaration error on redefinition, got %v", err)
	}
}

func TestRegistry_MustDefinePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected MustDefine to panic")
		}
	}()

	NewRegistry(zerolog.Nop()).MustDefine("t", "", func(b *SchemaBuilder) {
		b.Param("x", OfType("nope"))
	})
}

func TestRegistry_Types(t *testing.T) {
	reg := newTestRegistry(t)

	if got := reg.Types(); !reflect.DeepEqual(got, []string{"file", "file_gz", "output"}) {
		t.Errorf("unexpected types: %v", got)
	}
	if reg.Ancestry("missing") != nil {
		t.Error("expected nil ancestry for undefined type")
	}
}
