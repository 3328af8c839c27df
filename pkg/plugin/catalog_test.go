package plugin

import (
	"reflect"
	"testing"

	"github.com/openfroyo/streamd/pkg/config"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := NewDefaultCatalog(nil)
	if err != nil {
		t.Fatalf("NewDefaultCatalog failed: %v", err)
	}
	return c
}

func TestCatalog_List(t *testing.T) {
	c := newTestCatalog(t)

	var got []string
	for _, d := range c.List() {
		got = append(got, string(d.Kind)+"/"+d.Type)
	}
	want := []string{
		"input/forward",
		"input/tail",
		"output/buffered",
		"output/file",
		"output/forward",
		"output/stdout",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestCatalog_Inheritance(t *testing.T) {
	c := newTestCatalog(t)

	desc, schema, ok := c.Lookup(KindOutput, "forward")
	if !ok {
		t.Fatal("forward output not registered")
	}
	if desc.Parent != "buffered" {
		t.Errorf("expected parent buffered, got %q", desc.Parent)
	}
	if !reflect.DeepEqual(desc.Sections, []string{"server"}) {
		t.Errorf("expected server section, got %v", desc.Sections)
	}

	names := schema.Names()
	if names[0] != "buffer_type" {
		t.Errorf("inherited parameters should come first, got %v", names)
	}
	if v, _ := schema.Default("flush_interval"); v != 1 {
		t.Errorf("expected overridden flush_interval default 1, got %v", v)
	}

	_, base, _ := c.Lookup(KindOutput, "buffered")
	if v, _ := base.Default("flush_interval"); v != 60 {
		t.Errorf("parent default must be unchanged, got %v", v)
	}

	if got := c.Ancestry(KindOutput, "file"); !reflect.DeepEqual(got, []string{"buffered", "file"}) {
		t.Errorf("unexpected ancestry %v", got)
	}
}

func TestCatalog_KindsShareTypeNames(t *testing.T) {
	c := newTestCatalog(t)

	_, in, ok := c.Lookup(KindInput, "forward")
	if !ok {
		t.Fatal("forward input not registered")
	}
	_, out, _ := c.Lookup(KindOutput, "forward")
	if _, ok := in.Param("heartbeat_interval"); ok {
		t.Error("input forward must not see output parameters")
	}
	if _, ok := out.Param("heartbeat_interval"); !ok {
		t.Error("output forward is missing heartbeat_interval")
	}
}

func TestCatalog_RegisterErrors(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name string
		desc Descriptor
	}{
		{name: "duplicate", desc: Descriptor{Kind: KindInput, Type: "tail"}},
		{name: "unknown parent", desc: Descriptor{Kind: KindOutput, Type: "s3", Parent: "object"}},
		{name: "parent of other kind", desc: Descriptor{Kind: KindInput, Type: "http", Parent: "buffered"}},
		{name: "unknown kind", desc: Descriptor{Kind: "filter", Type: "grep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Register(tt.desc, nil, nil); err == nil {
				t.Error("expected registration error")
			}
		})
	}

	err := c.Register(Descriptor{Kind: KindInput, Type: "bad"}, func(b *config.SchemaBuilder) {
		b.Param("x", config.OfType("float"))
	}, nil)
	if !config.IsDeclarationError(err) {
		t.Errorf("expected declaration error, got %v", err)
	}
}

func TestCatalog_Section(t *testing.T) {
	c := newTestCatalog(t)

	schema, ok := c.Section(KindOutput, "forward", "server")
	if !ok {
		t.Fatal("server section not registered")
	}
	if _, ok := schema.Param("host"); !ok {
		t.Error("server section is missing host")
	}
	if _, ok := c.Section(KindOutput, "file", "server"); ok {
		t.Error("file output has no server section")
	}
	if err := c.RegisterSection(KindOutput, "forward", "server", nil, nil); err == nil {
		t.Error("expected duplicate section error")
	}
}

func TestKind_Block(t *testing.T) {
	if KindInput.Block() != "source" || KindOutput.Block() != "match" {
		t.Error("unexpected block names")
	}
	if Kind("filter").Block() != "" {
		t.Error("unknown kind should have no block")
	}
}
