package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func asError(err error, target **Error) bool {
	return errors.As(err, target)
}

func TestElement_UsedTracking(t *testing.T) {
	e := NewElement("source", "")
	e.Set("type", "forward")
	e.Set("port", "24224")

	if len(e.UsedKeys()) != 0 {
		t.Fatalf("expected no used keys after Set, got %v", e.UsedKeys())
	}

	e.Get("type")
	e.Has("missing")

	if !e.IsUsed("type") || !e.IsUsed("missing") {
		t.Errorf("expected Get and Has to mark keys, got %v", e.UsedKeys())
	}
	if e.IsUsed("port") || e.IsUsed("port") {
		t.Error("IsUsed must not mark keys")
	}
	e.Keys()
	if e.IsUsed("port") {
		t.Error("Keys must not mark keys")
	}
}

func TestElement_VisitUnused(t *testing.T) {
	root, err := Parse("<source>\n  type forward\n  prot 24224\n  <nested>\n    x 1\n  </nested>\n</source>", "t.conf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	src := root.Children[0]
	src.Get("type")
	src.Children[0].Get("x")

	var got []string
	root.VisitUnused(func(key string, owner *Element) {
		got = append(got, owner.Name+"."+key)
	})

	if !reflect.DeepEqual(got, []string{"source.prot"}) {
		t.Errorf("expected only source.prot unused, got %v", got)
	}
}

func TestElement_Merge(t *testing.T) {
	a := NewElement("match", "app.**")
	a.Set("path", "/override")
	a.Set("compress", "yes")
	a.AddChild("buffer", "")
	a.Get("path")

	b := NewElement("defaults", "")
	b.Set("flush_interval", "60s")
	b.Set("path", "/default")
	b.AddChild("secondary", "")
	b.Get("flush_interval")

	m := a.Merge(b)

	if m.Name != "match" || m.Arg != "app.**" {
		t.Errorf("expected name and arg from receiver, got <%s %s>", m.Name, m.Arg)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"flush_interval", "path", "compress"}) {
		t.Errorf("unexpected merged key order: %v", got)
	}
	if v, _ := m.attrs.Get("path"); v != "/override" {
		t.Errorf("expected receiver to win on conflict, got %q", v)
	}

	var children []string
	for _, c := range m.Children {
		children = append(children, c.Name)
	}
	if !reflect.DeepEqual(children, []string{"buffer", "secondary"}) {
		t.Errorf("expected receiver children first, got %v", children)
	}

	used := m.UsedKeys()
	sort.Strings(used)
	if !reflect.DeepEqual(used, []string{"flush_interval", "path"}) {
		t.Errorf("expected union of used keys, got %v", used)
	}

	m.Get("compress")
	if a.IsUsed("compress") {
		t.Error("marking the merged element must not affect the operands")
	}
}

func TestElement_Serialize(t *testing.T) {
	root := NewElement(RootName, "")
	match := root.AddChild("match", "app.**")
	match.Set("type", "file")
	buf := match.AddChild("buffer", "")
	buf.Set("chunk_limit", "8m")

	want := strings.Join([]string{
		"<ROOT>",
		"  <match app.**>",
		"    type file",
		"    <buffer>",
		"      chunk_limit 8m",
		"    </buffer>",
		"  </match>",
		"</ROOT>",
		"",
	}, "\n")

	if got := root.String(); got != want {
		t.Errorf("unexpected serialization:\n%s\nwant:\n%s", got, want)
	}

	if got := buf.Serialize(2); !strings.HasPrefix(got, "    <buffer>\n      chunk_limit 8m\n") {
		t.Errorf("unexpected indentation at depth 2:\n%s", got)
	}
}

func TestElement_SerializeRoundTrip(t *testing.T) {
	text := "<source>\n  type forward\n</source>\n<match a.b>\n  type stdout\n</match>\n"
	root, err := Parse(text, "t.conf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var sb strings.Builder
	for _, c := range root.Children {
		sb.WriteString(c.String())
	}

	again, err := Parse(sb.String(), "t.conf")
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.String() != root.String() {
		t.Errorf("round trip changed the tree:\n%s\nvs\n%s", again, root)
	}
}

func TestElement_AddChildAndFind(t *testing.T) {
	root := Empty()
	root.AddChild("source", "")
	root.AddChild("match", "a")
	root.AddChild("source", "")

	if got := len(root.Find("source")); got != 2 {
		t.Errorf("expected 2 source blocks, got %d", got)
	}
	if got := len(root.Find("filter")); got != 0 {
		t.Errorf("expected no filter blocks, got %d", got)
	}
}

func TestElement_Marshal(t *testing.T) {
	root, err := Parse("<match **>\n  type stdout\n  format json\n</match>", "t.conf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	data, err := json.Marshal(root.Children[0])
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	want := `{"name":"match","arg":"**","attributes":{"type":"stdout","format":"json"}}`
	if string(data) != want {
		t.Errorf("unexpected JSON:\n%s\nwant:\n%s", data, want)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	for _, fragment := range []string{"name: ROOT", "name: match", "arg: ", "**", "type: stdout", "format: json"} {
		if !strings.Contains(string(out), fragment) {
			t.Errorf("expected YAML to contain %q:\n%s", fragment, out)
		}
	}
	if strings.Index(string(out), "type: stdout") > strings.Index(string(out), "format: json") {
		t.Errorf("expected attributes in insertion order:\n%s", out)
	}
}
