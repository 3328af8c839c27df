package plugin

import (
	"context"
	"errors"
	"testing"
)

func TestPipeline_Route(t *testing.T) {
	text := `
<source>
  type forward
</source>
<match app.{web,api}.*>
  type stdout
</match>
<match app.**>
  type stdout
  output_type hash
</match>
<match system.* audit>
  type stdout
</match>
`
	c := newTestCatalog(t)
	p, err := c.Build(context.Background(), mustParse(t, text))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	outputs := p.Outputs()

	tests := []struct {
		tag  string
		want int
	}{
		{tag: "app.web.access", want: 0},
		{tag: "app.api.error", want: 0},
		{tag: "app.batch.error", want: 1},
		{tag: "app", want: 1},
		{tag: "system.kernel", want: 2},
		{tag: "audit", want: 2},
		{tag: "system.kernel.oom", want: -1},
		{tag: "other", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := p.Route(tt.tag)
			if tt.want < 0 {
				if ok {
					t.Errorf("expected no route, got %q", got.Pattern)
				}
				return
			}
			if !ok || got != outputs[tt.want] {
				t.Errorf("Route(%q) = %v, want output %d", tt.tag, got, tt.want)
			}
		})
	}

	if p.Inputs()[0].MatchesTag("app.web.access") {
		t.Error("inputs must never match a tag")
	}
}

func TestBuild_InvalidPattern(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Build(context.Background(), mustParse(t, "<match app.{web>\n  type stdout\n</match>"))
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}
