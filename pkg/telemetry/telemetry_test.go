package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "production", mutate: func(c *Config) { *c = *ProductionConfig() }},
		{name: "development", mutate: func(c *Config) { *c = *DevelopmentConfig() }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "bad exporter", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "jaeger"
		}, wantErr: true},
		{name: "bad sampling", mutate: func(c *Config) { c.Tracing.SamplingRate = 2 }, wantErr: true},
		{name: "no listen address", mutate: func(c *Config) { c.Metrics.ListenAddress = "" }, wantErr: true},
		{name: "zero buffer", mutate: func(c *Config) { c.Events.BufferSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newTestTelemetry(t *testing.T) *Telemetry {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Events.EnableAsync = false

	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry failed: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return tel
}

func counterValue(t *testing.T, tel *Telemetry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := tel.Metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

type classError struct{ kind string }

func (e *classError) Error() string { return e.kind + " failure" }
func (e *classError) Class() string { return e.kind }

func TestRecordParse(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	events := make(chan Event, 4)
	tel.Events.Subscribe(func(e Event) { events <- e }, nil)

	if err := RecordParse(ctx, "agent.conf", func() (int, error) { return 2, nil }); err != nil {
		t.Fatalf("RecordParse failed: %v", err)
	}

	parseErr := &classError{kind: "parse"}
	if err := RecordParse(ctx, "agent.conf", func() (int, error) { return 0, parseErr }); !errors.Is(err, parseErr) {
		t.Fatalf("expected the step error to be returned, got %v", err)
	}

	if got := counterValue(t, tel, "streamd_config_parses_total", map[string]string{"status": "success"}); got != 1 {
		t.Errorf("expected 1 successful parse, got %v", got)
	}
	if got := counterValue(t, tel, "streamd_config_parses_total", map[string]string{"status": "failure"}); got != 1 {
		t.Errorf("expected 1 failed parse, got %v", got)
	}
	if got := counterValue(t, tel, "streamd_config_errors_total", map[string]string{"kind": "parse"}); got != 1 {
		t.Errorf("expected 1 parse error, got %v", got)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			seen[e.Type] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !seen[EventTypeConfigParsed] || !seen[EventTypeConfigError] {
		t.Errorf("expected parsed and error events, got %v", seen)
	}
}

func TestRecordConfigureAndUnused(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	if err := RecordConfigure(ctx, "output", "file", "id-1", func() error { return nil }); err != nil {
		t.Fatalf("RecordConfigure failed: %v", err)
	}
	RecordUnusedParameter(ctx, "agent.conf", "<match **>", "flush_intervl")
	RecordUnusedParameter(ctx, "agent.conf", "<match **>", "buffer_typ")

	labels := map[string]string{"kind": "output", "type": "file", "status": "success"}
	if got := counterValue(t, tel, "streamd_components_configured_total", labels); got != 1 {
		t.Errorf("expected 1 configured component, got %v", got)
	}
	if got := counterValue(t, tel, "streamd_unused_parameters_total", map[string]string{"block": "<match **>"}); got != 2 {
		t.Errorf("expected 2 unused parameters, got %v", got)
	}
}

func TestRecordReload(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	_ = RecordReload(ctx, "agent.conf", func() (int, error) { return 3, nil })
	_ = RecordReload(ctx, "agent.conf", func() (int, error) { return 0, errors.New("broken") })

	if got := counterValue(t, tel, "streamd_config_reloads_total", map[string]string{"status": "success"}); got != 1 {
		t.Errorf("expected 1 successful reload, got %v", got)
	}
	if got := counterValue(t, tel, "streamd_config_reloads_total", map[string]string{"status": "failure"}); got != 1 {
		t.Errorf("expected 1 failed reload, got %v", got)
	}
}

func TestHelpersWithoutTelemetry(t *testing.T) {
	ctx := context.Background()
	called := false

	err := RecordConfigure(ctx, "input", "tail", "id", func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("expected the step to run without telemetry, err=%v called=%v", err, called)
	}
	RecordUnusedParameter(ctx, "agent.conf", "<source>", "x")
}

func TestFilters(t *testing.T) {
	warn := Event{Type: EventTypeUnusedParameter, Level: EventLevelWarning, File: "a.conf", ComponentID: "c1"}
	info := Event{Type: EventTypeConfigParsed, Level: EventLevelInfo, File: "b.conf"}

	if !FilterByLevel(EventLevelWarning)(warn) || FilterByLevel(EventLevelWarning)(info) {
		t.Error("FilterByLevel mismatch")
	}
	if !FilterByType(EventTypeConfigParsed)(info) || FilterByType(EventTypeConfigParsed)(warn) {
		t.Error("FilterByType mismatch")
	}
	if !FilterByFile("a.conf")(warn) || FilterByFile("a.conf")(info) {
		t.Error("FilterByFile mismatch")
	}
	if !FilterByComponentID("c1")(warn) || FilterByComponentID("c1")(info) {
		t.Error("FilterByComponentID mismatch")
	}
}

func TestEventPublisher_WriterSubscriber(t *testing.T) {
	tests := []struct {
		name  string
		async bool
	}{
		{name: "sync", async: false},
		{name: "async", async: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := NewEventPublisher(EventsConfig{Enabled: true, BufferSize: 16, EnableAsync: tt.async})
			if err != nil {
				t.Fatalf("NewEventPublisher failed: %v", err)
			}

			var buf bytes.Buffer
			ep.Subscribe(WriterSubscriber(&buf), FilterByLevel(EventLevelWarning))

			publish := []error{
				ep.PublishConfigParsed("agent.conf", 2, time.Millisecond),
				ep.PublishUnusedParameter("agent.conf", "<source>", "prot"),
				ep.PublishConfigError("agent.conf", "parse", "unexpected end of input"),
				ep.PublishConfigReloaded("agent.conf", 2),
			}
			for i, err := range publish {
				if err != nil {
					t.Fatalf("publish %d failed: %v", i, err)
				}
			}

			if err := ep.Shutdown(context.Background()); err != nil {
				t.Fatalf("Shutdown failed: %v", err)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			want := []string{EventTypeUnusedParameter, EventTypeConfigError}
			if len(lines) != len(want) {
				t.Fatalf("expected %d lines, got %q", len(want), buf.String())
			}
			for i, line := range lines {
				var event Event
				if err := json.Unmarshal([]byte(line), &event); err != nil {
					t.Fatalf("line %d is not JSON: %v", i, err)
				}
				if event.Type != want[i] {
					t.Errorf("line %d type = %s, want %s", i, event.Type, want[i])
				}
				if event.ID == "" || event.Timestamp.IsZero() {
					t.Errorf("line %d missing id or timestamp", i)
				}
			}
		})
	}
}

func TestEventPublisher_QueueFull(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true, BufferSize: 0, EnableAsync: true})
	if err != nil {
		t.Fatalf("NewEventPublisher failed: %v", err)
	}

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	ep.Subscribe(func(Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}, nil)

	// The queue is unbuffered, so the first event is only accepted once the
	// delivery goroutine is waiting for it.
	deadline := time.Now().Add(5 * time.Second)
	for ep.PublishConfigReloaded("agent.conf", 1) != nil {
		if time.Now().After(deadline) {
			t.Fatal("first event was never accepted")
		}
		time.Sleep(time.Millisecond)
	}
	<-started

	if err := ep.PublishConfigReloaded("agent.conf", 2); err == nil {
		t.Error("expected an error while the subscriber is busy")
	}

	close(release)
	if err := ep.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestEventPublisher_Disabled(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: false, EnableAsync: true})
	if err != nil {
		t.Fatalf("NewEventPublisher failed: %v", err)
	}

	called := false
	ep.Subscribe(func(Event) { called = true }, nil)
	if err := ep.PublishConfigReloaded("agent.conf", 1); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := ep.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if called {
		t.Error("disabled publisher delivered an event")
	}
}
