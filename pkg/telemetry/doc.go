// Package telemetry provides observability instrumentation for streamd.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring configuration loading and reloads.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with OTLP or stdout exporters
//  3. Metrics Collection - Prometheus metrics for parse and configure outcomes
//  4. Event Publishing - Async event system for reload and warning notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
//	logger := tel.Logger.NewComponentLogger("catalog")
//	logger = logger.WithFile("agent.conf").WithPlugin("output", "file")
//	logger.Warnf("parameter '%s' in %s is not used", key, block)
//
// The config package takes a plain zerolog.Logger; pass Logger.Zerolog().
//
// # Tracing
//
// Spans are named config.parse, plugin.configure and config.reload:
//
//	ctx, span := tel.Tracer.StartParseSpan(ctx, "agent.conf")
//	defer span.End()
//
// # Metrics
//
//	tel.Metrics.RecordParse("success", duration)
//	tel.Metrics.RecordComponentConfigured("output", "file", "success", duration)
//	tel.Metrics.RecordUnusedParameter("<match **>")
//	tel.Metrics.RecordReload(true)
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Event Publishing
//
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByFile, FilterByComponentID
//
// # Context Helpers
//
// RecordParse, RecordConfigure, RecordUnusedParameter and RecordReload
// combine a span, metrics and an event for one step. Without a Telemetry in
// the context they only run the step.
//
//	err := telemetry.RecordParse(ctx, path, func() (int, error) {
//	    root, err := config.ReadFile(path)
//	    if err != nil {
//	        return 0, err
//	    }
//	    return len(root.Children), nil
//	})
package telemetry
