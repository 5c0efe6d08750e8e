// Package instrument provides observable.Spy implementations that forward
// cell activity to logging, tracing and metrics backends.
//
// Spies are registered on a Context and see every create, update, action and
// reaction event of the cells bound to it:
//
//	ctx := observable.NewContext(
//	    observable.WithSpy(
//	        instrument.Logger(slog.Default()),
//	        instrument.Tracing(instrument.WithTracerName("my-app")),
//	        instrument.Metrics(instrument.WithNamespace("myapp")),
//	    ),
//	)
//
// # OpenTelemetry
//
// Tracing opens a span for every update, action and reaction. Spans nest the
// way the events do, so an action span contains the update spans of the
// writes made inside it. The tracer comes from the global provider unless
// WithTracerProvider is given.
//
// # Prometheus
//
// Metrics collects:
//   - observable_events_total: events by type
//   - observable_updates_total: committed writes by cell name
//   - observable_span_duration_seconds: duration of updates, actions and reactions
//   - observable_cells_created_total: cells created
//
// Metrics are registered on prometheus.DefaultRegisterer unless WithRegistry
// is given.
package instrument
