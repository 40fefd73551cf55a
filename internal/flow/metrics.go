package flow

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "phone-verification/flow"

var tracer = otel.Tracer(instrumentationName)

// instruments counts initiation results and collection outcomes.
type instruments struct {
	initiations metric.Int64Counter
	outcomes    metric.Int64Counter
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	in := &instruments{}
	var err error
	if in.initiations, err = meter.Int64Counter("flow.initiations",
		metric.WithDescription("Verification initiation attempts by result")); err != nil {
		in.initiations, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("flow.initiations")
	}
	if in.outcomes, err = meter.Int64Counter("flow.outcomes",
		metric.WithDescription("Code verification outcomes by result")); err != nil {
		in.outcomes, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("flow.outcomes")
	}
	return in
}

func (in *instruments) initiation(ctx context.Context, result, method string) {
	in.initiations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("method", method),
	))
}

func (in *instruments) outcome(ctx context.Context, result string) {
	in.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
