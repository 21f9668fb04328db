package metrics

import (
	"go.uber.org/fx"
)

// Module provides the no-op observability fallbacks.
// Applications that want real metrics or tracing include the infrastructure
// metrics module instead, whose providers take precedence.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewNoOpMetricRecorder,
		fx.As(new(MetricRecorder)),
		fx.ResultTags(`optional:"true"`),
	)),
	fx.Provide(fx.Annotate(
		NewNoOpTracer,
		fx.As(new(Tracer)),
		fx.ResultTags(`optional:"true"`),
	)),
)
