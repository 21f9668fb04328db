package logging

import (
	"go.uber.org/fx"
)

// Module provides the logging batch listener.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLoggingBatchListener, fx.ResultTags(`group:"batch_listeners"`))),
)
