package history

import (
	"go.uber.org/fx"
)

// Module provides the run-history batch listener.
// It requires a repository.RunRepository in the container (see
// infrastructure/repository/inmemory or infrastructure/repository/gorm).
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewHistoryBatchListener, fx.ResultTags(`group:"batch_listeners"`))),
)
