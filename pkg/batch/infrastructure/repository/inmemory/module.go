package inmemory

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/riptide/pkg/batch/core/domain/repository"
)

// Module is an Fx module that provides the in-memory run repository.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewInMemoryRunRepository,
		fx.As(new(repository.RunRepository)),
	)),
)
