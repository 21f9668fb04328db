package gorm

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/riptide/pkg/batch/core/domain/repository"
)

// Module is an Fx module that provides the GORM-backed run repository.
// The application must also import a driver subpackage (sqlite, mysql,
// postgres) matching the configured driver.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGormRunRepository,
		fx.As(new(repository.RunRepository)),
	)),
)
