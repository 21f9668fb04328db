// Package postgres registers the PostgreSQL driver with the run-history repository.
package postgres

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	gormrepo "github.com/tigerroll/riptide/pkg/batch/infrastructure/repository/gorm"
)

// init registers the PostgreSQL dialector factory with the gorm repository.
func init() {
	gormrepo.RegisterDialector("postgres", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("postgres DSN cannot be empty")
		}
		return postgres.Open(dsn), nil
	})
}
