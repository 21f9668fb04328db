// Package sqlite registers the SQLite driver with the run-history repository.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormrepo "github.com/tigerroll/riptide/pkg/batch/infrastructure/repository/gorm"
)

// init registers the SQLite dialector factory with the gorm repository.
func init() {
	gormrepo.RegisterDialector("sqlite", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("sqlite database path cannot be empty")
		}
		return sqlite.Open(dsn), nil
	})
}
