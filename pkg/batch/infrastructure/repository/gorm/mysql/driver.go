// Package mysql registers the MySQL driver with the run-history repository.
package mysql

import (
	"errors"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	gormrepo "github.com/tigerroll/riptide/pkg/batch/infrastructure/repository/gorm"
)

// init registers the MySQL dialector factory with the gorm repository.
func init() {
	gormrepo.RegisterDialector("mysql", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("mysql DSN cannot be empty")
		}
		return mysql.Open(dsn), nil
	})
}
