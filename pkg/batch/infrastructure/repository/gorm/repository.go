// Package gorm provides a GORM-backed implementation of the RunRepository
// interface. Database drivers register themselves through the dialector
// registry; importing one of the driver subpackages (sqlite, mysql, postgres)
// makes that driver available by name.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/riptide/pkg/batch/core/domain/repository"
	exception "github.com/tigerroll/riptide/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

const moduleName = "history"

// DialectorFactory creates a gorm.Dialector from a DSN.
type DialectorFactory func(dsn string) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given driver name.
func RegisterDialector(driver string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[driver]; exists {
		logger.Warnf("Dialector for driver '%s' already registered. Overwriting.", driver)
	}
	dialectorRegistry[driver] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for the given driver name.
func GetDialectorFactory(driver string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[driver]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for driver: %s", driver)
	}
	return factory, nil
}

// GormRunRepository persists run executions through GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository opens a database connection for the configured driver and
// migrates the run-history schema.
// cfg: The run-history configuration (driver name and DSN).
func NewGormRunRepository(cfg *config.HistoryConfig) (*GormRunRepository, error) {
	factory, err := GetDialectorFactory(cfg.Driver)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to resolve database driver", err, false)
	}
	dialector, err := factory(cfg.DSN)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to create dialector", err, false)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to open database connection", err, true)
	}

	if err := db.AutoMigrate(&model.RunExecution{}); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to migrate run-history schema", err, false)
	}

	logger.Infof("Run-history repository connected (driver: %s).", cfg.Driver)
	return &GormRunRepository{db: db}, nil
}

// SaveRun persists a run execution, inserting or updating by ID.
func (r *GormRunRepository) SaveRun(ctx context.Context, execution *model.RunExecution) error {
	if err := r.db.WithContext(ctx).Save(execution).Error; err != nil {
		return exception.NewBatchError(moduleName, "failed to save run execution", err, true)
	}
	return nil
}

// FindRun retrieves a run execution by its ID.
func (r *GormRunRepository) FindRun(ctx context.Context, id string) (*model.RunExecution, error) {
	var execution model.RunExecution
	err := r.db.WithContext(ctx).First(&execution, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to find run execution", err, true)
	}
	return &execution, nil
}

// ListRuns retrieves the most recent run executions, newest first.
func (r *GormRunRepository) ListRuns(ctx context.Context, limit int) ([]*model.RunExecution, error) {
	query := r.db.WithContext(ctx).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var executions []*model.RunExecution
	if err := query.Find(&executions).Error; err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to list run executions", err, true)
	}
	return executions, nil
}

// Close releases the underlying database connection.
func (r *GormRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to get underlying sql.DB", err, false)
	}
	return sqlDB.Close()
}

var _ repository.RunRepository = (*GormRunRepository)(nil)
