// Package config provides core configuration structures and utilities for the batch engine.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewBatchConfigProvider extracts and provides *BatchConfig from *Config.
// This allows other Fx components to depend only on the batch configuration.
//
// Parameters:
//
//	cfg: The main application configuration.
//
// Returns:
//
//	A pointer to the BatchConfig.
func NewBatchConfigProvider(cfg *Config) *BatchConfig {
	return &cfg.Riptide.Batch
}

// NewHistoryConfigProvider extracts and provides *HistoryConfig from *Config.
//
// Parameters:
//
//	cfg: The main application configuration.
//
// Returns:
//
//	A pointer to the HistoryConfig.
func NewHistoryConfigProvider(cfg *Config) *HistoryConfig {
	return &cfg.Riptide.History
}

// Module provides configuration-related components to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewBatchConfigProvider),
	fx.Provide(NewHistoryConfigProvider),
)
