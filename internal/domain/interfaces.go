package domain

import (
	"context"
)

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetEngineConfig() *EngineConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}

// ReportRepository persists generated patient reports.
type ReportRepository interface {
	SaveReport(ctx context.Context, report *PatientReport) (string, error)
	GetReport(ctx context.Context, id string) (*PatientReport, error)
	ListReports(ctx context.Context, patientID string, limit int) ([]*PatientReport, error)
}

// ReportCache is a best-effort cache of reports keyed by patient ID.
type ReportCache interface {
	GetReport(ctx context.Context, patientID string) (*PatientReport, bool, error)
	SetReport(ctx context.Context, report *PatientReport) error
}
