// Package mcp exposes the pharmacogenomic engine as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/profile"
	"github.com/pharmaguard-pgx-server/internal/service"
)

// Server represents the PharmaGuard MCP server
type Server struct {
	mcpServer *mcp.Server
	analysis  *service.AnalysisService
	profiles  profile.Store
	exportDir string
	logger    *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithProfileStore enables the profile tools and stores every analysis.
func WithProfileStore(store profile.Store) ServerOption {
	return func(s *Server) {
		s.profiles = store
	}
}

// WithExportDir sets the directory export_profiles writes to.
func WithExportDir(dir string) ServerOption {
	return func(s *Server) {
		s.exportDir = dir
	}
}

// NewServer creates a new MCP server instance
func NewServer(info domain.MCPConfig, analysis *service.AnalysisService, logger *logrus.Logger, opts ...ServerOption) (*Server, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	if info.ServerName == "" {
		info.ServerName = "pharmaguard-pgx-server"
	}
	if info.ServerVersion == "" {
		info.ServerVersion = "v0.1.0"
	}

	server := &Server{
		analysis: analysis,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    info.ServerName,
		Version: info.ServerVersion,
	}, nil)

	server.registerTools()
	return server, nil
}

// Start runs the server over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting PharmaGuard MCP Server...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close releases the profile store, if any.
func (s *Server) Close() error {
	if s.profiles != nil {
		if err := s.profiles.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close profile store")
			return err
		}
	}
	return nil
}

// registerTools registers every tool with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_vcf",
		Description: "Extract pharmacogenomic genotypes from VCF text and resolve one metabolizer phenotype per gene",
	}, s.handleAnalyzeVCF)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_drug_risk",
		Description: "Classify a drug as Safe, Adjust Dose, Toxic or Unknown for a metabolizer phenotype or a stored profile",
	}, s.handleClassifyDrugRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "generate_report",
		Description: "Build a patient report with risk score, recommendations and narrative from gene findings or a stored profile",
	}, s.handleGenerateReport)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_drugs",
		Description: "List every drug with a loaded dosing guideline",
	}, s.handleListDrugs)

	registered := 4
	if s.profiles != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "list_profiles",
			Description: "List stored patient profiles, newest first",
		}, s.handleListProfiles)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "export_profiles",
			Description: "Export all stored patient profiles to a JSON file",
		}, s.handleExportProfiles)
		registered += 2
	}

	s.logger.WithField("tool_count", registered).Info("Successfully registered all tools")
}
