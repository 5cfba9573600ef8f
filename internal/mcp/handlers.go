package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/profile"
)

// AnalyzeVCFParams defines parameters for the analyze_vcf tool
type AnalyzeVCFParams struct {
	VCFContent  string `json:"vcf_content"`
	PatientName string `json:"patient_name,omitempty"`
}

// AnalyzeVCFResult defines the result structure for the analyze_vcf tool
type AnalyzeVCFResult struct {
	ProfileID string               `json:"profile_id,omitempty"`
	Genes     []domain.GeneFinding `json:"genes"`
	HighRisk  int                  `json:"high_risk_count"`
}

// ClassifyDrugRiskParams defines parameters for the classify_drug_risk tool
type ClassifyDrugRiskParams struct {
	Drug      string `json:"drug"`
	Phenotype string `json:"phenotype,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// ClassifyDrugRiskResult defines the result structure for the classify_drug_risk tool
type ClassifyDrugRiskResult struct {
	Assessments []domain.RiskAssessment `json:"assessments"`
}

// GenerateReportParams defines parameters for the generate_report tool
type GenerateReportParams struct {
	PatientID string               `json:"patient_id,omitempty"`
	ProfileID string               `json:"profile_id,omitempty"`
	Genes     []domain.GeneFinding `json:"genes,omitempty"`
}

// ListDrugsParams takes no arguments.
type ListDrugsParams struct{}

// ListDrugsResult defines the result structure for the list_drugs tool
type ListDrugsResult struct {
	Count int      `json:"count"`
	Drugs []string `json:"drugs"`
}

// ListProfilesParams defines parameters for the list_profiles tool
type ListProfilesParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ListProfilesResult defines the result structure for the list_profiles tool
type ListProfilesResult struct {
	Total    int64              `json:"total"`
	Profiles []*profile.Profile `json:"profiles"`
}

// ExportProfilesParams defines parameters for the export_profiles tool
type ExportProfilesParams struct {
	Filename string `json:"filename,omitempty"`
}

// ExportProfilesResult defines the result structure for the export_profiles tool
type ExportProfilesResult struct {
	Path string `json:"path"`
}

func (s *Server) handleAnalyzeVCF(ctx context.Context, req *mcp.CallToolRequest, params AnalyzeVCFParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "analyze_vcf").Info("Tool invoked")

	if strings.TrimSpace(params.VCFContent) == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("vcf_content is required")), nil, nil
	}

	analysis, err := s.analysis.Analyze(ctx, params.VCFContent)
	if err != nil {
		return s.createErrorResult("Analysis failed", err), nil, nil
	}

	result := AnalyzeVCFResult{Genes: analysis.Findings}
	for _, f := range analysis.Findings {
		if f.IsHighRisk() {
			result.HighRisk++
		}
	}

	if s.profiles != nil {
		p := profile.FromFindings(params.PatientName, analysis.Findings)
		if err := s.profiles.Create(ctx, p); err != nil {
			return s.createErrorResult("Failed to store profile", err), nil, nil
		}
		result.ProfileID = p.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Genomic analysis complete: %d genes, %d high risk", len(result.Genes), result.HighRisk)
	if result.ProfileID != "" {
		fmt.Fprintf(&b, " (profile %s)", result.ProfileID)
	}
	for _, f := range result.Genes {
		fmt.Fprintf(&b, "\n%s %s %s: %s", f.Gene, f.VariantID, f.DisplayGenotype, f.Phenotype)
	}

	return textResult(b.String()), result, nil
}

func (s *Server) handleClassifyDrugRisk(ctx context.Context, req *mcp.CallToolRequest, params ClassifyDrugRiskParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "classify_drug_risk").Info("Tool invoked")

	if params.Drug == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("drug is required")), nil, nil
	}

	var assessments []domain.RiskAssessment
	switch {
	case params.ProfileID != "":
		findings, errResult := s.profileFindings(ctx, params.ProfileID)
		if errResult != nil {
			return errResult, nil, nil
		}
		var err error
		if assessments, err = s.analysis.ClassifyForFindings(ctx, params.Drug, findings); err != nil {
			return s.createErrorResult("Classification failed", err), nil, nil
		}
	case params.Phenotype != "":
		a, err := s.analysis.ClassifyDrug(ctx, params.Drug, params.Phenotype)
		if err != nil {
			return s.createErrorResult("Classification failed", err), nil, nil
		}
		assessments = []domain.RiskAssessment{a}
	default:
		return s.createErrorResult("Missing required parameter", fmt.Errorf("phenotype or profile_id is required")), nil, nil
	}

	lines := make([]string, 0, len(assessments))
	for _, a := range assessments {
		lines = append(lines, fmt.Sprintf("%s / %s: %s (%s) %s", a.DrugName, a.Phenotype, a.Level, a.SourceLabel, a.GuidanceText))
	}

	return textResult(strings.Join(lines, "\n")), ClassifyDrugRiskResult{Assessments: assessments}, nil
}

func (s *Server) handleGenerateReport(ctx context.Context, req *mcp.CallToolRequest, params GenerateReportParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "generate_report").Info("Tool invoked")

	findings := params.Genes
	patientID := params.PatientID
	if params.ProfileID != "" {
		var errResult *mcp.CallToolResult
		if findings, errResult = s.profileFindings(ctx, params.ProfileID); errResult != nil {
			return errResult, nil, nil
		}
		if patientID == "" {
			patientID = params.ProfileID
		}
	}
	if patientID == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("patient_id or profile_id is required")), nil, nil
	}

	rep, err := s.analysis.GenerateReport(ctx, patientID, findings)
	if err != nil {
		return s.createErrorResult("Report generation failed", err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s: %s\n", rep.PatientID, rep.RiskAssessment.Summary)
	for _, r := range rep.ClinicalRecommendation {
		fmt.Fprintf(&b, "- %s: %s. %s\n", r.Drug, r.Action, r.Reason)
	}
	b.WriteString(rep.Explanation.ClinicalInterpretation)

	return textResult(b.String()), rep, nil
}

func (s *Server) handleListDrugs(ctx context.Context, req *mcp.CallToolRequest, params ListDrugsParams) (*mcp.CallToolResult, any, error) {
	drugs := s.analysis.Drugs()
	text := fmt.Sprintf("%d drugs with guidelines", len(drugs))
	if len(drugs) > 0 {
		text += ": " + strings.Join(drugs, ", ")
	}
	return textResult(text), ListDrugsResult{Count: len(drugs), Drugs: drugs}, nil
}

func (s *Server) handleListProfiles(ctx context.Context, req *mcp.CallToolRequest, params ListProfilesParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	profiles, err := s.profiles.List(ctx, limit, max(params.Offset, 0))
	if err != nil {
		return s.createErrorResult("Failed to list profiles", err), nil, nil
	}
	total, err := s.profiles.Count(ctx)
	if err != nil {
		return s.createErrorResult("Failed to count profiles", err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d profiles", len(profiles), total)
	for _, p := range profiles {
		fmt.Fprintf(&b, "\n%s %s (%s)", p.ID, p.Name, p.Timestamp.Format(time.RFC3339))
	}

	return textResult(b.String()), ListProfilesResult{Total: total, Profiles: profiles}, nil
}

func (s *Server) handleExportProfiles(ctx context.Context, req *mcp.CallToolRequest, params ExportProfilesParams) (*mcp.CallToolResult, any, error) {
	if s.exportDir == "" {
		return s.createErrorResult("Export unavailable", fmt.Errorf("no export directory configured")), nil, nil
	}

	name := filepath.Base(params.Filename)
	if params.Filename == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("profiles_%s.json", time.Now().UTC().Format("20060102_150405"))
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return s.createErrorResult("Failed to create export directory", err), nil, nil
	}

	path := filepath.Join(s.exportDir, name)
	f, err := os.Create(path)
	if err != nil {
		return s.createErrorResult("Failed to create export file", err), nil, nil
	}
	defer f.Close()

	if err := s.profiles.ExportJSON(ctx, f); err != nil {
		return s.createErrorResult("Export failed", err), nil, nil
	}

	return textResult("Profiles exported to " + path), ExportProfilesResult{Path: path}, nil
}

// profileFindings loads the findings of a stored profile, or an error result.
func (s *Server) profileFindings(ctx context.Context, id string) ([]domain.GeneFinding, *mcp.CallToolResult) {
	if s.profiles == nil {
		return nil, s.createErrorResult("Profiles unavailable", fmt.Errorf("no profile store configured"))
	}
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, s.createErrorResult("Profile not found", err)
	}
	return p.Findings(), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
