package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pharmaguard-pgx-server/internal/config"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/guideline"
	"github.com/pharmaguard-pgx-server/internal/service"
	"github.com/pharmaguard-pgx-server/internal/setup"
)

// globalFlags override the environment configuration.
type globalFlags struct {
	annotations string
	guidelines  string
	logLevel    string
	format      string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "pgx",
		Short:         "Pharmacogenomic drug risk engine",
		Long:          "pgx extracts pharmacogene genotypes from VCF files, resolves metabolizer phenotypes and classifies drug risk against CPIC guidance.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	p := root.PersistentFlags()
	p.StringVar(&flags.annotations, "annotations", "", "Annotation table YAML (default: built-in panel, or PHARMAGUARD_ANNOTATION_TABLE)")
	p.StringVar(&flags.guidelines, "guidelines", "", "Drug guideline JSON database (default: PHARMAGUARD_GUIDELINE_DB)")
	p.StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	p.StringVar(&flags.format, "format", "text", "Output format: text or json")

	root.AddCommand(
		newAnalyzeCmd(&flags),
		newClassifyCmd(&flags),
		newReportCmd(&flags),
		newDrugsCmd(&flags),
		newBuildGuidelinesCmd(&flags),
		newSetupCmd(),
	)
	return root
}

// engine builds the analysis service from the environment and flags.
func (f *globalFlags) engine() (*service.AnalysisService, *logrus.Logger, error) {
	if f.format != "text" && f.format != "json" {
		return nil, nil, codeError(2, "invalid --format %q: must be text or json", f.format)
	}

	cfg := config.LoadLiteConfig()
	cfg.LogLevel = f.logLevel
	cfg.LogFormat = "text"
	if f.annotations != "" {
		cfg.AnnotationTablePath = f.annotations
	}
	if f.guidelines != "" {
		cfg.GuidelineDBPath = f.guidelines
	}

	logger := config.NewLogger(cfg.Logging())
	svc, err := service.NewFromEngineConfig(cfg.Engine(), logger)
	if err != nil {
		return nil, nil, codeError(3, "loading engine data: %s", err)
	}
	return svc, logger, nil
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <vcf-file>",
		Short: "Resolve one metabolizer phenotype per gene from a VCF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.engine()
			if err != nil {
				return err
			}
			analysis, err := analyzeFile(cmd, svc, args[0])
			if err != nil {
				return err
			}

			if flags.format == "json" {
				return writeJSON(cmd.OutOrStdout(), analysis.Findings)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GENE\tVARIANT\tGENOTYPE\tPHENOTYPE")
			for _, f := range analysis.Findings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Gene, f.VariantID, f.DisplayGenotype, f.Phenotype)
			}
			return w.Flush()
		},
	}
}

func newClassifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <drug> <phenotype>",
		Short: "Classify a drug for a metabolizer phenotype",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.engine()
			if err != nil {
				return err
			}
			a, err := svc.ClassifyDrug(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if flags.format == "json" {
				return writeJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n%s\nSource: %s\n", a.DrugName, a.Phenotype, a.Level, a.GuidanceText, a.SourceLabel)
			return nil
		},
	}
}

func newReportCmd(flags *globalFlags) *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "report <vcf-file>",
		Short: "Analyze a VCF file and print the patient report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.engine()
			if err != nil {
				return err
			}
			analysis, err := analyzeFile(cmd, svc, args[0])
			if err != nil {
				return err
			}

			id := patientID
			if id == "" {
				id = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			rep, err := svc.GenerateReport(cmd.Context(), id, analysis.Findings)
			if err != nil {
				return err
			}

			if flags.format == "json" {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return writeReport(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient identifier (default: file name)")
	return cmd
}

func newDrugsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drugs",
		Short: "List drugs with a loaded guideline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.engine()
			if err != nil {
				return err
			}
			drugs := svc.Drugs()
			if flags.format == "json" {
				return writeJSON(cmd.OutOrStdout(), drugs)
			}
			for _, d := range drugs {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

func newBuildGuidelinesCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build-guidelines <corpus-dir>",
		Short: "Build the drug guideline database from CPIC guideline annotation files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(domain.LoggingConfig{Level: flags.logLevel, Format: "text", Output: "stderr"})

			store, err := guideline.BuildFromCorpus(args[0], logger)
			if err != nil {
				return codeError(3, "building guidelines: %s", err)
			}

			if out == "" || out == "-" {
				return store.WriteJSON(cmd.OutOrStdout())
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := store.WriteJSON(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d drugs to %s\n", store.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func newSetupCmd() *cobra.Command {
	var opts setup.Options
	var configPath string

	resolve := func() (string, error) {
		if configPath != "" {
			return configPath, nil
		}
		return setup.ClientConfigPath()
	}

	root := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop MCP client",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Client config file (default: platform location)")

	register := &cobra.Command{
		Use:   "register",
		Short: "Add the MCP server to the client config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			entry, err := setup.Register(path, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s) in %s\n", setup.ServerName, entry.Command, path)
			return nil
		},
	}
	register.Flags().StringVar(&opts.BinaryPath, "binary", "", "Path to the mcp-server binary (default: search PATH)")
	register.Flags().StringVar(&opts.DataDir, "data-dir", "", "Data directory passed to the server")
	register.Flags().StringVar(&opts.Guidelines, "guidelines", "", "Guideline database passed to the server")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			st, err := setup.Check(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\nRegistered: %t\n", st.ConfigPath, st.Registered)
			if st.Registered {
				fmt.Fprintf(out, "Command: %s\n", st.Entry.Command)
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "Issue: %s\n", issue)
			}
			if len(st.Issues) > 0 {
				return codeError(1, "setup has %d issue(s)", len(st.Issues))
			}
			return nil
		},
	}

	root.AddCommand(register, status)
	return root
}

func analyzeFile(cmd *cobra.Command, svc *service.AnalysisService, path string) (*service.Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, codeError(2, "opening variant file: %s", err)
	}
	defer f.Close()

	analysis, err := svc.AnalyzeReader(cmd.Context(), f)
	if err != nil {
		return nil, codeError(2, "reading variant file: %s", err)
	}
	return analysis, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, rep *domain.PatientReport) error {
	fmt.Fprintf(w, "Patient: %s\n", rep.PatientID)
	fmt.Fprintf(w, "Risk score: %d (%d high-risk variants)\n", rep.RiskAssessment.OverallRiskScore, rep.RiskAssessment.HighRiskVariantsCount)
	fmt.Fprintf(w, "%s\n\n", rep.RiskAssessment.Summary)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DRUG\tACTION\tREASON")
	for _, r := range rep.ClinicalRecommendation {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Drug, r.Action, r.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n%s\nEvidence: %s\n",
		rep.Explanation.BiologicalExplanation,
		rep.Explanation.ClinicalInterpretation,
		rep.Explanation.EvidenceCitation)
	return nil
}
