package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/application"
	appcompliance "github.com/bryanwahyu/automaton-compliance/internal/application/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/config"
	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/provider"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/catalog"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/db/memory"
	minioStore "github.com/bryanwahyu/automaton-compliance/internal/infra/storage"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

const localTenant = "local"

// newOracle is swapped in tests.
var newOracle = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ai.Oracle, error) {
	return provider.New(ctx, cfg, logger)
}

type checkFlags struct {
	report       string
	jurisdiction string
	subject      string
	catalog      string
	prompts      string
	out          string
	concurrency  int
	upload       bool
}

func newCheckCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a compliance check for one test report",
		Example: `  compliance check --report test_report.json --jurisdiction EU
  compliance check --report r.json --jurisdiction India --catalog compliance_doc/doc.json --out out.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.report, "report", "", "path to the test report JSON")
	fl.StringVar(&f.jurisdiction, "jurisdiction", "", "jurisdiction, e.g. EU, UK, India")
	fl.StringVar(&f.subject, "subject", "", "subject identity (defaults to a field of the report)")
	fl.StringVar(&f.catalog, "catalog", "", "compliance document catalog JSON (overrides catalog.path)")
	fl.StringVar(&f.prompts, "prompts", "", "prompt template directory (overrides prompts.dir)")
	fl.StringVar(&f.out, "out", "compliance_results.json", "where to write the report JSON")
	fl.IntVar(&f.concurrency, "concurrency", 0, "max concurrent oracle calls (overrides engine.maxConcurrency)")
	fl.BoolVar(&f.upload, "upload", false, "also upload the report JSON to MinIO")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("jurisdiction")
	return cmd
}

func runCheck(cmd *cobra.Command, f checkFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if f.catalog != "" {
		cfg.Catalog.Source = "file"
		cfg.Catalog.Path = f.catalog
	}
	if f.prompts != "" {
		cfg.Prompts.Dir = f.prompts
	}
	if f.concurrency > 0 {
		cfg.Engine.MaxConcurrency = f.concurrency
	}

	logger, err := logging.New(cfg.Log.Level, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	report, err := readReport(f.report)
	if err != nil {
		return err
	}

	oracle, err := newOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}
	prompts, err := prompt.Load(cfg.Prompts.Dir, logger)
	if err != nil {
		return err
	}
	analyzer, err := appcompliance.NewAnalyzer(oracle, prompts,
		appcompliance.WithCallTimeout(cfg.Engine.CallTimeout),
		appcompliance.WithAnalyzerLogger(logger),
	)
	if err != nil {
		return err
	}
	engine, err := appcompliance.NewEngine(
		catalog.NewCached(catalog.FileLoader{Path: cfg.Catalog.Path}, logger),
		analyzer,
		appcompliance.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		appcompliance.WithEngineLogger(logger),
	)
	if err != nil {
		return err
	}

	svc := &appcompliance.Service{
		Engine:  engine,
		Reports: memory.NewReportRepository(),
		Clock:   application.SystemClock{},
		Logger:  logger,
	}
	rep, err := svc.RunCheck(ctx, appcompliance.CheckCommand{
		TenantID:     localTenant,
		Subject:      f.subject,
		Jurisdiction: f.jurisdiction,
		TestReport:   report,
	})
	if err != nil {
		return err
	}

	// tulis hasil
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}

	if f.upload {
		store, err := minioStore.New(ctx, cfg.Minio.Endpoint, cfg.Minio.Region, cfg.Minio.BucketName,
			cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		key := fmt.Sprintf("%s/reports/%s.json", localTenant, rep.Metadata.ReportID)
		url, err := store.Upload(ctx, f.out, key)
		if err != nil {
			return fmt.Errorf("upload %s: %w", f.out, err)
		}
		logger.Info("report uploaded", zap.String("url", url))
	}

	s := rep.Summary
	logger.Info("compliance check finished",
		zap.String("report_id", rep.Metadata.ReportID),
		zap.String("out", f.out),
		zap.Int("total", s.Total),
		zap.Int("compliant", s.Compliant),
		zap.Int("non_compliant", s.NonCompliant),
		zap.Int("needs_review", s.NeedsReview),
		zap.Int("errors", s.Errors),
		zap.Float64("compliance_rate", s.ComplianceRate),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "compliance rate %.2f%% (%d/%d compliant), report written to %s\n",
		s.ComplianceRate, s.Compliant, s.Total, f.out)
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Parse([]byte("{}"))
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func readReport(path string) (domain.TestReport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report domain.TestReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object: %v", domain.ErrInvalidReport, path, err)
	}
	return report, nil
}
