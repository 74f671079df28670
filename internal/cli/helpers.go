package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/accord-io/accord/internal/config"
	"github.com/accord-io/accord/internal/engine"
	"github.com/accord-io/accord/internal/expiry"
	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
	"github.com/accord-io/accord/internal/repo"
	"github.com/accord-io/accord/internal/report"
	"github.com/accord-io/accord/internal/template"
	"github.com/accord-io/accord/providers/awsiam"
	"github.com/accord-io/accord/providers/memory"
)

func repoRoot() (string, error) {
	return filepath.Abs(rootRepoDir)
}

// setup loads config and wires the configured providers into an engine.
func setup(root string) (*config.Config, *provider.Registry, *engine.Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, nil, err
	}

	registry := provider.NewRegistry()
	if cfg.Providers.Memory {
		registry.Register(memory.New())
	}
	if cfg.Providers.AWS != nil {
		registry.Register(awsiam.New(cfg.Providers.AWS.Region, cfg.Providers.AWS.Profile))
	}

	eng := engine.NewEngine(registry)
	eng.Parallelism = cfg.Parallelism
	eng.Retry = &engine.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	}
	return cfg, registry, eng, nil
}

// loadTemplates discovers and loads every template in the repo. Files
// that fail to parse or validate are reported as errors without blocking
// the rest.
func loadTemplates(root string) ([]*model.Template, []error) {
	paths, err := repo.Discover(root)
	if err != nil {
		return nil, []error{err}
	}

	var templates []*model.Template
	var errs []error
	seen := make(map[string]string) // type/id -> path
	for _, path := range paths {
		t, err := template.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := t.TemplateType + "/" + t.Identifier
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate resource id %s (%s and %s)", key, prev, path))
			continue
		}
		seen[key] = path
		templates = append(templates, t)
	}
	return templates, errs
}

// runTemplates fans the engine out across templates, sweeping expired
// sub-resources in memory first so nothing expired gets planned into
// existence. The sweep is persisted only by execute-mode apply.
func runTemplates(ctx context.Context, eng *engine.Engine, execCtx model.ExecutionContext, templates []*model.Template, accounts []model.Account, parallelism int) *report.Report {
	now := time.Now().UTC()
	for _, t := range templates {
		expiry.SweepTemplate(t, now)
	}

	results := engine.Process(ctx, parallelism, templates, func(ctx context.Context, t *model.Template) *model.TemplateChangeDetails {
		details, err := eng.ApplyTemplate(ctx, execCtx, t, accounts)
		if err != nil {
			details = &model.TemplateChangeDetails{
				ResourceID:     t.Identifier,
				ResourceType:   t.TemplateType,
				TemplatePath:   t.FilePath,
				ExceptionsSeen: []string{err.Error()},
			}
		}
		return details
	})

	r := report.New(execCtx)
	for _, details := range results {
		if details != nil {
			r.Add(details)
		}
	}
	return r
}

// writeReport persists the run artifact locally and, if configured, to
// S3.
func writeReport(ctx context.Context, cfg *config.Config, root string, r *report.Report) {
	dir := cfg.Report.Dir
	if dir == "" {
		dir = root
	}
	sinks := []report.Sink{&report.LocalSink{Dir: dir}}
	if s3 := cfg.Report.S3; s3 != nil {
		sinks = append(sinks, &report.S3Sink{Bucket: s3.Bucket, Prefix: s3.Prefix, Region: s3.Region})
	}
	for _, sink := range sinks {
		location, err := sink.Write(ctx, r)
		if err != nil {
			fmt.Printf("warning: failed to write report: %v\n", err)
			continue
		}
		fmt.Printf("Report written to %s\n", location)
	}
}

func findAccount(cfg *config.Config, idOrName string) (model.Account, error) {
	for _, acct := range cfg.Accounts {
		if acct.ID == idOrName || acct.Name == idOrName {
			return acct, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q is not configured", idOrName)
}
