package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/filiprab/a2a-opa/internal/domain/authz"
	"github.com/filiprab/a2a-opa/internal/domain/policy"
	"github.com/filiprab/a2a-opa/internal/port/outbound"
)

// PolicyLoader pushes the built-in policy templates and sample data to a
// decision engine. Individual upload failures are collected as
// *authz.LoadError values rather than aborting the push, so a partially
// reachable engine still receives as much of the bundle as possible.
type PolicyLoader struct {
	store  outbound.PolicyStore
	logger *slog.Logger
}

// NewPolicyLoader creates a loader pushing through store.
func NewPolicyLoader(store outbound.PolicyStore, logger *slog.Logger) *PolicyLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyLoader{store: store, logger: logger}
}

// PushTemplates uploads every built-in template to the engine under the
// "a2a/<name>" policy path. It returns one error per failed upload; an
// empty slice means the full bundle was installed.
func (l *PolicyLoader) PushTemplates(ctx context.Context) []error {
	templates := policy.Templates()
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		path := "a2a/" + name
		if !l.store.UploadPolicy(ctx, path, templates[name]) {
			err := &authz.LoadError{
				PolicyPath: path,
				Err:        fmt.Errorf("engine rejected policy upload"),
			}
			l.logger.Warn("policy upload failed", "policy", path)
			errs = append(errs, err)
			continue
		}
		l.logger.Info("policy uploaded", "policy", path)
	}
	return errs
}

// PushSampleData uploads the sample data document to the engine root.
func (l *PolicyLoader) PushSampleData(ctx context.Context) error {
	if !l.store.UploadData(ctx, "", policy.SampleData()) {
		return &authz.LoadError{
			PolicyPath: "data",
			Err:        fmt.Errorf("engine rejected data upload"),
		}
	}
	l.logger.Info("sample data uploaded")
	return nil
}
