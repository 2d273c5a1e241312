// Package migrate upgrades stored layouts to the current data model the
// first time they are loaded after an upgrade.
//
// Each Step names the plugin version that introduced it. A layout whose
// plugin_version_saved is older than a step's threshold gets that step, in
// threshold order, and then has its saved stamp raised to the current
// version. The stamp is what keeps a step from running twice, so steps
// themselves need not be idempotent.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/hooks"
	"layout-builder/internal/infra/store"

	"github.com/rs/zerolog"
)

// Aspect selects which part of a layout Verify upgrades.
type Aspect string

const (
	AspectElements Aspect = "elements"
	AspectSettings Aspect = "settings"
)

// Step is one upgrade transform.
type Step struct {
	Aspect    Aspect
	Threshold string
	Name      string
	Apply     func(ctx context.Context, tx store.Store, layoutID string) error
}

// VerifyEvent is passed to the verify hooks after the built-in steps ran.
type VerifyEvent struct {
	LayoutID string
	Aspect   Aspect
	Versions layout.Versions
	Store    store.Store
}

type Migrator struct {
	registry *elements.Registry
	log      zerolog.Logger
	steps    []Step

	// Fired on every Verify of the matching aspect, whether or not a
	// built-in step ran.
	VerifyElements hooks.Action[*VerifyEvent]
	VerifySettings hooks.Action[*VerifyEvent]
}

// New returns a migrator carrying the built-in steps.
func New(registry *elements.Registry, log zerolog.Logger) *Migrator {
	m := &Migrator{registry: registry, log: log}
	m.AddStep(Step{
		Aspect:    AspectElements,
		Threshold: "2.0.0",
		Name:      "content_blocks",
		Apply:     m.contentBlocks,
	})
	return m
}

// AddStep registers an extra step. Steps keep threshold order; equal
// thresholds run in registration order.
func (m *Migrator) AddStep(s Step) {
	m.steps = append(m.steps, s)
	sort.SliceStable(m.steps, func(i, j int) bool {
		return layout.CompareVersions(m.steps[i].Threshold, m.steps[j].Threshold) < 0
	})
}

// Steps returns the registered steps in the order they run.
func (m *Migrator) Steps() []Step {
	return append([]Step(nil), m.steps...)
}

func (m *Migrator) pending(v layout.Versions, aspect Aspect) []Step {
	var out []Step
	for _, s := range m.steps {
		if s.Aspect == aspect && layout.CompareVersions(v.PluginSaved, s.Threshold) < 0 {
			out = append(out, s)
		}
	}
	return out
}

func (m *Migrator) hook(aspect Aspect) *hooks.Action[*VerifyEvent] {
	if aspect == AspectSettings {
		return &m.VerifySettings
	}
	return &m.VerifyElements
}

// Verify brings one aspect of a layout up to date. All writes happen in a
// single transaction; an error means the store failed and nothing was
// written. Problems with individual elements are logged and skipped.
func (m *Migrator) Verify(ctx context.Context, s store.Store, layoutID string, aspect Aspect) error {
	v, err := layout.ReadVersions(ctx, s, layoutID)
	if err != nil {
		return fmt.Errorf("verify %s: %w", aspect, err)
	}

	steps := m.pending(v, aspect)
	if len(steps) == 0 {
		m.hook(aspect).Fire(ctx, &VerifyEvent{LayoutID: layoutID, Aspect: aspect, Versions: v, Store: s})
		return nil
	}

	err = s.Transaction(ctx, func(tx store.Store) error {
		for _, step := range steps {
			m.log.Info().
				Str("layout_id", layoutID).
				Str("step", step.Name).
				Str("from_version", v.PluginSaved).
				Msg("migrating layout")
			if err := step.Apply(ctx, tx, layoutID); err != nil {
				return fmt.Errorf("step %s: %w", step.Name, err)
			}
		}
		m.hook(aspect).Fire(ctx, &VerifyEvent{LayoutID: layoutID, Aspect: aspect, Versions: v, Store: tx})
		return layout.StampSaved(ctx, tx, layoutID, layout.PluginVersion, "")
	})
	if err != nil {
		return fmt.Errorf("verify %s: %w", aspect, err)
	}
	return nil
}

// Load verifies both aspects and then reads the layout tree. Verification
// failures are logged, not returned: the stored shape is still readable.
func (m *Migrator) Load(ctx context.Context, s store.Store, layoutID string) (*layout.Document, error) {
	if _, err := s.GetLayout(ctx, layoutID); err != nil {
		return nil, err
	}
	for _, aspect := range []Aspect{AspectElements, AspectSettings} {
		if err := m.Verify(ctx, s, layoutID, aspect); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			m.log.Error().Err(err).Str("layout_id", layoutID).Str("aspect", string(aspect)).Msg("layout verification failed")
		}
	}
	return layout.Load(ctx, s, layoutID)
}
