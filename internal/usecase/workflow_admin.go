package usecase

import (
	"context"
	"strings"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/workflow"
)

// Definition and configuration registration. Definitions are immutable once
// referenced by an instance; changes are published as a new version.

func (s *WorkflowService) CreateDefinition(ctx context.Context, def workflow.Definition) (workflow.Definition, error) {
	if strings.TrimSpace(def.Name) == "" {
		return workflow.Definition{}, repair.ErrInvalidArgument
	}
	if def.Version <= 0 {
		def.Version = 1
	}
	seen := map[int]bool{}
	for _, step := range def.Steps {
		if strings.TrimSpace(step.Name) == "" || strings.TrimSpace(step.Code) == "" {
			return workflow.Definition{}, repair.ErrInvalidArgument
		}
		if seen[step.Sequence] {
			return workflow.Definition{}, repair.ErrInvalidArgument
		}
		seen[step.Sequence] = true
	}
	var created workflow.Definition
	err := s.Store.WithinTx(ctx, func(r Repositories) error {
		var err error
		created, err = r.Definitions.Create(ctx, def)
		return err
	})
	return created, err
}

func (s *WorkflowService) GetDefinition(ctx context.Context, definitionID string) (workflow.Definition, error) {
	return s.Store.Repos().Definitions.Get(ctx, definitionID)
}

func (s *WorkflowService) CreateConfiguration(ctx context.Context, cfg workflow.Configuration) (workflow.Configuration, error) {
	if strings.TrimSpace(cfg.ServiceType) == "" || strings.TrimSpace(cfg.DefinitionID) == "" {
		return workflow.Configuration{}, repair.ErrInvalidArgument
	}
	var created workflow.Configuration
	err := s.Store.WithinTx(ctx, func(r Repositories) error {
		// the referenced definition has to exist
		if _, err := r.Definitions.Get(ctx, cfg.DefinitionID); err != nil {
			return err
		}
		var err error
		created, err = r.Configurations.Create(ctx, cfg)
		return err
	})
	return created, err
}

func (s *WorkflowService) ListConfigurations(ctx context.Context) ([]workflow.Configuration, error) {
	return s.Store.Repos().Configurations.List(ctx)
}
