package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// PipelineService groups opportunities into the six board columns.
type PipelineService interface {
	Columns(ctx context.Context) ([]rules.PipelineColumn, error)
}

type pipelineService struct {
	opportunityRepo repositories.OpportunityRepository
	logger          *zap.Logger
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(opportunityRepo repositories.OpportunityRepository, logger *zap.Logger) PipelineService {
	return &pipelineService{
		opportunityRepo: opportunityRepo,
		logger:          logger.Named("pipeline-service"),
	}
}

var _ PipelineService = (*pipelineService)(nil)

func (s *pipelineService) Columns(ctx context.Context) ([]rules.PipelineColumn, error) {
	opps, err := s.opportunityRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list opportunities", err)
	}
	return rules.GroupPipeline(opps), nil
}
