package service

import (
	"context"
	"time"

	"idol-platform/internal/model"
	"idol-platform/internal/repository/scylla"
	"idol-platform/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdolCreateRequest creates an idol record. All fields are required.
type IdolCreateRequest struct {
	XHandle              string    `json:"xHandle" validate:"required"`
	Name                 string    `json:"name" validate:"required"`
	CharacterDescription string    `json:"characterDescription" validate:"required"`
	Setting              string    `json:"setting" validate:"required"`
	IdolType             string    `json:"idolType" validate:"required"`
	IdolImage            string    `json:"idolImage" validate:"required"`
	LaunchTiming         time.Time `json:"launchTiming" validate:"required"`
}

// IdolService handles the idol CRUD surface.
type IdolService struct {
	idols  scylla.IdolRepository
	logger *zap.Logger
}

func NewIdolService(idols scylla.IdolRepository, logger *zap.Logger) *IdolService {
	return &IdolService{
		idols:  idols,
		logger: logger,
	}
}

// ListIdols returns all idol records.
func (s *IdolService) ListIdols(ctx context.Context) ([]*model.Idol, error) {
	return s.idols.ListIdols(ctx)
}

// CreateIdol creates an idol; the xHandle must be unused.
func (s *IdolService) CreateIdol(ctx context.Context, req *IdolCreateRequest) (*model.Idol, error) {
	req.XHandle = util.SanitizeInput(req.XHandle)
	req.Name = util.SanitizeInput(req.Name)
	req.CharacterDescription = util.SanitizeInput(req.CharacterDescription)
	req.Setting = util.SanitizeInput(req.Setting)
	req.IdolType = util.SanitizeInput(req.IdolType)

	if req.XHandle == "" || req.Name == "" || req.CharacterDescription == "" ||
		req.Setting == "" || req.IdolType == "" || req.IdolImage == "" ||
		req.LaunchTiming.IsZero() {
		return nil, ErrValidation
	}

	taken, err := s.idols.XHandleTaken(ctx, req.XHandle)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateHandle
	}

	idol := &model.Idol{
		XHandle:              req.XHandle,
		Name:                 req.Name,
		CharacterDescription: req.CharacterDescription,
		Setting:              req.Setting,
		IdolType:             req.IdolType,
		IdolImage:            req.IdolImage,
		LaunchTiming:         req.LaunchTiming,
	}

	if err := s.idols.CreateIdol(ctx, idol); err != nil {
		return nil, err
	}

	return idol, nil
}

// DeleteIdol removes an idol by id.
func (s *IdolService) DeleteIdol(ctx context.Context, idolID uuid.UUID) error {
	if idolID == uuid.Nil {
		return ErrValidation
	}

	if err := s.idols.DeleteIdol(ctx, idolID); err != nil {
		return err
	}

	s.logger.Info("Idol deleted", zap.String("idol_id", idolID.String()))
	return nil
}
