package farm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

func (s *Service) ListTreeTypes(ctx context.Context) ([]models.TreeType, error) {
	return s.treeTypes.List(ctx)
}

// CreateTreeType adds a species template. Codes are unique and stored upper case.
func (s *Service) CreateTreeType(ctx context.Context, tt models.TreeType) (models.TreeType, error) {
	tt.Code = strings.ToUpper(strings.TrimSpace(tt.Code))
	tt.Name = strings.TrimSpace(tt.Name)
	if tt.Code == "" || tt.Name == "" {
		return models.TreeType{}, fmt.Errorf("code and name are required: %w", ErrInvalidInput)
	}
	if tt.YearsToFruit < 0 {
		return models.TreeType{}, fmt.Errorf("years_to_fruit must not be negative: %w", ErrInvalidInput)
	}

	tt.ID = s.newID()
	tt.CreatedAt = s.now().UTC()
	if err := s.treeTypes.Insert(ctx, tt); err != nil {
		return models.TreeType{}, fmt.Errorf("create tree type %s: %w", tt.Code, err)
	}
	return tt, nil
}

// SeedTreeTypes upserts the given templates by code. Existing ids are kept.
func (s *Service) SeedTreeTypes(ctx context.Context, types []models.TreeType) error {
	now := s.now().UTC()
	for _, tt := range types {
		tt.Code = strings.ToUpper(strings.TrimSpace(tt.Code))
		tt.ID = s.newID()
		tt.CreatedAt = now
		if err := s.treeTypes.UpsertByCode(ctx, tt); err != nil {
			return fmt.Errorf("seed tree type %s: %w", tt.Code, err)
		}
	}
	s.logger.Info("tree types seeded", zap.Int("count", len(types)))
	return nil
}

// CareEntry is one maintenance action to record.
type CareEntry struct {
	Action      models.CareAction
	Notes       string
	PerformedBy string
	PerformedAt *time.Time
}

// RecordCare appends to the care history of a planted tree.
func (s *Service) RecordCare(ctx context.Context, positionID string, entry CareEntry) (models.CareLog, error) {
	if !entry.Action.Valid() {
		return models.CareLog{}, fmt.Errorf("%w: %q", ErrInvalidCareAction, entry.Action)
	}
	if _, err := s.positions.Get(ctx, positionID); err != nil {
		return models.CareLog{}, err
	}

	now := s.now().UTC()
	performed := now
	if entry.PerformedAt != nil {
		performed = entry.PerformedAt.UTC()
	}

	log := models.CareLog{
		ID:          s.newID(),
		PositionID:  positionID,
		Action:      entry.Action,
		Notes:       entry.Notes,
		PerformedBy: entry.PerformedBy,
		PerformedAt: performed,
		CreatedAt:   now,
	}
	if err := s.careLogs.Insert(ctx, log); err != nil {
		return models.CareLog{}, err
	}
	return log, nil
}

// CareHistory lists care entries newest first.
func (s *Service) CareHistory(ctx context.Context, positionID string) ([]models.CareLog, error) {
	if _, err := s.positions.Get(ctx, positionID); err != nil {
		return nil, err
	}
	return s.careLogs.ListByPosition(ctx, positionID)
}
