package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

// PlaceTreeInput describes a tree to plant on a cell.
type PlaceTreeInput struct {
	TreeID       string
	BlockIndex   int
	GridX        int
	GridY        int
	Variety      string
	Status       models.TreeStatus
	PlantingDate *time.Time
	Notes        string
}

// PlaceTree plants a tree on a free cell. A concurrent plant on the same cell
// loses at the unique index and also reports ErrCellOccupied.
func (s *Service) PlaceTree(ctx context.Context, layoutID string, in PlaceTreeInput) (models.TreePosition, error) {
	if strings.TrimSpace(in.TreeID) == "" {
		return models.TreePosition{}, fmt.Errorf("tree_id is required: %w", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = models.TreePlanted
	}
	if !status.Valid() {
		return models.TreePosition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	layout, err := s.layouts.Get(ctx, layoutID)
	if err != nil {
		return models.TreePosition{}, err
	}
	if err := grid.ValidCell(layout.GridConfig.Blocks, in.BlockIndex, in.GridX, in.GridY); err != nil {
		return models.TreePosition{}, err
	}
	if _, err := s.treeTypes.Get(ctx, in.TreeID); err != nil {
		return models.TreePosition{}, fmt.Errorf("tree type %s: %w", in.TreeID, err)
	}

	key := models.CellKey{LayoutID: layoutID, BlockIndex: in.BlockIndex, GridX: in.GridX, GridY: in.GridY}
	switch _, err := s.positions.FindAt(ctx, key); {
	case err == nil:
		return models.TreePosition{}, occupied(key)
	case !errors.Is(err, repository.ErrNotFound):
		return models.TreePosition{}, err
	}

	now := s.now().UTC()
	planted := now
	if in.PlantingDate != nil {
		planted = in.PlantingDate.UTC()
	}

	pos := models.TreePosition{
		ID:           s.newID(),
		TreeID:       in.TreeID,
		CellKey:      key,
		Variety:      strings.TrimSpace(in.Variety),
		Status:       status,
		PlantingDate: planted,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.positions.Insert(ctx, pos); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.TreePosition{}, occupied(key)
		}
		return models.TreePosition{}, err
	}

	s.logger.Info("tree planted",
		zap.String("layout_id", layoutID),
		zap.Int("block_index", key.BlockIndex),
		zap.Int("grid_x", key.GridX),
		zap.Int("grid_y", key.GridY),
		zap.String("position_id", pos.ID))
	return pos, nil
}

func occupied(key models.CellKey) error {
	return fmt.Errorf("%w: block %d (%d,%d)", ErrCellOccupied, key.BlockIndex, key.GridX, key.GridY)
}

// TreeAt returns the tree occupying a cell, or repository.ErrNotFound when the cell is free.
func (s *Service) TreeAt(ctx context.Context, key models.CellKey) (models.TreePosition, error) {
	return s.positions.FindAt(ctx, key)
}

func (s *Service) ListPositions(ctx context.Context, layoutID string) ([]models.TreePosition, error) {
	return s.positions.ListByLayout(ctx, layoutID)
}

// UpdatePosition applies a partial edit. The cell a tree occupies cannot change.
func (s *Service) UpdatePosition(ctx context.Context, id string, patch models.PositionPatch) (models.TreePosition, error) {
	pos, err := s.positions.Get(ctx, id)
	if err != nil {
		return models.TreePosition{}, err
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return models.TreePosition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
		}
		pos.Status = *patch.Status
	}
	if patch.Variety != nil {
		pos.Variety = strings.TrimSpace(*patch.Variety)
	}
	if patch.PlantingDate != nil {
		pos.PlantingDate = patch.PlantingDate.UTC()
	}
	if patch.Notes != nil {
		pos.Notes = *patch.Notes
	}
	if patch.Latitude != nil || patch.Longitude != nil || patch.GPSAccuracy != nil {
		lat, lon := valueOr(patch.Latitude, pos.Latitude), valueOr(patch.Longitude, pos.Longitude)
		if lat == nil || lon == nil {
			return models.TreePosition{}, fmt.Errorf("latitude and longitude go together: %w", ErrInvalidCoordinates)
		}
		fix := models.GPSFix{Latitude: *lat, Longitude: *lon, Altitude: pos.Altitude, Accuracy: valueOr(patch.GPSAccuracy, pos.GPSAccuracy), Source: models.SourceManual}
		if err := validateFix(fix); err != nil {
			return models.TreePosition{}, err
		}
		s.applyFix(&pos, fix)
	}

	pos.UpdatedAt = s.now().UTC()
	if err := s.positions.Update(ctx, pos); err != nil {
		return models.TreePosition{}, err
	}
	return pos, nil
}

// AttachGPS records a coordinate reading on an existing position.
func (s *Service) AttachGPS(ctx context.Context, id string, fix models.GPSFix) (models.TreePosition, error) {
	if fix.Source == "" {
		fix.Source = models.SourceManual
	}
	if err := validateFix(fix); err != nil {
		return models.TreePosition{}, err
	}

	pos, err := s.positions.Get(ctx, id)
	if err != nil {
		return models.TreePosition{}, err
	}

	s.applyFix(&pos, fix)
	pos.UpdatedAt = s.now().UTC()
	if err := s.positions.Update(ctx, pos); err != nil {
		return models.TreePosition{}, err
	}
	return pos, nil
}

// RemovePosition uproots a tree, freeing the cell and dropping its care history.
func (s *Service) RemovePosition(ctx context.Context, id string) error {
	if err := s.positions.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.careLogs.DeleteByPosition(ctx, id); err != nil {
		s.logger.Warn("failed to delete care history", zap.String("position_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) applyFix(pos *models.TreePosition, fix models.GPSFix) {
	lat, lon := fix.Latitude, fix.Longitude
	at := s.now().UTC()
	pos.Latitude = &lat
	pos.Longitude = &lon
	pos.Altitude = fix.Altitude
	pos.GPSAccuracy = fix.Accuracy
	pos.CoordinateSource = fix.Source
	pos.GPSUpdatedAt = &at
}

func validateFix(fix models.GPSFix) error {
	switch {
	case fix.Latitude < -90 || fix.Latitude > 90:
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinates, fix.Latitude)
	case fix.Longitude < -180 || fix.Longitude > 180:
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinates, fix.Longitude)
	case fix.Accuracy != nil && *fix.Accuracy < 0:
		return fmt.Errorf("%w: negative accuracy", ErrInvalidCoordinates)
	case !fix.Source.Valid():
		return fmt.Errorf("%w: unknown source %q", ErrInvalidCoordinates, fix.Source)
	}
	return nil
}

func valueOr(v, fallback *float64) *float64 {
	if v != nil {
		return v
	}
	return fallback
}
