// Package farm manages farm layouts, the trees planted on their cells and the
// per-cell tier overrides.
package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

const defaultLayoutName = "Main layout"

const (
	TierSourceAuto   = "auto"
	TierSourceCustom = "custom"
)

var (
	ErrCellOccupied       = errors.New("cell already has a tree")
	ErrInvalidNodeType    = errors.New("invalid node type")
	ErrInvalidStatus      = errors.New("invalid tree status")
	ErrInvalidCoordinates = errors.New("invalid gps coordinates")
	ErrInvalidCareAction  = errors.New("invalid care action")
	ErrInvalidInput       = errors.New("invalid input")
)

// LayoutStore persists layouts.
type LayoutStore interface {
	Create(ctx context.Context, layout models.FarmLayout) error
	Get(ctx context.Context, id string) (models.FarmLayout, error)
	FindActive(ctx context.Context, farmID string) (models.FarmLayout, error)
	UpdateMeta(ctx context.Context, id, name, description string, now time.Time) error
	ReplaceBlocks(ctx context.Context, id string, blocks []grid.Block, now time.Time) error
}

// PositionStore persists tree positions.
type PositionStore interface {
	Insert(ctx context.Context, pos models.TreePosition) error
	Get(ctx context.Context, id string) (models.TreePosition, error)
	FindAt(ctx context.Context, key models.CellKey) (models.TreePosition, error)
	ListByLayout(ctx context.Context, layoutID string) ([]models.TreePosition, error)
	Update(ctx context.Context, pos models.TreePosition) error
	Delete(ctx context.Context, id string) error
}

// TreeTypeStore persists species templates.
type TreeTypeStore interface {
	List(ctx context.Context) ([]models.TreeType, error)
	Get(ctx context.Context, id string) (models.TreeType, error)
	Insert(ctx context.Context, tt models.TreeType) error
	UpsertByCode(ctx context.Context, tt models.TreeType) error
}

// NodeTypeStore persists tier overrides.
type NodeTypeStore interface {
	Upsert(ctx context.Context, nt models.CustomNodeType) error
	Delete(ctx context.Context, key models.CellKey) error
	Get(ctx context.Context, key models.CellKey) (models.CustomNodeType, error)
	ListByLayout(ctx context.Context, layoutID string) ([]models.CustomNodeType, error)
}

// CareLogStore persists care history.
type CareLogStore interface {
	Insert(ctx context.Context, entry models.CareLog) error
	ListByPosition(ctx context.Context, positionID string) ([]models.CareLog, error)
	DeleteByPosition(ctx context.Context, positionID string) error
}

// Stores groups the repositories the service depends on.
type Stores struct {
	Layouts   LayoutStore
	Positions PositionStore
	TreeTypes TreeTypeStore
	NodeTypes NodeTypeStore
	CareLogs  CareLogStore
}

// Service implements farm layout operations.
type Service struct {
	layouts   LayoutStore
	positions PositionStore
	treeTypes TreeTypeStore
	nodeTypes NodeTypeStore
	careLogs  CareLogStore
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires a farm service.
func NewService(stores Stores, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		layouts:   stores.Layouts,
		positions: stores.Positions,
		treeTypes: stores.TreeTypes,
		nodeTypes: stores.NodeTypes,
		careLogs:  stores.CareLogs,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ActiveLayout returns the active layout of a farm, creating the default one on first use.
func (s *Service) ActiveLayout(ctx context.Context, farmID string) (models.FarmLayout, error) {
	farmID = strings.TrimSpace(farmID)
	if farmID == "" {
		return models.FarmLayout{}, fmt.Errorf("farm_id is required: %w", ErrInvalidInput)
	}

	layout, err := s.layouts.FindActive(ctx, farmID)
	if err == nil {
		return layout, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.FarmLayout{}, err
	}

	now := s.now().UTC()
	layout = models.FarmLayout{
		ID:         s.newID(),
		FarmID:     farmID,
		Name:       defaultLayoutName,
		GridConfig: models.GridConfig{Blocks: grid.DefaultBlocks()},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.layouts.Create(ctx, layout); err != nil {
		return models.FarmLayout{}, fmt.Errorf("create default layout: %w", err)
	}

	s.logger.Info("default layout created", zap.String("farm_id", farmID), zap.String("layout_id", layout.ID))
	return layout, nil
}

func (s *Service) GetLayout(ctx context.Context, id string) (models.FarmLayout, error) {
	return s.layouts.Get(ctx, id)
}

// UpdateLayout renames a layout.
func (s *Service) UpdateLayout(ctx context.Context, id, name, description string) (models.FarmLayout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.FarmLayout{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if err := s.layouts.UpdateMeta(ctx, id, name, description, s.now().UTC()); err != nil {
		return models.FarmLayout{}, err
	}
	return s.layouts.Get(ctx, id)
}

// ExpandLayout grows the layout by a row or column and persists the whole block list.
func (s *Service) ExpandLayout(ctx context.Context, id, direction string) (models.FarmLayout, error) {
	dir, err := grid.ParseDirection(strings.ToLower(strings.TrimSpace(direction)))
	if err != nil {
		return models.FarmLayout{}, err
	}

	layout, err := s.layouts.Get(ctx, id)
	if err != nil {
		return models.FarmLayout{}, err
	}

	blocks, err := grid.Expand(layout.GridConfig.Blocks, dir)
	if err != nil {
		return models.FarmLayout{}, fmt.Errorf("expand layout %s: %w", id, err)
	}

	now := s.now().UTC()
	if err := s.layouts.ReplaceBlocks(ctx, id, blocks, now); err != nil {
		return models.FarmLayout{}, err
	}

	s.logger.Info("layout expanded",
		zap.String("layout_id", id),
		zap.String("direction", string(dir)),
		zap.Int("blocks", len(blocks)))

	layout.GridConfig.Blocks = blocks
	layout.UpdatedAt = now
	return layout, nil
}

// BlockCells renders every cell of a block with its effective tier and occupant.
func (s *Service) BlockCells(ctx context.Context, layoutID string, blockIndex int) ([]models.CellView, error) {
	layout, err := s.layouts.Get(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	if err := grid.ValidCell(layout.GridConfig.Blocks, blockIndex, 0, 0); err != nil {
		return nil, err
	}
	block := layout.GridConfig.Blocks[blockIndex]

	positions, err := s.positions.ListByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.nodeTypes.ListByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}

	type xy struct{ x, y int }
	trees := make(map[xy]models.TreePosition)
	for _, p := range positions {
		if p.BlockIndex == blockIndex {
			trees[xy{p.GridX, p.GridY}] = p
		}
	}
	custom := make(map[xy]grid.Tier)
	for _, o := range overrides {
		if o.BlockIndex == blockIndex {
			custom[xy{o.GridX, o.GridY}] = o.NodeType
		}
	}

	cells := make([]models.CellView, 0, (block.Width+1)*(block.Height+1))
	for y := 0; y <= block.Height; y++ {
		for x := 0; x <= block.Width; x++ {
			cell := models.CellView{GridX: x, GridY: y, Tier: grid.Classify(x, y, block.Width, block.Height), TierSource: TierSourceAuto}
			if t, ok := custom[xy{x, y}]; ok {
				cell.Tier = t
				cell.TierSource = TierSourceCustom
			}
			if p, ok := trees[xy{x, y}]; ok {
				p := p
				cell.Tree = &p
			}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

// ResolveTier returns the override of a cell, or the classifier's tier when none is set.
func (s *Service) ResolveTier(ctx context.Context, key models.CellKey) (grid.Tier, error) {
	layout, err := s.layouts.Get(ctx, key.LayoutID)
	if err != nil {
		return "", err
	}
	if err := grid.ValidCell(layout.GridConfig.Blocks, key.BlockIndex, key.GridX, key.GridY); err != nil {
		return "", err
	}

	override, err := s.nodeTypes.Get(ctx, key)
	switch {
	case err == nil:
		return override.NodeType, nil
	case errors.Is(err, repository.ErrNotFound):
		b := layout.GridConfig.Blocks[key.BlockIndex]
		return grid.Classify(key.GridX, key.GridY, b.Width, b.Height), nil
	default:
		return "", err
	}
}

// SetNodeType overrides the tier of a cell. An empty or "auto" value removes the override.
func (s *Service) SetNodeType(ctx context.Context, key models.CellKey, nodeType string) (grid.Tier, error) {
	tier, err := grid.ParseTier(nodeType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeType, nodeType)
	}

	layout, err := s.layouts.Get(ctx, key.LayoutID)
	if err != nil {
		return "", err
	}
	if err := grid.ValidCell(layout.GridConfig.Blocks, key.BlockIndex, key.GridX, key.GridY); err != nil {
		return "", err
	}

	if tier == grid.TierAuto {
		if err := s.nodeTypes.Delete(ctx, key); err != nil {
			return "", err
		}
		b := layout.GridConfig.Blocks[key.BlockIndex]
		return grid.Classify(key.GridX, key.GridY, b.Width, b.Height), nil
	}

	override := models.CustomNodeType{CellKey: key, NodeType: tier, UpdatedAt: s.now().UTC()}
	if err := s.nodeTypes.Upsert(ctx, override); err != nil {
		return "", err
	}
	return tier, nil
}

func (s *Service) ListNodeTypes(ctx context.Context, layoutID string) ([]models.CustomNodeType, error) {
	if _, err := s.layouts.Get(ctx, layoutID); err != nil {
		return nil, err
	}
	return s.nodeTypes.ListByLayout(ctx, layoutID)
}
