package farm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

type memLayouts struct {
	mu   sync.Mutex
	byID map[string]models.FarmLayout
}

func (m *memLayouts) Create(_ context.Context, l models.FarmLayout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[l.ID]; ok {
		return repository.ErrDuplicate
	}
	l.GridConfig.Blocks = append([]grid.Block(nil), l.GridConfig.Blocks...)
	m.byID[l.ID] = l
	return nil
}

func (m *memLayouts) Get(_ context.Context, id string) (models.FarmLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return models.FarmLayout{}, fmt.Errorf("find layout: %w", repository.ErrNotFound)
	}
	return l, nil
}

func (m *memLayouts) FindActive(_ context.Context, farmID string) (models.FarmLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.byID {
		if l.FarmID == farmID && l.IsActive {
			return l, nil
		}
	}
	return models.FarmLayout{}, fmt.Errorf("find active layout: %w", repository.ErrNotFound)
}

func (m *memLayouts) UpdateMeta(_ context.Context, id, name, description string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Name, l.Description, l.UpdatedAt = name, description, now
	m.byID[id] = l
	return nil
}

func (m *memLayouts) ReplaceBlocks(_ context.Context, id string, blocks []grid.Block, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.GridConfig.Blocks = append([]grid.Block(nil), blocks...)
	l.UpdatedAt = now
	m.byID[id] = l
	return nil
}

// memPositions enforces the unique cell constraint like the Mongo index does.
type memPositions struct {
	mu     sync.Mutex
	byID   map[string]models.TreePosition
	byCell map[models.CellKey]string
	// skipFindAt hides occupants from FindAt to simulate a lost race.
	skipFindAt bool
}

func (m *memPositions) Insert(_ context.Context, p models.TreePosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCell[p.CellKey]; ok {
		return fmt.Errorf("insert tree position: %w", repository.ErrDuplicate)
	}
	m.byID[p.ID] = p
	m.byCell[p.CellKey] = p.ID
	return nil
}

func (m *memPositions) Get(_ context.Context, id string) (models.TreePosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return models.TreePosition{}, fmt.Errorf("find tree position: %w", repository.ErrNotFound)
	}
	return p, nil
}

func (m *memPositions) FindAt(_ context.Context, key models.CellKey) (models.TreePosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCell[key]
	if !ok || m.skipFindAt {
		return models.TreePosition{}, fmt.Errorf("find tree at cell: %w", repository.ErrNotFound)
	}
	return m.byID[id], nil
}

func (m *memPositions) ListByLayout(_ context.Context, layoutID string) ([]models.TreePosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.TreePosition{}
	for _, p := range m.byID {
		if p.LayoutID == layoutID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPositions) Update(_ context.Context, p models.TreePosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CellKey = old.CellKey
	m.byID[p.ID] = p
	return nil
}

func (m *memPositions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("delete tree position: %w", repository.ErrNotFound)
	}
	delete(m.byID, id)
	delete(m.byCell, p.CellKey)
	return nil
}

type memTreeTypes struct {
	mu   sync.Mutex
	byID map[string]models.TreeType
}

func (m *memTreeTypes) List(context.Context) ([]models.TreeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.TreeType{}
	for _, tt := range m.byID {
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memTreeTypes) Get(_ context.Context, id string) (models.TreeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt, ok := m.byID[id]
	if !ok {
		return models.TreeType{}, fmt.Errorf("find tree type: %w", repository.ErrNotFound)
	}
	return tt, nil
}

func (m *memTreeTypes) Insert(_ context.Context, tt models.TreeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Code == tt.Code {
			return fmt.Errorf("insert tree type: %w", repository.ErrDuplicate)
		}
	}
	m.byID[tt.ID] = tt
	return nil
}

func (m *memTreeTypes) UpsertByCode(_ context.Context, tt models.TreeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.byID {
		if existing.Code == tt.Code {
			tt.ID, tt.CreatedAt = id, existing.CreatedAt
			m.byID[id] = tt
			return nil
		}
	}
	m.byID[tt.ID] = tt
	return nil
}

type memNodeTypes struct {
	mu     sync.Mutex
	byCell map[models.CellKey]models.CustomNodeType
}

func (m *memNodeTypes) Upsert(_ context.Context, nt models.CustomNodeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCell[nt.CellKey] = nt
	return nil
}

func (m *memNodeTypes) Delete(_ context.Context, key models.CellKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byCell, key)
	return nil
}

func (m *memNodeTypes) Get(_ context.Context, key models.CellKey) (models.CustomNodeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nt, ok := m.byCell[key]
	if !ok {
		return models.CustomNodeType{}, fmt.Errorf("find node type: %w", repository.ErrNotFound)
	}
	return nt, nil
}

func (m *memNodeTypes) ListByLayout(_ context.Context, layoutID string) ([]models.CustomNodeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CustomNodeType{}
	for k, nt := range m.byCell {
		if k.LayoutID == layoutID {
			out = append(out, nt)
		}
	}
	return out, nil
}

type memCareLogs struct {
	mu      sync.Mutex
	entries []models.CareLog
}

func (m *memCareLogs) Insert(_ context.Context, e models.CareLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memCareLogs) ListByPosition(_ context.Context, positionID string) ([]models.CareLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CareLog{}
	for _, e := range m.entries {
		if e.PositionID == positionID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.After(out[j].PerformedAt) })
	return out, nil
}

func (m *memCareLogs) DeleteByPosition(_ context.Context, positionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.PositionID != positionID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

type fixture struct {
	svc       *Service
	layouts   *memLayouts
	positions *memPositions
	treeTypes *memTreeTypes
	nodeTypes *memNodeTypes
	careLogs  *memCareLogs
}

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		layouts:   &memLayouts{byID: map[string]models.FarmLayout{}},
		positions: &memPositions{byID: map[string]models.TreePosition{}, byCell: map[models.CellKey]string{}},
		treeTypes: &memTreeTypes{byID: map[string]models.TreeType{}},
		nodeTypes: &memNodeTypes{byCell: map[models.CellKey]models.CustomNodeType{}},
		careLogs:  &memCareLogs{},
	}
	f.svc = NewService(Stores{
		Layouts:   f.layouts,
		Positions: f.positions,
		TreeTypes: f.treeTypes,
		NodeTypes: f.nodeTypes,
		CareLogs:  f.careLogs,
	}, nil)
	f.svc.now = func() time.Time { return fixedNow }

	var n int
	f.svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}

	f.treeTypes.byID["mango"] = models.TreeType{ID: "mango", Code: "MNG", Name: "Mango"}
	return f
}
