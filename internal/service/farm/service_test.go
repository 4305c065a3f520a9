package farm

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

func activeLayout(t *testing.T, f *fixture) models.FarmLayout {
	t.Helper()
	layout, err := f.svc.ActiveLayout(context.Background(), "farm-1")
	require.NoError(t, err)
	return layout
}

func TestActiveLayout_CreatesDefaultOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.ActiveLayout(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, "Main layout", first.Name)
	assert.True(t, first.IsActive)
	assert.Equal(t, grid.DefaultBlocks(), first.GridConfig.Blocks)

	second, err := f.svc.ActiveLayout(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.layouts.byID, 1)
}

func TestActiveLayout_RequiresFarm(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ActiveLayout(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExpandLayout_PersistsWholeArray(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)

	expanded, err := f.svc.ExpandLayout(context.Background(), layout.ID, "left")
	require.NoError(t, err)
	require.Len(t, expanded.GridConfig.Blocks, 10)

	stored := f.layouts.byID[layout.ID]
	assert.Equal(t, expanded.GridConfig.Blocks, stored.GridConfig.Blocks)
	for _, b := range stored.GridConfig.Blocks {
		assert.GreaterOrEqual(t, b.X, 0)
	}
}

func TestExpandLayout_InvalidDirection(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)

	_, err := f.svc.ExpandLayout(context.Background(), layout.ID, "diagonal")
	assert.ErrorIs(t, err, grid.ErrInvalidDirection)
}

func TestExpandLayout_EmptyBlocks(t *testing.T) {
	f := newFixture()
	f.layouts.byID["bare"] = models.FarmLayout{ID: "bare", FarmID: "x"}

	_, err := f.svc.ExpandLayout(context.Background(), "bare", "right")
	assert.ErrorIs(t, err, grid.ErrEmptyLayout)
}

func TestPlaceTree_OccupiedCellRejected(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	in := PlaceTreeInput{TreeID: "mango", BlockIndex: 1, GridX: 12, GridY: 12}
	pos, err := f.svc.PlaceTree(ctx, layout.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.TreePlanted, pos.Status)
	assert.Equal(t, fixedNow, pos.PlantingDate)

	occupant, err := f.svc.TreeAt(ctx, pos.CellKey)
	require.NoError(t, err)
	assert.Equal(t, pos.ID, occupant.ID)

	_, err = f.svc.PlaceTree(ctx, layout.ID, in)
	assert.ErrorIs(t, err, ErrCellOccupied)
}

func TestPlaceTree_LostRaceMapsToOccupied(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	in := PlaceTreeInput{TreeID: "mango", BlockIndex: 0, GridX: 0, GridY: 0}
	_, err := f.svc.PlaceTree(ctx, layout.ID, in)
	require.NoError(t, err)

	f.positions.skipFindAt = true
	_, err = f.svc.PlaceTree(ctx, layout.ID, in)
	assert.ErrorIs(t, err, ErrCellOccupied)
}

func TestPlaceTree_Validation(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	tests := []struct {
		name string
		in   PlaceTreeInput
		want error
	}{
		{"missing tree", PlaceTreeInput{BlockIndex: 0}, ErrInvalidInput},
		{"unknown tree type", PlaceTreeInput{TreeID: "oak"}, repository.ErrNotFound},
		{"bad block", PlaceTreeInput{TreeID: "mango", BlockIndex: 8}, grid.ErrBlockOutOfRange},
		{"cell outside block", PlaceTreeInput{TreeID: "mango", GridX: 25}, grid.ErrCellOutOfRange},
		{"bad status", PlaceTreeInput{TreeID: "mango", Status: "sleeping"}, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceTree(ctx, layout.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRemovePosition_FreesCell(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	in := PlaceTreeInput{TreeID: "mango", BlockIndex: 2, GridX: 6, GridY: 0}
	pos, err := f.svc.PlaceTree(ctx, layout.ID, in)
	require.NoError(t, err)
	_, err = f.svc.RecordCare(ctx, pos.ID, CareEntry{Action: models.CareWatering})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemovePosition(ctx, pos.ID))
	_, err = f.svc.TreeAt(ctx, pos.CellKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.careLogs.entries)

	_, err = f.svc.PlaceTree(ctx, layout.ID, in)
	assert.NoError(t, err)
}

func TestUpdatePosition_KeepsCell(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	pos, err := f.svc.PlaceTree(ctx, layout.ID, PlaceTreeInput{TreeID: "mango", GridX: 3, GridY: 3})
	require.NoError(t, err)

	status := models.TreeFruiting
	variety := "Alphonso"
	updated, err := f.svc.UpdatePosition(ctx, pos.ID, models.PositionPatch{Status: &status, Variety: &variety})
	require.NoError(t, err)
	assert.Equal(t, models.TreeFruiting, updated.Status)
	assert.Equal(t, "Alphonso", updated.Variety)
	assert.Equal(t, pos.CellKey, updated.CellKey)

	bad := models.TreeStatus("sleeping")
	_, err = f.svc.UpdatePosition(ctx, pos.ID, models.PositionPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAttachGPS(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	pos, err := f.svc.PlaceTree(ctx, layout.ID, PlaceTreeInput{TreeID: "mango"})
	require.NoError(t, err)

	acc := 4.5
	got, err := f.svc.AttachGPS(ctx, pos.ID, models.GPSFix{Latitude: 12.97, Longitude: 77.59, Accuracy: &acc, Source: models.SourceDevice})
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 12.97, *got.Latitude)
	assert.Equal(t, models.SourceDevice, got.CoordinateSource)
	require.NotNil(t, got.GPSUpdatedAt)
	assert.Equal(t, fixedNow, *got.GPSUpdatedAt)

	neg := -1.0
	invalid := []models.GPSFix{
		{Latitude: 91, Longitude: 0},
		{Latitude: -90.5, Longitude: 0},
		{Latitude: 0, Longitude: 180.1},
		{Latitude: 0, Longitude: 0, Accuracy: &neg},
		{Latitude: 0, Longitude: 0, Source: "satellite"},
	}
	for _, fix := range invalid {
		_, err := f.svc.AttachGPS(ctx, pos.ID, fix)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "%+v", fix)
	}

	edge, err := f.svc.AttachGPS(ctx, pos.ID, models.GPSFix{Latitude: -90, Longitude: 180})
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, edge.CoordinateSource)
}

func TestSetNodeType_OverrideAndRevert(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()
	key := models.CellKey{LayoutID: layout.ID, BlockIndex: 0, GridX: 5, GridY: 7}

	tier, err := f.svc.ResolveTier(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, grid.TierTiny, tier)

	tier, err = f.svc.SetNodeType(ctx, key, "big")
	require.NoError(t, err)
	assert.Equal(t, grid.TierBig, tier)

	tier, err = f.svc.ResolveTier(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, grid.TierBig, tier)

	tier, err = f.svc.SetNodeType(ctx, key, "auto")
	require.NoError(t, err)
	assert.Equal(t, grid.TierTiny, tier)
	assert.Empty(t, f.nodeTypes.byCell)

	_, err = f.svc.SetNodeType(ctx, key, "huge")
	assert.ErrorIs(t, err, ErrInvalidNodeType)
}

func TestBlockCells(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	_, err := f.svc.PlaceTree(ctx, layout.ID, PlaceTreeInput{TreeID: "mango", BlockIndex: 3, GridX: 12, GridY: 12})
	require.NoError(t, err)
	_, err = f.svc.SetNodeType(ctx, models.CellKey{LayoutID: layout.ID, BlockIndex: 3, GridX: 1, GridY: 1}, "medium")
	require.NoError(t, err)

	cells, err := f.svc.BlockCells(ctx, layout.ID, 3)
	require.NoError(t, err)
	require.Len(t, cells, 25*25)

	at := func(x, y int) models.CellView { return cells[y*25+x] }
	assert.Equal(t, grid.TierBig, at(0, 0).Tier)
	assert.Equal(t, grid.TierCenterBig, at(12, 12).Tier)
	require.NotNil(t, at(12, 12).Tree)
	assert.Equal(t, grid.TierMedium, at(1, 1).Tier)
	assert.Equal(t, TierSourceCustom, at(1, 1).TierSource)
	assert.Equal(t, TierSourceAuto, at(2, 2).TierSource)

	_, err = f.svc.BlockCells(ctx, layout.ID, 99)
	assert.ErrorIs(t, err, grid.ErrBlockOutOfRange)
}

func TestCareHistory_NewestFirst(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	pos, err := f.svc.PlaceTree(ctx, layout.ID, PlaceTreeInput{TreeID: "mango"})
	require.NoError(t, err)

	older := fixedNow.Add(-48 * time.Hour)
	_, err = f.svc.RecordCare(ctx, pos.ID, CareEntry{Action: models.CarePruning, PerformedAt: &older})
	require.NoError(t, err)
	_, err = f.svc.RecordCare(ctx, pos.ID, CareEntry{Action: models.CareHarvest})
	require.NoError(t, err)

	history, err := f.svc.CareHistory(ctx, pos.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.CareHarvest, history[0].Action)

	_, err = f.svc.RecordCare(ctx, pos.ID, CareEntry{Action: "singing"})
	assert.ErrorIs(t, err, ErrInvalidCareAction)
}

func TestSeedTreeTypes_UpsertKeepsID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SeedTreeTypes(ctx, []models.TreeType{{Code: "mng", Name: "Mango (Alphonso)"}, {Code: "CCN", Name: "Coconut"}}))

	types, err := f.svc.ListTreeTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "mango", f.treeTypes.byID["mango"].ID)
	assert.Equal(t, "Mango (Alphonso)", f.treeTypes.byID["mango"].Name)
}

func TestCreateTreeType_DuplicateCode(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateTreeType(context.Background(), models.TreeType{Code: "mng", Name: "Other mango"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestExportLayout(t *testing.T) {
	f := newFixture()
	layout := activeLayout(t, f)
	ctx := context.Background()

	_, err := f.svc.PlaceTree(ctx, layout.ID, PlaceTreeInput{TreeID: "mango", BlockIndex: 0, GridX: 12, GridY: 0, Variety: "Kesar"})
	require.NoError(t, err)

	data, err := f.svc.ExportLayout(ctx, layout.ID)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	trees, err := wb.GetRows(treesSheet)
	require.NoError(t, err)
	require.Len(t, trees, 2)
	assert.Equal(t, "Tier", trees[0][3])
	assert.Equal(t, "medium", trees[1][3])
	assert.Equal(t, "MNG", trees[1][4])
	assert.Equal(t, "Kesar", trees[1][6])

	blocks, err := wb.GetRows(blocksSheet)
	require.NoError(t, err)
	assert.Len(t, blocks, 9)
	assert.Equal(t, "1", blocks[1][5])
}
