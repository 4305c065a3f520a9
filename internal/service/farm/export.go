package farm

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

const (
	treesSheet  = "Trees"
	blocksSheet = "Blocks"
)

var treesHeader = []string{
	"Block", "X", "Y", "Tier", "Tree Code", "Tree Name", "Variety", "Status",
	"Planting Date", "Latitude", "Longitude", "Accuracy (m)", "GPS Source",
}

var blocksHeader = []string{"Block", "X", "Y", "Width", "Height", "Trees"}

// ExportLayout renders a layout and its trees as an xlsx workbook.
func (s *Service) ExportLayout(ctx context.Context, layoutID string) ([]byte, error) {
	layout, err := s.layouts.Get(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	positions, err := s.positions.ListByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.nodeTypes.ListByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	types, err := s.treeTypes.List(ctx)
	if err != nil {
		return nil, err
	}

	typeByID := make(map[string]models.TreeType, len(types))
	for _, tt := range types {
		typeByID[tt.ID] = tt
	}
	tierByCell := make(map[models.CellKey]grid.Tier, len(overrides))
	for _, o := range overrides {
		tierByCell[o.CellKey] = o.NodeType
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", treesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(blocksSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	perBlock := make(map[int]int)
	rows := make([][]interface{}, 0, len(positions))
	for _, p := range positions {
		perBlock[p.BlockIndex]++

		tier, ok := tierByCell[p.CellKey]
		if !ok && p.BlockIndex < len(layout.GridConfig.Blocks) {
			b := layout.GridConfig.Blocks[p.BlockIndex]
			tier = grid.Classify(p.GridX, p.GridY, b.Width, b.Height)
		}
		tt := typeByID[p.TreeID]
		rows = append(rows, []interface{}{
			p.BlockIndex, p.GridX, p.GridY, string(tier), tt.Code, tt.Name, p.Variety, string(p.Status),
			p.PlantingDate.Format(time.DateOnly), floatOrEmpty(p.Latitude), floatOrEmpty(p.Longitude),
			floatOrEmpty(p.GPSAccuracy), string(p.CoordinateSource),
		})
	}
	if err := writeSheet(f, treesSheet, treesHeader, rows, headerStyle); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for i, b := range layout.GridConfig.Blocks {
		rows = append(rows, []interface{}{i, b.X, b.Y, b.Width, b.Height, perBlock[i]})
	}
	if err := writeSheet(f, blocksSheet, blocksHeader, rows, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
