package models

import (
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
)

// GridConfig is the block tiling of a layout. It is always persisted whole.
type GridConfig struct {
	Blocks []grid.Block `bson:"blocks" json:"blocks"`
}

// FarmLayout is one named planting plan of a farm.
type FarmLayout struct {
	ID          string     `bson:"_id" json:"id"`
	FarmID      string     `bson:"farm_id" json:"farm_id"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	GridConfig  GridConfig `bson:"grid_config" json:"grid_config"`
	IsActive    bool       `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// TreeType is a species template trees are planted from.
type TreeType struct {
	ID           string    `bson:"_id" json:"id" yaml:"-"`
	Code         string    `bson:"code" json:"code" yaml:"code"`
	Name         string    `bson:"name" json:"name" yaml:"name"`
	Category     string    `bson:"category" json:"category" yaml:"category"`
	Season       string    `bson:"season,omitempty" json:"season,omitempty" yaml:"season"`
	YearsToFruit int       `bson:"years_to_fruit" json:"years_to_fruit" yaml:"years_to_fruit"`
	MatureHeight string    `bson:"mature_height,omitempty" json:"mature_height,omitempty" yaml:"mature_height"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at" yaml:"-"`
}

// TreeStatus is the lifecycle state of a planted tree.
type TreeStatus string

const (
	TreePlanted   TreeStatus = "planted"
	TreeGrowing   TreeStatus = "growing"
	TreeFlowering TreeStatus = "flowering"
	TreeFruiting  TreeStatus = "fruiting"
	TreeDormant   TreeStatus = "dormant"
	TreeDiseased  TreeStatus = "diseased"
	TreeDead      TreeStatus = "dead"
)

// Valid reports whether s is a known tree status.
func (s TreeStatus) Valid() bool {
	switch s {
	case TreePlanted, TreeGrowing, TreeFlowering, TreeFruiting, TreeDormant, TreeDiseased, TreeDead:
		return true
	}
	return false
}

// CoordinateSource tells where a GPS fix came from.
type CoordinateSource string

const (
	SourceDevice CoordinateSource = "device"
	SourceManual CoordinateSource = "manual"
	SourceMap    CoordinateSource = "map"
)

// Valid reports whether s is a known coordinate source.
func (s CoordinateSource) Valid() bool {
	return s == SourceDevice || s == SourceManual || s == SourceMap
}

// CellKey addresses one cell of a layout.
type CellKey struct {
	LayoutID   string `bson:"layout_id" json:"layout_id"`
	BlockIndex int    `bson:"block_index" json:"block_index"`
	GridX      int    `bson:"grid_x" json:"grid_x"`
	GridY      int    `bson:"grid_y" json:"grid_y"`
}

// TreePosition is a tree planted on a layout cell. At most one exists per CellKey.
type TreePosition struct {
	ID               string           `bson:"_id" json:"id"`
	TreeID           string           `bson:"tree_id" json:"tree_id"`
	CellKey          `bson:",inline"`
	Variety          string           `bson:"variety,omitempty" json:"variety,omitempty"`
	Status           TreeStatus       `bson:"status" json:"status"`
	PlantingDate     time.Time        `bson:"planting_date" json:"planting_date"`
	Notes            string           `bson:"notes,omitempty" json:"notes,omitempty"`
	Latitude         *float64         `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude        *float64         `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Altitude         *float64         `bson:"altitude,omitempty" json:"altitude,omitempty"`
	GPSAccuracy      *float64         `bson:"gps_accuracy,omitempty" json:"gps_accuracy,omitempty"`
	CoordinateSource CoordinateSource `bson:"coordinate_source,omitempty" json:"coordinate_source,omitempty"`
	GPSUpdatedAt     *time.Time       `bson:"gps_updated_at,omitempty" json:"gps_updated_at,omitempty"`
	CreatedAt        time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at" json:"updated_at"`
}

// PositionPatch carries a partial update of a tree position. Nil fields are untouched.
type PositionPatch struct {
	Variety      *string     `json:"variety,omitempty"`
	Status       *TreeStatus `json:"status,omitempty"`
	PlantingDate *time.Time  `json:"planting_date,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
	GPSAccuracy  *float64    `json:"gps_accuracy,omitempty"`
}

// GPSFix is a coordinate reading attached to a tree position.
type GPSFix struct {
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Altitude  *float64         `json:"altitude,omitempty"`
	Accuracy  *float64         `json:"accuracy,omitempty"`
	Source    CoordinateSource `json:"source"`
}

// CustomNodeType overrides the computed tier of a cell.
type CustomNodeType struct {
	CellKey   `bson:",inline"`
	NodeType  grid.Tier `bson:"node_type" json:"node_type"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CareAction is a kind of maintenance performed on a tree.
type CareAction string

const (
	CareWatering    CareAction = "watering"
	CareFertilizing CareAction = "fertilizing"
	CarePruning     CareAction = "pruning"
	CarePestControl CareAction = "pest_control"
	CareHarvest     CareAction = "harvest"
	CareInspection  CareAction = "inspection"
)

// Valid reports whether a is a known care action.
func (a CareAction) Valid() bool {
	switch a {
	case CareWatering, CareFertilizing, CarePruning, CarePestControl, CareHarvest, CareInspection:
		return true
	}
	return false
}

// CareLog is one entry of a tree's care history.
type CareLog struct {
	ID          string     `bson:"_id" json:"id"`
	PositionID  string     `bson:"position_id" json:"position_id"`
	Action      CareAction `bson:"action" json:"action"`
	Notes       string     `bson:"notes,omitempty" json:"notes,omitempty"`
	PerformedBy string     `bson:"performed_by,omitempty" json:"performed_by,omitempty"`
	PerformedAt time.Time  `bson:"performed_at" json:"performed_at"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

// CellView is the rendering state of one cell: its effective tier and occupant.
type CellView struct {
	GridX      int           `json:"grid_x"`
	GridY      int           `json:"grid_y"`
	Tier       grid.Tier     `json:"tier"`
	TierSource string        `json:"tier_source"`
	Tree       *TreePosition `json:"tree,omitempty"`
}
