package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/service/farm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FarmService covers layouts, planted trees and their care.
type FarmService interface {
	ListTreeTypes(ctx context.Context) ([]models.TreeType, error)
	CreateTreeType(ctx context.Context, tt models.TreeType) (models.TreeType, error)

	ActiveLayout(ctx context.Context, farmID string) (models.FarmLayout, error)
	GetLayout(ctx context.Context, id string) (models.FarmLayout, error)
	UpdateLayout(ctx context.Context, id, name, description string) (models.FarmLayout, error)
	ExpandLayout(ctx context.Context, id, direction string) (models.FarmLayout, error)
	ExportLayout(ctx context.Context, layoutID string) ([]byte, error)
	BlockCells(ctx context.Context, layoutID string, blockIndex int) ([]models.CellView, error)

	PlaceTree(ctx context.Context, layoutID string, in farm.PlaceTreeInput) (models.TreePosition, error)
	TreeAt(ctx context.Context, key models.CellKey) (models.TreePosition, error)
	ListPositions(ctx context.Context, layoutID string) ([]models.TreePosition, error)
	UpdatePosition(ctx context.Context, id string, patch models.PositionPatch) (models.TreePosition, error)
	AttachGPS(ctx context.Context, id string, fix models.GPSFix) (models.TreePosition, error)
	RemovePosition(ctx context.Context, id string) error

	ListNodeTypes(ctx context.Context, layoutID string) ([]models.CustomNodeType, error)
	SetNodeType(ctx context.Context, key models.CellKey, nodeType string) (grid.Tier, error)

	RecordCare(ctx context.Context, positionID string, entry farm.CareEntry) (models.CareLog, error)
	CareHistory(ctx context.Context, positionID string) ([]models.CareLog, error)
}

// FarmHandler serves the farm layout API.
type FarmHandler struct {
	svc    FarmService
	logger *zap.Logger
}

func NewFarmHandler(svc FarmService, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{svc: svc, logger: logger}
}

func (h *FarmHandler) ListTreeTypes(c *gin.Context) {
	list, err := h.svc.ListTreeTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.TreeType{}
	}
	respond(c, http.StatusOK, list)
}

func (h *FarmHandler) CreateTreeType(c *gin.Context) {
	var req models.TreeType
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tt, err := h.svc.CreateTreeType(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, tt)
}

// ActiveLayout returns the farm's active layout. farm_id defaults to "default".
func (h *FarmHandler) ActiveLayout(c *gin.Context) {
	layout, err := h.svc.ActiveLayout(c.Request.Context(), c.DefaultQuery("farm_id", "default"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, layout)
}

func (h *FarmHandler) GetLayout(c *gin.Context) {
	layout, err := h.svc.GetLayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, layout)
}

type layoutRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *FarmHandler) UpdateLayout(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	layout, err := h.svc.UpdateLayout(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, layout)
}

type expandRequest struct {
	Direction string `json:"direction" binding:"required"`
}

func (h *FarmHandler) ExpandLayout(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	layout, err := h.svc.ExpandLayout(c.Request.Context(), c.Param("id"), req.Direction)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, layout)
}

func (h *FarmHandler) ExportLayout(c *gin.Context) {
	id := c.Param("id")
	data, err := h.svc.ExportLayout(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "layout-"+id+".xlsx"))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *FarmHandler) BlockCells(c *gin.Context) {
	block, ok := intParam(c, "block")
	if !ok {
		return
	}
	cells, err := h.svc.BlockCells(c.Request.Context(), c.Param("id"), block)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, cells)
}

func (h *FarmHandler) ListPositions(c *gin.Context) {
	list, err := h.svc.ListPositions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.TreePosition{}
	}
	respond(c, http.StatusOK, list)
}

type placeTreeRequest struct {
	TreeID       string            `json:"tree_id"`
	BlockIndex   int               `json:"block_index"`
	GridX        int               `json:"grid_x"`
	GridY        int               `json:"grid_y"`
	Variety      string            `json:"variety"`
	Status       models.TreeStatus `json:"status"`
	PlantingDate *time.Time        `json:"planting_date"`
	Notes        string            `json:"notes"`
}

func (h *FarmHandler) PlaceTree(c *gin.Context) {
	var req placeTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	pos, err := h.svc.PlaceTree(c.Request.Context(), c.Param("id"), farm.PlaceTreeInput{
		TreeID:       req.TreeID,
		BlockIndex:   req.BlockIndex,
		GridX:        req.GridX,
		GridY:        req.GridY,
		Variety:      req.Variety,
		Status:       req.Status,
		PlantingDate: req.PlantingDate,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, pos)
}

// TreeAt looks up the tree on one cell.
func (h *FarmHandler) TreeAt(c *gin.Context) {
	key := models.CellKey{LayoutID: c.Param("id")}
	var ok bool
	if key.BlockIndex, ok = intQuery(c, "block_index"); !ok {
		return
	}
	if key.GridX, ok = intQuery(c, "grid_x"); !ok {
		return
	}
	if key.GridY, ok = intQuery(c, "grid_y"); !ok {
		return
	}
	pos, err := h.svc.TreeAt(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, pos)
}

func (h *FarmHandler) ListNodeTypes(c *gin.Context) {
	list, err := h.svc.ListNodeTypes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.CustomNodeType{}
	}
	respond(c, http.StatusOK, list)
}

type nodeTypeRequest struct {
	BlockIndex int    `json:"block_index"`
	GridX      int    `json:"grid_x"`
	GridY      int    `json:"grid_y"`
	NodeType   string `json:"node_type"`
}

// SetNodeType stores a tier override, or removes it for "auto".
func (h *FarmHandler) SetNodeType(c *gin.Context) {
	var req nodeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	key := models.CellKey{LayoutID: c.Param("id"), BlockIndex: req.BlockIndex, GridX: req.GridX, GridY: req.GridY}
	tier, err := h.svc.SetNodeType(c.Request.Context(), key, req.NodeType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	source := farm.TierSourceCustom
	if req.NodeType == "" || req.NodeType == string(grid.TierAuto) {
		source = farm.TierSourceAuto
	}
	respond(c, http.StatusOK, gin.H{"cell": key, "tier": tier, "tier_source": source})
}

func (h *FarmHandler) UpdatePosition(c *gin.Context) {
	var patch models.PositionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	pos, err := h.svc.UpdatePosition(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, pos)
}

func (h *FarmHandler) AttachGPS(c *gin.Context) {
	var fix models.GPSFix
	if err := c.ShouldBindJSON(&fix); err != nil {
		badRequest(c, err.Error())
		return
	}
	pos, err := h.svc.AttachGPS(c.Request.Context(), c.Param("id"), fix)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, pos)
}

func (h *FarmHandler) RemovePosition(c *gin.Context) {
	if err := h.svc.RemovePosition(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type careRequest struct {
	Action      models.CareAction `json:"action" binding:"required"`
	Notes       string            `json:"notes"`
	PerformedBy string            `json:"performed_by"`
	PerformedAt *time.Time        `json:"performed_at"`
}

func (h *FarmHandler) RecordCare(c *gin.Context) {
	var req careRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	entry, err := h.svc.RecordCare(c.Request.Context(), c.Param("id"), farm.CareEntry{
		Action:      req.Action,
		Notes:       req.Notes,
		PerformedBy: req.PerformedBy,
		PerformedAt: req.PerformedAt,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *FarmHandler) CareHistory(c *gin.Context) {
	list, err := h.svc.CareHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.CareLog{}
	}
	respond(c, http.StatusOK, list)
}
