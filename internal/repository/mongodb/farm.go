package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

// LayoutRepository persists farm layouts.
type LayoutRepository struct {
	coll *mongo.Collection
}

// NewLayoutRepository binds the repository to db.
func NewLayoutRepository(db *mongo.Database) *LayoutRepository {
	return &LayoutRepository{coll: db.Collection(layoutsCollection)}
}

func (r *LayoutRepository) Create(ctx context.Context, layout models.FarmLayout) error {
	_, err := r.coll.InsertOne(ctx, layout)
	return translate(err, "insert layout")
}

func (r *LayoutRepository) Get(ctx context.Context, id string) (models.FarmLayout, error) {
	var out models.FarmLayout
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find layout")
}

// FindActive returns the most recently created active layout of a farm.
func (r *LayoutRepository) FindActive(ctx context.Context, farmID string) (models.FarmLayout, error) {
	var out models.FarmLayout
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.coll.FindOne(ctx, bson.M{"farm_id": farmID, "is_active": true}, opts).Decode(&out)
	return out, translate(err, "find active layout")
}

func (r *LayoutRepository) UpdateMeta(ctx context.Context, id, name, description string, now time.Time) error {
	update := bson.M{"$set": bson.M{"name": name, "description": description, "updated_at": now}}
	return r.updateOne(ctx, id, update, "update layout")
}

// ReplaceBlocks overwrites the whole block array.
func (r *LayoutRepository) ReplaceBlocks(ctx context.Context, id string, blocks []grid.Block, now time.Time) error {
	update := bson.M{"$set": bson.M{"grid_config.blocks": blocks, "updated_at": now}}
	return r.updateOne(ctx, id, update, "replace layout blocks")
}

func (r *LayoutRepository) updateOne(ctx context.Context, id string, update bson.M, op string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, op)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

// PositionRepository persists tree positions. The unique cell index turns a
// concurrent double plant into repository.ErrDuplicate.
type PositionRepository struct {
	coll *mongo.Collection
}

// NewPositionRepository binds the repository to db.
func NewPositionRepository(db *mongo.Database) *PositionRepository {
	return &PositionRepository{coll: db.Collection(positionsCollection)}
}

func (r *PositionRepository) Insert(ctx context.Context, pos models.TreePosition) error {
	_, err := r.coll.InsertOne(ctx, pos)
	return translate(err, "insert tree position")
}

func (r *PositionRepository) Get(ctx context.Context, id string) (models.TreePosition, error) {
	var out models.TreePosition
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find tree position")
}

func (r *PositionRepository) FindAt(ctx context.Context, key models.CellKey) (models.TreePosition, error) {
	var out models.TreePosition
	err := r.coll.FindOne(ctx, cellFilter(key)).Decode(&out)
	return out, translate(err, "find tree at cell")
}

func (r *PositionRepository) ListByLayout(ctx context.Context, layoutID string) ([]models.TreePosition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "block_index", Value: 1}, {Key: "grid_y", Value: 1}, {Key: "grid_x", Value: 1}})
	out, err := findAll[models.TreePosition](ctx, r.coll, bson.M{"layout_id": layoutID}, opts)
	return out, translate(err, "list tree positions")
}

// Update replaces the mutable attributes of a position. Cell keys are never written.
func (r *PositionRepository) Update(ctx context.Context, pos models.TreePosition) error {
	set := bson.M{
		"variety":       pos.Variety,
		"status":        pos.Status,
		"planting_date": pos.PlantingDate,
		"notes":         pos.Notes,
		"updated_at":    pos.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]any{
		"latitude":          pos.Latitude,
		"longitude":         pos.Longitude,
		"altitude":          pos.Altitude,
		"gps_accuracy":      pos.GPSAccuracy,
		"gps_updated_at":    pos.GPSUpdatedAt,
		"coordinate_source": pos.CoordinateSource,
	}
	for field, v := range optional {
		if isNil(v) {
			unset[field] = ""
			continue
		}
		set[field] = v
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": pos.ID}, update)
	if err != nil {
		return translate(err, "update tree position")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update tree position: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete tree position")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete tree position: %w", repository.ErrNotFound)
	}
	return nil
}

// TreeTypeRepository persists species templates.
type TreeTypeRepository struct {
	coll *mongo.Collection
}

// NewTreeTypeRepository binds the repository to db.
func NewTreeTypeRepository(db *mongo.Database) *TreeTypeRepository {
	return &TreeTypeRepository{coll: db.Collection(treeTypesCollection)}
}

func (r *TreeTypeRepository) List(ctx context.Context) ([]models.TreeType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	out, err := findAll[models.TreeType](ctx, r.coll, bson.M{}, opts)
	return out, translate(err, "list tree types")
}

func (r *TreeTypeRepository) Get(ctx context.Context, id string) (models.TreeType, error) {
	var out models.TreeType
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find tree type")
}

func (r *TreeTypeRepository) Insert(ctx context.Context, tt models.TreeType) error {
	_, err := r.coll.InsertOne(ctx, tt)
	return translate(err, "insert tree type")
}

// UpsertByCode inserts tt or refreshes the descriptive fields of the type with
// the same code, keeping the stored id.
func (r *TreeTypeRepository) UpsertByCode(ctx context.Context, tt models.TreeType) error {
	update := bson.M{
		"$set": bson.M{
			"name":           tt.Name,
			"category":       tt.Category,
			"season":         tt.Season,
			"years_to_fruit": tt.YearsToFruit,
			"mature_height":  tt.MatureHeight,
			"description":    tt.Description,
		},
		"$setOnInsert": bson.M{"_id": tt.ID, "created_at": tt.CreatedAt},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"code": tt.Code}, update, options.Update().SetUpsert(true))
	return translate(err, "upsert tree type")
}

// NodeTypeRepository persists per-cell tier overrides.
type NodeTypeRepository struct {
	coll *mongo.Collection
}

// NewNodeTypeRepository binds the repository to db.
func NewNodeTypeRepository(db *mongo.Database) *NodeTypeRepository {
	return &NodeTypeRepository{coll: db.Collection(nodeTypesCollection)}
}

func (r *NodeTypeRepository) Upsert(ctx context.Context, nt models.CustomNodeType) error {
	update := bson.M{"$set": bson.M{"node_type": nt.NodeType, "updated_at": nt.UpdatedAt}}
	_, err := r.coll.UpdateOne(ctx, cellFilter(nt.CellKey), update, options.Update().SetUpsert(true))
	return translate(err, "upsert node type")
}

// Delete removes the override of a cell. Deleting a missing override is not an error.
func (r *NodeTypeRepository) Delete(ctx context.Context, key models.CellKey) error {
	_, err := r.coll.DeleteOne(ctx, cellFilter(key))
	return translate(err, "delete node type")
}

func (r *NodeTypeRepository) Get(ctx context.Context, key models.CellKey) (models.CustomNodeType, error) {
	var out models.CustomNodeType
	err := r.coll.FindOne(ctx, cellFilter(key)).Decode(&out)
	return out, translate(err, "find node type")
}

func (r *NodeTypeRepository) ListByLayout(ctx context.Context, layoutID string) ([]models.CustomNodeType, error) {
	out, err := findAll[models.CustomNodeType](ctx, r.coll, bson.M{"layout_id": layoutID})
	return out, translate(err, "list node types")
}

// CareLogRepository persists tree care history.
type CareLogRepository struct {
	coll *mongo.Collection
}

// NewCareLogRepository binds the repository to db.
func NewCareLogRepository(db *mongo.Database) *CareLogRepository {
	return &CareLogRepository{coll: db.Collection(careLogsCollection)}
}

func (r *CareLogRepository) Insert(ctx context.Context, entry models.CareLog) error {
	_, err := r.coll.InsertOne(ctx, entry)
	return translate(err, "insert care log")
}

func (r *CareLogRepository) ListByPosition(ctx context.Context, positionID string) ([]models.CareLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "performed_at", Value: -1}})
	out, err := findAll[models.CareLog](ctx, r.coll, bson.M{"position_id": positionID}, opts)
	return out, translate(err, "list care logs")
}

func (r *CareLogRepository) DeleteByPosition(ctx context.Context, positionID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"position_id": positionID})
	return translate(err, "delete care logs")
}

func cellFilter(key models.CellKey) bson.M {
	return bson.M{
		"layout_id":   key.LayoutID,
		"block_index": key.BlockIndex,
		"grid_x":      key.GridX,
		"grid_y":      key.GridY,
	}
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *float64:
		return t == nil
	case *time.Time:
		return t == nil
	case models.CoordinateSource:
		return t == ""
	default:
		return false
	}
}
