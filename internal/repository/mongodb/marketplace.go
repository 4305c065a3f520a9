package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

// VegetableRepository persists produce listings.
type VegetableRepository struct {
	coll *mongo.Collection
}

// NewVegetableRepository binds the repository to db.
func NewVegetableRepository(db *mongo.Database) *VegetableRepository {
	return &VegetableRepository{coll: db.Collection(vegetablesCollection)}
}

func (r *VegetableRepository) List(ctx context.Context) ([]models.Vegetable, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	out, err := findAll[models.Vegetable](ctx, r.coll, bson.M{}, opts)
	return out, translate(err, "list vegetables")
}

func (r *VegetableRepository) Get(ctx context.Context, id string) (models.Vegetable, error) {
	var out models.Vegetable
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find vegetable")
}

func (r *VegetableRepository) Insert(ctx context.Context, v models.Vegetable) error {
	_, err := r.coll.InsertOne(ctx, v)
	return translate(err, "insert vegetable")
}

func (r *VegetableRepository) Replace(ctx context.Context, v models.Vegetable) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return translate(err, "replace vegetable")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace vegetable: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *VegetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete vegetable")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete vegetable: %w", repository.ErrNotFound)
	}
	return nil
}

// AdjustStock adds delta to the stock. A negative delta only applies when
// enough stock remains, otherwise repository.ErrConditionFailed is returned.
func (r *VegetableRepository) AdjustStock(ctx context.Context, id string, delta int, now time.Time) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	update := bson.M{"$inc": bson.M{"quantity": delta}, "$set": bson.M{"updated_at": now}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, "adjust stock")
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("adjust stock by %d: %w", delta, repository.ErrConditionFailed)
	}
	return nil
}

// OrderRepository persists orders with their items embedded.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository binds the repository to db.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Insert(ctx context.Context, o models.Order) error {
	_, err := r.coll.InsertOne(ctx, o)
	return translate(err, "insert order")
}

func (r *OrderRepository) Get(ctx context.Context, id string) (models.Order, error) {
	var out models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find order")
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return r.list(ctx, bson.M{"buyer_id": buyerID}, "list buyer orders")
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	return r.list(ctx, bson.M{"seller_id": sellerID}, "list seller orders")
}

// ListCreatedBetween returns orders created in [from, to).
func (r *OrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	return r.list(ctx, bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}, "list orders in range")
}

// UpdateStatus moves an order from one status to the next, failing with
// repository.ErrConditionFailed when the stored status is no longer from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}})
	if err != nil {
		return translate(err, "update order status")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update order status: %w", repository.ErrConditionFailed)
	}
	return nil
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M, op string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	out, err := findAll[models.Order](ctx, r.coll, filter, opts)
	return out, translate(err, op)
}

// PreBookingRepository persists prebookings.
type PreBookingRepository struct {
	coll *mongo.Collection
}

// NewPreBookingRepository binds the repository to db.
func NewPreBookingRepository(db *mongo.Database) *PreBookingRepository {
	return &PreBookingRepository{coll: db.Collection(prebookingsCollection)}
}

func (r *PreBookingRepository) Insert(ctx context.Context, p models.PreBooking) error {
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err, "insert prebooking")
}

func (r *PreBookingRepository) Get(ctx context.Context, id string) (models.PreBooking, error) {
	var out models.PreBooking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find prebooking")
}

// FindActive returns a non-terminal prebooking for the (user, seller, name) triple.
func (r *PreBookingRepository) FindActive(ctx context.Context, userID, sellerID, nameKey string) (models.PreBooking, error) {
	var out models.PreBooking
	filter := bson.M{
		"user_id":   userID,
		"seller_id": sellerID,
		"name_key":  nameKey,
		"status":    bson.M{"$in": models.ActivePreBookingStatuses},
	}
	err := r.coll.FindOne(ctx, filter).Decode(&out)
	return out, translate(err, "find active prebooking")
}

func (r *PreBookingRepository) ListByUser(ctx context.Context, userID string) ([]models.PreBooking, error) {
	return r.list(ctx, bson.M{"user_id": userID}, "list user prebookings")
}

func (r *PreBookingRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.PreBooking, error) {
	return r.list(ctx, bson.M{"seller_id": sellerID}, "list seller prebookings")
}

// UpdateStatus is a compare-and-set on the status field.
func (r *PreBookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.PreBookingStatus, now time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}})
	if err != nil {
		return translate(err, "update prebooking status")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update prebooking status: %w", repository.ErrConditionFailed)
	}
	return nil
}

// ExpirePendingBefore marks pending prebookings created before cutoff as expired.
func (r *PreBookingRepository) ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"status": models.PreBookingPending, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.PreBookingExpired, "updated_at": now}})
	if err != nil {
		return 0, translate(err, "expire prebookings")
	}
	return res.ModifiedCount, nil
}

// CountActive counts non-terminal prebookings.
func (r *PreBookingRepository) CountActive(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$in": models.ActivePreBookingStatuses}})
	return n, translate(err, "count active prebookings")
}

func (r *PreBookingRepository) list(ctx context.Context, filter bson.M, op string) ([]models.PreBooking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	out, err := findAll[models.PreBooking](ctx, r.coll, filter, opts)
	return out, translate(err, op)
}

// UserRepository persists marketplace users.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository binds the repository to db.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Insert(ctx context.Context, u models.User) error {
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err, "insert user")
}

func (r *UserRepository) Get(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, translate(err, "find user")
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	var out models.User
	err := r.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&out)
	return out, translate(err, "find user by phone")
}
