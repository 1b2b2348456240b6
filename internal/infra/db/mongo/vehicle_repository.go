package mongo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfleet "carbooking/internal/domain/fleet"
)

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	col := db.Collection("agg_vehicle")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "type", Value: 1}, {Key: "location", Value: 1}}})
	return &VehicleRepository{col: col}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainfleet.VehicleID) (*domainfleet.Vehicle, error) {
	var doc vehicleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domainfleet.ErrVehicleNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *domainfleet.Vehicle) error {
	doc := newVehicleDocument(v)
	doc.BookingVersion = 0
	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"booking_version": v.BookingVersion},
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, update, options.Update().SetUpsert(true))
	if isWriteConflict(err) {
		return fmt.Errorf("%w: %s", domainfleet.ErrConcurrentUpdate, v.ID)
	}
	return err
}

func (r *VehicleRepository) Search(ctx context.Context, params domainfleet.SearchParams) ([]*domainfleet.Vehicle, error) {
	filter := bson.M{}
	if t := strings.TrimSpace(params.Type); t != "" {
		filter["type"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(t) + "$", Options: "i"}
	}
	if loc := strings.TrimSpace(params.Location); loc != "" {
		filter["location"] = primitive.Regex{Pattern: regexp.QuoteMeta(loc), Options: "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []vehicleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainfleet.Vehicle, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *VehicleRepository) BumpBookingVersion(ctx context.Context, id domainfleet.VehicleID, expected int64) (int64, error) {
	filter := bson.M{"_id": string(id), "booking_version": expected}
	if expected == 0 {
		filter["booking_version"] = bson.M{"$in": bson.A{0, nil}}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booking_version": 1}})
	if err != nil {
		if isWriteConflict(err) {
			return 0, fmt.Errorf("%w: %s", domainfleet.ErrConcurrentUpdate, id)
		}
		return 0, err
	}
	if res.MatchedCount == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s", domainfleet.ErrConcurrentUpdate, id)
	}
	return expected + 1, nil
}
