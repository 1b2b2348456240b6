package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/apperr"
)

var ErrConcurrentUpdate = apperr.New(apperr.CodePersistenceConflict, "mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "pickup_date", Value: 1}}},
		{Keys: bson.D{{Key: "pickup_date", Value: 1}, {Key: "status", Value: 1}}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *BookingRepository) ByNumber(ctx context.Context, number string) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"number": number})
}

func (r *BookingRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"number": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *BookingRepository) ListByVehicle(ctx context.Context, vehicleID domainfleet.VehicleID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"vehicle_id": string(vehicleID)})
}

func (r *BookingRepository) ListByPickupDate(ctx context.Context, date time.Time) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"pickup_date": calendar.DateOf(date)})
}

// Save upserts b guarded by its version. A stale version or a duplicate
// booking number surfaces as ErrConcurrentUpdate.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return fmt.Errorf("%w: booking %s", ErrConcurrentUpdate, b.ID)
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("%w: booking %s", ErrConcurrentUpdate, b.ID)
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "pickup_date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}
