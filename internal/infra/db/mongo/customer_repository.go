package mongo

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincustomer "carbooking/internal/domain/customer"
)

type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	col := db.Collection("agg_customer")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)})
	return &CustomerRepository{col: col}
}

func (r *CustomerRepository) ByID(ctx context.Context, id domaincustomer.ID) (*domaincustomer.Customer, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *CustomerRepository) ByEmail(ctx context.Context, email string) (*domaincustomer.Customer, error) {
	return r.findOne(ctx, bson.M{"email": domaincustomer.NormalizeEmail(email)})
}

func (r *CustomerRepository) Save(ctx context.Context, c *domaincustomer.Customer) error {
	doc := newCustomerDocument(c)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil && (mongo.IsDuplicateKeyError(err) || isWriteConflict(err)) {
		return ErrConcurrentUpdate
	}
	return err
}

func (r *CustomerRepository) Search(ctx context.Context, params domaincustomer.SearchParams) ([]*domaincustomer.Customer, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(params.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"full_name": re}, bson.M{"email": re}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []customerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domaincustomer.Customer, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M) (*domaincustomer.Customer, error) {
	var doc customerDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domaincustomer.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}
