package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-service/models"
)

// ProductRepository reads the catalog collection owned by the product service.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

// FindByIDs returns the products found, keyed by hex id. Ids that are not
// valid ObjectIDs are simply absent from the result.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	out := make(map[string]models.Product, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, p := range products {
		out[p.ID.Hex()] = p
	}
	return out, nil
}
