package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Product is the catalog document as stored by the product service. Orders
// only read it to snapshot price, name and image.
type Product struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"title" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Images   []string           `bson:"images" json:"images"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// PrimaryImage returns the first image, if any.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
