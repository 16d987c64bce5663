package domain

import "time"

// Weight is one price variant of a product (e.g. "500g").
type Weight struct {
	Label string `json:"label"`
	Price int64  `json:"price"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Weights     []Weight  `json:"weights"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnapshotPrice is the unit price frozen into order items: the first listed
// weight variant, or zero when the product has none.
func (p Product) SnapshotPrice() int64 {
	if len(p.Weights) == 0 {
		return 0
	}
	return p.Weights[0].Price
}
