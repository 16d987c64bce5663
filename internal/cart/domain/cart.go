package domain

import "time"

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// Cart is one per user. It is created lazily on the first add and only ever
// emptied, never deleted.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
