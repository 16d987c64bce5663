package domain

import (
	"errors"
	"time"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "Online"
	PaymentCOD    PaymentMethod = "COD"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxnPending TransactionStatus = "Pending"
	TxnSuccess TransactionStatus = "Success"
	TxnFailed  TransactionStatus = "Failed"
)

// Address is the shipping snapshot embedded in the order. It passes through
// from the storefront untouched.
type Address map[string]any

// OrderItem freezes the product name and unit price at creation time.
// Historical orders never re-join against the live catalog.
type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Items           []OrderItem   `json:"items"`
	TotalAmount     int64         `json:"total_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	OrderStatus     OrderStatus   `json:"order_status"`
	PaymentIntent   string        `json:"payment_intent,omitempty"`
	Address         Address       `json:"address"`
	DiscountApplied int64         `json:"discount_applied"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Transaction is the 1:1 ledger record of an order. It is written in the same
// atomic unit as its order and never mutated afterwards.
type Transaction struct {
	ID            string            `json:"id"`
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	TransactionID string            `json:"transaction_id"`
	Amount        int64             `json:"amount"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ErrDuplicatePaymentRef means an order already exists for the payment
// intent. The ledger's check-and-write is the only serialization point
// between the two settlement paths, so both map this to a no-op.
var ErrDuplicatePaymentRef = errors.New("order already exists for payment reference")
