package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	orderapp "github.com/freshcart/backend/internal/order/app"
	orderdomain "github.com/freshcart/backend/internal/order/domain"
	"github.com/freshcart/backend/internal/payment/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

// Outcome classifies a webhook delivery for logging and metrics. Only a
// signature failure is ever surfaced to the gateway.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

type Service struct {
	gateway CheckoutGateway
	ledger  orderapp.Ledger
	rules   pricing.Rules

	clearCartOnWebhook bool
	log                *slog.Logger
}

func NewService(gateway CheckoutGateway, ledger orderapp.Ledger, rules pricing.Rules, clearCartOnWebhook bool, log *slog.Logger) *Service {
	return &Service{
		gateway:            gateway,
		ledger:             ledger,
		rules:              rules,
		clearCartOnWebhook: clearCartOnWebhook,
		log:                log,
	}
}

// CheckoutItem is one cart line as the storefront sees it. The unit price is
// the product's first listed weight tier.
type CheckoutItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int32
}

type CheckoutRequest struct {
	Items      []CheckoutItem
	UserEmail  string
	SuccessURL string
	CancelURL  string
	Address    orderdomain.Address
	Discount   int64
	CouponCode string
}

// metaItem is the line-item snapshot carried on session metadata so the
// webhook can rebuild the order without a second round-trip.
type metaItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int32  `json:"qty"`
}

// CreateCheckoutSession computes the charge server-side and opens a hosted
// checkout session. The client-declared total is never consulted.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID string, req CheckoutRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", ErrEmptyCart
	}

	var subtotal int64
	items := make([]metaItem, 0, len(req.Items))
	for _, it := range req.Items {
		subtotal += it.UnitPrice * int64(it.Quantity)
		items = append(items, metaItem{ID: it.ProductID, Name: it.Name, Price: it.UnitPrice, Qty: it.Quantity})
	}
	total := s.rules.Total(subtotal, req.Discount)

	addressJSON, err := json.Marshal(req.Address)
	if err != nil {
		return "", fmt.Errorf("marshal address: %w", err)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}

	description := "Order total"
	if req.Discount > 0 {
		description = fmt.Sprintf("Includes discount of %d paise", req.Discount)
	}

	url, err := s.gateway.CreateSession(ctx, SessionRequest{
		AmountTotal:   total,
		Currency:      "inr",
		Description:   description,
		CustomerEmail: req.UserEmail,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata: map[string]string{
			"userId":     userID,
			"email":      req.UserEmail,
			"discount":   strconv.FormatInt(req.Discount, 10),
			"couponCode": req.CouponCode,
			"address":    string(addressJSON),
			"items":      string(itemsJSON),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	s.log.Info("checkout session created",
		slog.String("user_id", userID),
		slog.Int64("amount_total", total),
	)
	return url, nil
}

// HandleWebhook runs the asynchronous settlement path. A signature failure
// returns ErrSignature and nothing is written. Everything after a verified,
// parseable event is acknowledged to the gateway: business failures are
// logged here, never retried by the provider.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	event, err := s.gateway.VerifyEvent(payload, sigHeader)
	if err != nil {
		return OutcomeFailed, err
	}

	if event.Type != EventCheckoutCompleted {
		s.log.Info("ignoring webhook event", slog.String("type", event.Type))
		return OutcomeIgnored, nil
	}

	order, txn := s.buildDrafts(event)

	opts := orderapp.CommitOpts{}
	if s.clearCartOnWebhook && order.UserID != "" {
		opts.ClearCartUserID = order.UserID
	}

	if _, err := s.ledger.Commit(ctx, order, txn, opts); err != nil {
		if errors.Is(err, orderdomain.ErrDuplicatePaymentRef) {
			s.log.Info("duplicate webhook delivery",
				slog.String("payment_intent", order.PaymentIntent))
			return OutcomeDuplicate, nil
		}
		s.log.Error("webhook settlement failed",
			slog.String("payment_intent", order.PaymentIntent),
			slog.Any("err", err))
		return OutcomeFailed, nil
	}

	s.log.Info("order settled via webhook",
		slog.String("order_id", order.ID),
		slog.String("payment_intent", order.PaymentIntent),
		slog.Int64("total_amount", order.TotalAmount))
	return OutcomeCreated, nil
}

func (s *Service) buildDrafts(event Event) (orderdomain.Order, orderdomain.Transaction) {
	meta := event.Metadata

	var address orderdomain.Address
	if raw := meta["address"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &address); err != nil {
			s.log.Warn("unparseable address metadata", slog.Any("err", err))
		}
	}

	var items []metaItem
	if raw := meta["items"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.log.Warn("unparseable items metadata", slog.Any("err", err))
		}
	}

	discount, _ := strconv.ParseInt(meta["discount"], 10, 64)

	orderItems := make([]orderdomain.OrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, orderdomain.OrderItem{
			ProductID:   it.ID,
			ProductName: it.Name,
			Quantity:    it.Qty,
			UnitPrice:   it.Price,
		})
	}

	orderID := uuid.NewString()
	order := orderdomain.Order{
		ID:              orderID,
		UserID:          meta["userId"],
		Items:           orderItems,
		TotalAmount:     event.AmountTotal,
		PaymentMethod:   orderdomain.PaymentOnline,
		PaymentStatus:   orderdomain.PaymentPaid,
		OrderStatus:     orderdomain.OrderProcessing,
		PaymentIntent:   event.PaymentIntent,
		Address:         address,
		DiscountApplied: discount,
		CouponCode:      meta["couponCode"],
	}

	ref := event.PaymentIntent
	if ref == "" {
		ref = event.SessionID
	}
	txn := orderdomain.Transaction{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		UserID:        order.UserID,
		TransactionID: ref,
		Amount:        event.AmountTotal,
		PaymentMethod: orderdomain.PaymentOnline,
		Status:        orderdomain.TxnSuccess,
	}
	return order, txn
}
