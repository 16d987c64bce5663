package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	orderapp "github.com/freshcart/backend/internal/order/app"
	orderdomain "github.com/freshcart/backend/internal/order/domain"
	"github.com/freshcart/backend/internal/payment/pricing"
)

type fakeGateway struct {
	lastSession SessionRequest
	sessionURL  string
	sessionErr  error

	event     Event
	verifyErr error
}

func (g *fakeGateway) CreateSession(_ context.Context, req SessionRequest) (string, error) {
	g.lastSession = req
	if g.sessionErr != nil {
		return "", g.sessionErr
	}
	return g.sessionURL, nil
}

func (g *fakeGateway) VerifyEvent([]byte, string) (Event, error) {
	if g.verifyErr != nil {
		return Event{}, g.verifyErr
	}
	return g.event, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	failWith error

	commits  []orderdomain.Order
	byIntent map[string]struct{}
	lastOpts orderapp.CommitOpts
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byIntent: make(map[string]struct{})}
}

func (l *fakeLedger) Commit(_ context.Context, order orderdomain.Order, _ orderdomain.Transaction, opts orderapp.CommitOpts) (orderdomain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failWith != nil {
		return orderdomain.Order{}, l.failWith
	}
	if order.PaymentIntent != "" {
		if _, ok := l.byIntent[order.PaymentIntent]; ok {
			return orderdomain.Order{}, orderdomain.ErrDuplicatePaymentRef
		}
		l.byIntent[order.PaymentIntent] = struct{}{}
	}
	l.commits = append(l.commits, order)
	l.lastOpts = opts
	return order, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(gateway *fakeGateway, ledger *fakeLedger, clearCartOnWebhook bool) *Service {
	return NewService(gateway, ledger, pricing.Default(), clearCartOnWebhook, discardLogger())
}

func TestCreateCheckoutSession_ServerSideTotal(t *testing.T) {
	gateway := &fakeGateway{sessionURL: "https://checkout.test/cs_1"}
	svc := newTestService(gateway, newFakeLedger(), false)

	// subtotal 25000 + shipping 2000 + small-order fee 5000 = 32000
	url, err := svc.CreateCheckoutSession(context.Background(), "user-1", CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: "p1", Name: "Honey", UnitPrice: 12500, Quantity: 2},
		},
		UserEmail:  "a@b.test",
		SuccessURL: "https://shop.test/ok",
		CancelURL:  "https://shop.test/cancel",
		Address:    orderdomain.Address{"city": "Pune"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_1", url)

	sess := gateway.lastSession
	assert.Equal(t, int64(32000), sess.AmountTotal, "charge is computed from line items, not the client")
	assert.Equal(t, "inr", sess.Currency)
	assert.Equal(t, "a@b.test", sess.CustomerEmail)
	assert.Equal(t, "user-1", sess.Metadata["userId"])

	var items []metaItem
	require.NoError(t, json.Unmarshal([]byte(sess.Metadata["items"]), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, int64(12500), items[0].Price)
	assert.Equal(t, int32(2), items[0].Qty)

	var address orderdomain.Address
	require.NoError(t, json.Unmarshal([]byte(sess.Metadata["address"]), &address))
	assert.Equal(t, "Pune", address["city"])
}

func TestCreateCheckoutSession_DiscountAndFloor(t *testing.T) {
	gateway := &fakeGateway{sessionURL: "https://checkout.test/cs_2"}
	svc := newTestService(gateway, newFakeLedger(), false)

	_, err := svc.CreateCheckoutSession(context.Background(), "user-1", CheckoutRequest{
		Items:      []CheckoutItem{{ProductID: "p1", Name: "Honey", UnitPrice: 10000, Quantity: 1}},
		Discount:   100000,
		CouponCode: "BIGONE",
		Address:    orderdomain.Address{"city": "Pune"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), gateway.lastSession.AmountTotal, "discount never drives the total negative")
	assert.Equal(t, "100000", gateway.lastSession.Metadata["discount"])
	assert.Equal(t, "BIGONE", gateway.lastSession.Metadata["couponCode"])
}

func TestCreateCheckoutSession_EmptyCart(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(gateway, newFakeLedger(), false)

	_, err := svc.CreateCheckoutSession(context.Background(), "user-1", CheckoutRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, gateway.lastSession.Metadata, "no session opened for an empty cart")
}

func completedEvent(intent string) Event {
	items, _ := json.Marshal([]metaItem{{ID: "p1", Name: "Honey", Price: 25000, Qty: 1}})
	address, _ := json.Marshal(orderdomain.Address{"city": "Pune"})
	return Event{
		Type:          EventCheckoutCompleted,
		SessionID:     "cs_1",
		PaymentIntent: intent,
		AmountTotal:   32000,
		Metadata: map[string]string{
			"userId":     "user-1",
			"email":      "a@b.test",
			"discount":   strconv.Itoa(0),
			"couponCode": "",
			"address":    string(address),
			"items":      string(items),
		},
	}
}

func TestHandleWebhook_CreatesOrder(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{event: completedEvent("pi_1")}, ledger, false)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	require.Len(t, ledger.commits, 1)
	order := ledger.commits[0]
	assert.Equal(t, "pi_1", order.PaymentIntent)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, int64(32000), order.TotalAmount)
	assert.Equal(t, orderdomain.PaymentOnline, order.PaymentMethod)
	assert.Equal(t, orderdomain.PaymentPaid, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Honey", order.Items[0].ProductName)
	assert.Empty(t, ledger.lastOpts.ClearCartUserID, "cart untouched by default")
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{verifyErr: ErrSignature}, ledger, false)

	_, err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	require.ErrorIs(t, err, ErrSignature)
	assert.Empty(t, ledger.commits, "no writes behind a failed signature")
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{event: Event{Type: "payment_intent.created"}}, ledger, false)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, ledger.commits)
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{event: completedEvent("pi_dup")}, ledger, false)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	outcome, err = svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err, "redelivery is acked, not errored")
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, ledger.commits, 1, "one delivery, one order")
}

func TestHandleWebhook_ConcurrentDeliveries(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{event: completedEvent("pi_race")}, ledger, false)

	var g errgroup.Group
	for range 25 {
		g.Go(func() error {
			outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
			if err != nil {
				return err
			}
			if outcome != OutcomeCreated && outcome != OutcomeDuplicate {
				return errors.New("unexpected outcome " + string(outcome))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, ledger.commits, 1, "concurrent redeliveries settle exactly one order")
}

func TestHandleWebhook_LedgerFailureStillAcked(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failWith = errors.New("storage down")
	svc := newTestService(&fakeGateway{event: completedEvent("pi_2")}, ledger, false)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err, "business failures never bounce back to the provider")
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestHandleWebhook_ClearCartPolicy(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(&fakeGateway{event: completedEvent("pi_3")}, ledger, true)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, "user-1", ledger.lastOpts.ClearCartUserID)
}

func TestHandleWebhook_UnparseableMetadata(t *testing.T) {
	ledger := newFakeLedger()
	event := completedEvent("pi_4")
	event.Metadata["items"] = "not-json"
	event.Metadata["address"] = "{broken"
	svc := newTestService(&fakeGateway{event: event}, ledger, false)

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome, "garbled metadata still settles the payment")

	require.Len(t, ledger.commits, 1)
	assert.Empty(t, ledger.commits[0].Items)
}

func TestHandleWebhook_FallsBackToSessionRef(t *testing.T) {
	ledger := newFakeLedger()
	var gotTxn orderdomain.Transaction
	svc := NewService(&fakeGateway{event: completedEvent("")}, commitSpy{ledger, &gotTxn}, pricing.Default(), false, discardLogger())

	outcome, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, "cs_1", gotTxn.TransactionID, "session id stands in when the intent is missing")
}

type commitSpy struct {
	inner *fakeLedger
	txn   *orderdomain.Transaction
}

func (s commitSpy) Commit(ctx context.Context, order orderdomain.Order, txn orderdomain.Transaction, opts orderapp.CommitOpts) (orderdomain.Order, error) {
	*s.txn = txn
	return s.inner.Commit(ctx, order, txn, opts)
}
