package service

import (
	"context"
	"errors"
	"testing"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/models"
)

type fakePaymentGateway struct {
	enabled       bool
	orderID       string
	validSig      string
	webhookSig    string
	webhookEvent  GatewayWebhookEvent
	refunded      []string
	refundErr     error
	onRefund      func()
	createdAmount models.Money
}

func (g *fakePaymentGateway) Enabled() bool { return g.enabled }

func (g *fakePaymentGateway) Name() string { return constants.PaymentMethodRazorpay }

func (g *fakePaymentGateway) CreateIntent(_ context.Context, amount models.Money, currency, receipt string, _ map[string]string) (GatewayIntent, error) {
	g.createdAmount = amount
	return GatewayIntent{GatewayOrderID: g.orderID, Amount: amount, Currency: currency, KeyID: "rzp_test"}, nil
}

func (g *fakePaymentGateway) VerifyPayment(gatewayOrderID, paymentID, signature string) error {
	if signature != g.validSig {
		return ErrPaymentSignatureInvalid
	}
	return nil
}

func (g *fakePaymentGateway) VerifyWebhook(_ []byte, signature string) error {
	if signature != g.webhookSig {
		return ErrPaymentSignatureInvalid
	}
	return nil
}

func (g *fakePaymentGateway) ParseWebhook(_ []byte) (GatewayWebhookEvent, error) {
	return g.webhookEvent, nil
}

func (g *fakePaymentGateway) Refund(_ context.Context, paymentID string, _ models.Money) error {
	g.refunded = append(g.refunded, paymentID)
	if g.onRefund != nil {
		g.onRefund()
	}
	return g.refundErr
}

func newPaymentFixture(t *testing.T) (*serviceFixture, *PaymentService, *fakePaymentGateway) {
	t.Helper()
	f := newServiceFixture(t)
	gateway := &fakePaymentGateway{enabled: true, orderID: "order_test_1", validSig: "good", webhookSig: "hook"}
	payments := NewPaymentService(PaymentServiceOptions{
		IntentRepo:   f.intentRepo,
		OrderRepo:    f.orderRepo,
		CartService:  f.carts,
		OrderService: f.orders,
		Gateway:      gateway,
	})
	return f, payments, gateway
}

func (f *serviceFixture) intentStatus(t *testing.T, gatewayOrderID string) string {
	t.Helper()
	intent, err := f.intentRepo.GetByGatewayOrderID(gatewayOrderID)
	if err != nil || intent == nil {
		t.Fatalf("load intent failed: %v", err)
	}
	return intent.Status
}

func TestCheckoutFlowCreatesConfirmedOrder(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "pay@example.com")
	cuff := f.createProduct(t, "BP Cuff", "450.00", 5)
	f.addToCart(t, user.ID, cuff.ID, 2)

	intent, err := payments.CreateCheckoutIntent(ctx, user.ID)
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if intent.Amount.String() != "900.00" || gateway.createdAmount.String() != "900.00" {
		t.Fatalf("unexpected intent amount: %s", intent.Amount.String())
	}
	if intent.Currency != constants.CurrencyINR || intent.KeyID != "rzp_test" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	order, err := payments.ConfirmCheckout(ctx, user.ID, ConfirmPaymentInput{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      "good",
		Order:          validShippingInput(),
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if order.Status != constants.OrderStatusConfirmed || order.PaymentID != "pay_1" {
		t.Fatalf("unexpected order: %+v", order)
	}
	stored, _ := f.intentRepo.GetByGatewayOrderID(intent.GatewayOrderID)
	if stored.Status != constants.PaymentIntentStatusConsumed || stored.OrderID == nil || *stored.OrderID != order.ID {
		t.Fatalf("intent should be consumed and linked: %+v", stored)
	}

	_, err = payments.ConfirmCheckout(ctx, user.ID, ConfirmPaymentInput{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      "good",
		Order:          validShippingInput(),
	})
	if !errors.Is(err, ErrPaymentAlreadyUsed) {
		t.Fatalf("replay should be rejected, got %v", err)
	}
}

func TestConfirmCheckoutInvalidSignature(t *testing.T) {
	f, payments, _ := newPaymentFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "badsig@example.com")
	mask := f.createProduct(t, "Nebulizer Mask", "120.00", 5)
	f.addToCart(t, user.ID, mask.ID, 1)
	intent, err := payments.CreateCheckoutIntent(ctx, user.ID)
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	_, err = payments.ConfirmCheckout(ctx, user.ID, ConfirmPaymentInput{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_forged",
		Signature:      "forged",
		Order:          validShippingInput(),
	})
	if !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if status := f.intentStatus(t, intent.GatewayOrderID); status != constants.PaymentIntentStatusFailed {
		t.Fatalf("intent should be failed, got %s", status)
	}
	if got := f.countRows(t, &models.Order{}); got != 0 {
		t.Fatalf("no order expected, got %d", got)
	}
}

func TestConfirmCheckoutCartChangedAfterIntent(t *testing.T) {
	f, payments, _ := newPaymentFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "changed@example.com")
	cuff := f.createProduct(t, "BP Cuff", "450.00", 5)
	f.addToCart(t, user.ID, cuff.ID, 1)
	intent, err := payments.CreateCheckoutIntent(ctx, user.ID)
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	f.addToCart(t, user.ID, cuff.ID, 1)

	_, err = payments.ConfirmCheckout(ctx, user.ID, ConfirmPaymentInput{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_2",
		Signature:      "good",
		Order:          validShippingInput(),
	})
	if !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if status := f.intentStatus(t, intent.GatewayOrderID); status != constants.PaymentIntentStatusPaid {
		t.Fatalf("intent should be released back to paid, got %s", status)
	}
}

func TestConfirmCheckoutRequiresOwnIntent(t *testing.T) {
	f, payments, _ := newPaymentFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "owner-pay@example.com")
	other := f.createUser(t, "other-pay@example.com")
	cuff := f.createProduct(t, "BP Cuff", "450.00", 5)
	f.addToCart(t, owner.ID, cuff.ID, 1)
	intent, err := payments.CreateCheckoutIntent(ctx, owner.ID)
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	_, err = payments.ConfirmCheckout(ctx, other.ID, ConfirmPaymentInput{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_3",
		Signature:      "good",
		Order:          validShippingInput(),
	})
	if !errors.Is(err, ErrPaymentIntentNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestCreateCheckoutIntentGuards(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	user := f.createUser(t, "guard@example.com")

	if _, err := payments.CreateCheckoutIntent(context.Background(), user.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	gateway.enabled = false
	if _, err := payments.CreateCheckoutIntent(context.Background(), user.ID); !errors.Is(err, ErrPaymentGatewayDisabled) {
		t.Fatalf("expected gateway disabled, got %v", err)
	}
}

func TestHandleWebhookMarksIntent(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "hook@example.com")
	cuff := f.createProduct(t, "BP Cuff", "450.00", 5)
	f.addToCart(t, user.ID, cuff.ID, 1)
	intent, err := payments.CreateCheckoutIntent(ctx, user.ID)
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	if err := payments.HandleWebhook(ctx, []byte(`{}`), "wrong"); !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}

	gateway.webhookEvent = GatewayWebhookEvent{Event: "refund.created", GatewayOrderID: intent.GatewayOrderID}
	if err := payments.HandleWebhook(ctx, []byte(`{}`), "hook"); err != nil {
		t.Fatalf("unknown event should be ignored: %v", err)
	}
	if status := f.intentStatus(t, intent.GatewayOrderID); status != constants.PaymentIntentStatusCreated {
		t.Fatalf("unknown event must not change intent, got %s", status)
	}

	gateway.webhookEvent = GatewayWebhookEvent{
		Event:          constants.RazorpayEventPaymentCaptured,
		PaymentID:      "pay_hook",
		GatewayOrderID: intent.GatewayOrderID,
		Raw:            map[string]interface{}{"event": "payment.captured"},
	}
	if err := payments.HandleWebhook(ctx, []byte(`{}`), "hook"); err != nil {
		t.Fatalf("captured webhook failed: %v", err)
	}
	if status := f.intentStatus(t, intent.GatewayOrderID); status != constants.PaymentIntentStatusPaid {
		t.Fatalf("intent should be paid, got %s", status)
	}
}

func TestRefundOrderRequiresCancelledPaidOrder(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	user := f.createUser(t, "refund@example.com")
	cuff := f.createProduct(t, "BP Cuff", "450.00", 5)
	f.addToCart(t, user.ID, cuff.ID, 1)
	order, err := f.orders.ConfirmPaidOrder(user.ID, validShippingInput(), PaidOrderInput{PaymentID: "pay_r", PaymentMethod: "razorpay"})
	if err != nil {
		t.Fatalf("confirm paid order failed: %v", err)
	}

	if _, err := payments.RefundOrder(context.Background(), order.ID); !errors.Is(err, ErrOrderNotRefundable) {
		t.Fatalf("active order must not be refundable, got %v", err)
	}
	statuses := newStatusService(f, false, nil)
	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	refunded, err := payments.RefundOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.PaymentStatus != constants.PaymentStatusRefunded || len(gateway.refunded) != 1 {
		t.Fatalf("unexpected refund result: %+v", refunded)
	}
	if _, err := payments.RefundOrder(context.Background(), order.ID); !errors.Is(err, ErrOrderNotRefundable) {
		t.Fatalf("second refund must be rejected, got %v", err)
	}
}

func cancelledPaidOrder(t *testing.T, f *serviceFixture, email, paymentID string) *models.Order {
	t.Helper()
	user := f.createUser(t, email)
	bed := f.createProduct(t, "Hospital Bed", "24500.00", 2)
	f.addToCart(t, user.ID, bed.ID, 1)
	order, err := f.orders.ConfirmPaidOrder(user.ID, validShippingInput(), PaidOrderInput{PaymentID: paymentID, PaymentMethod: "razorpay"})
	if err != nil {
		t.Fatalf("confirm paid order failed: %v", err)
	}
	statuses := newStatusService(f, false, nil)
	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	return order
}

func TestRefundOrderInFlightBlocksSecondRefund(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	order := cancelledPaidOrder(t, f, "double-refund@example.com", "pay_dup")

	var innerErr error
	var inFlightStatus string
	gateway.onRefund = func() {
		gateway.onRefund = nil
		stored, err := f.orderRepo.GetByID(order.ID)
		if err != nil || stored == nil {
			t.Errorf("load order failed: %v", err)
			return
		}
		inFlightStatus = stored.PaymentStatus
		_, innerErr = payments.RefundOrder(context.Background(), order.ID)
	}

	refunded, err := payments.RefundOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if inFlightStatus != constants.PaymentStatusRefunding {
		t.Fatalf("expected refunding while gateway call in flight, got %q", inFlightStatus)
	}
	if !errors.Is(innerErr, ErrOrderNotRefundable) {
		t.Fatalf("overlapping refund must be rejected, got %v", innerErr)
	}
	if len(gateway.refunded) != 1 {
		t.Fatalf("gateway refund must be called once, got %d", len(gateway.refunded))
	}
	if refunded.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", refunded.PaymentStatus)
	}
}

func TestRefundOrderGatewayFailureReleasesClaim(t *testing.T) {
	f, payments, gateway := newPaymentFixture(t)
	order := cancelledPaidOrder(t, f, "refund-retry@example.com", "pay_retry")
	gateway.refundErr = ErrPaymentGatewayFailed

	if _, err := payments.RefundOrder(context.Background(), order.ID); !errors.Is(err, ErrPaymentGatewayFailed) {
		t.Fatalf("expected gateway failure, got %v", err)
	}
	stored, err := f.orderRepo.GetByID(order.ID)
	if err != nil || stored == nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("failed refund must restore completed, got %s", stored.PaymentStatus)
	}

	gateway.refundErr = nil
	refunded, err := payments.RefundOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("retry refund failed: %v", err)
	}
	if refunded.PaymentStatus != constants.PaymentStatusRefunded || len(gateway.refunded) != 2 {
		t.Fatalf("unexpected retry result: status=%s calls=%d", refunded.PaymentStatus, len(gateway.refunded))
	}
}
