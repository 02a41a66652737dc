package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nosweat-backend/internal/catalog"
	"nosweat-backend/internal/client"
	"nosweat-backend/internal/dto"
	"nosweat-backend/internal/model"
	"nosweat-backend/internal/repository"
)

// =====================
// Client mocks
// =====================

type MockStripeClient struct{ mock.Mock }

func (m *MockStripeClient) CreateCheckoutSession(ctx context.Context, items []*client.LineItem) (*client.CreateSessionResponse, error) {
	args := m.Called(ctx, items)
	resp, _ := args.Get(0).(*client.CreateSessionResponse)
	return resp, args.Error(1)
}

func (m *MockStripeClient) RetrieveSession(ctx context.Context, sessionID string) (*client.SessionDetails, error) {
	args := m.Called(ctx, sessionID)
	details, _ := args.Get(0).(*client.SessionDetails)
	return details, args.Error(1)
}

func (m *MockStripeClient) VerifyWebhookSignature(payload []byte, sigHeader string) (stripe.Event, error) {
	args := m.Called(payload, sigHeader)
	event, _ := args.Get(0).(stripe.Event)
	return event, args.Error(1)
}

type MockEmailSender struct{ mock.Mock }

func (m *MockEmailSender) Send(ctx context.Context, subject, bodyText, bodyHTML, recipient string) bool {
	args := m.Called(ctx, subject, bodyText, bodyHTML, recipient)
	return args.Bool(0)
}

// =====================
// Helpers
// =====================

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.WholesaleInquiry{},
		&model.WebhookEvent{},
	))

	return db
}

type checkoutFixture struct {
	db     *gorm.DB
	stripe *MockStripeClient
	email  *MockEmailSender
	svc    CheckoutService
	orders repository.OrderRepository
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	db := newTestDB(t)
	stripeMock := &MockStripeClient{}
	emailMock := &MockEmailSender{}
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	svc := NewCheckoutService(db, stripeMock, emailMock, catalog.Default(), orderRepo, webhookEventRepo)

	return &checkoutFixture{
		db:     db,
		stripe: stripeMock,
		email:  emailMock,
		svc:    svc,
		orders: orderRepo,
	}
}

func completedEvent(eventID, sessionID, email string) stripe.Event {
	raw, _ := json.Marshal(map[string]interface{}{
		"id": sessionID,
		"customer_details": map[string]string{
			"email": email,
		},
	})
	return stripe.Event{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

// =====================
// Session creation
// =====================

func TestCreateSessionPersistsPendingOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_1", CheckoutURL: "https://checkout.test/cs_test_1"}, nil)

	resp, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "16 oz", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)

	order, err := f.orders.FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Empty(t, order.CustomerEmail)

	items, err := f.orders.GetOrderItems(ctx, "cs_test_1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "No Sweat (16 oz)", items[0].Name)
	assert.Equal(t, int64(3499), items[0].UnitAmount)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestCreateSessionBuildsLineItemsFromCatalog(t *testing.T) {
	f := newCheckoutFixture(t)

	var captured []*client.LineItem
	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]*client.LineItem)
		}).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_2"}, nil)

	_, err := f.svc.CreateSession(context.Background(), []*dto.CartItem{
		{Name: "No Sweat", Size: "16 oz", Quantity: 2},
		{Name: "No Sweat", Size: "1 gallon", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Equal(t, "No Sweat (16 oz)", captured[0].Name)
	assert.Equal(t, int64(3499), captured[0].UnitAmount)
	assert.Equal(t, int64(2), captured[0].Quantity)
	assert.Equal(t, int64(14900), captured[1].UnitAmount)
}

func TestCreateSessionRejectsUnknownSize(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.CreateSession(context.Background(), []*dto.CartItem{
		{Name: "No Sweat", Size: "16 oz", Quantity: 1},
		{Name: "No Sweat", Size: "2 liters", Quantity: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 liters")

	// rejected before any processor call, nothing persisted
	f.stripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateSessionRejectsEmptyCartAndBadQuantity(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSession(ctx, nil)
	assert.Error(t, err)

	_, err = f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 0},
	})
	assert.Error(t, err)

	f.stripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateSessionRejectsNullItem(t *testing.T) {
	f := newCheckoutFixture(t)

	// {"items":[null]} binds to a slice holding a nil element
	assert.NotPanics(t, func() {
		_, err := f.svc.CreateSession(context.Background(), []*dto.CartItem{nil})
		assert.Error(t, err)
	})

	f.stripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateSessionProcessorFailureCreatesNoOrder(t *testing.T) {
	f := newCheckoutFixture(t)

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	_, err := f.svc.CreateSession(context.Background(), []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 1},
	})
	assert.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

// =====================
// Webhook reconciliation
// =====================

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newCheckoutFixture(t)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(stripe.Event{}, assert.AnError)

	err := f.svc.HandleWebhook(context.Background(), []byte(`{}`), "bad-sig")
	assert.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.WebhookEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleWebhookReconcilesOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_3"}, nil)
	_, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "16 oz", Quantity: 2},
	})
	require.NoError(t, err)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(completedEvent("evt_1", "cs_test_3", "jane@example.com"), nil)
	f.stripe.On("RetrieveSession", mock.Anything, "cs_test_3").
		Return(&client.SessionDetails{AmountTotal: 6998}, nil)
	f.email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "jane@example.com").
		Return(true)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	order, err := f.orders.FindBySessionID(ctx, "cs_test_3")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "jane@example.com", order.CustomerEmail)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("69.98")))
	assert.True(t, order.Notified)

	f.email.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleWebhookRedeliveryIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_4"}, nil)
	_, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 1},
	})
	require.NoError(t, err)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(completedEvent("evt_2", "cs_test_4", "jane@example.com"), nil)
	f.stripe.On("RetrieveSession", mock.Anything, "cs_test_4").
		Return(&client.SessionDetails{AmountTotal: 1499}, nil)
	f.email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "jane@example.com").
		Return(true)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	order, err := f.orders.FindBySessionID(ctx, "cs_test_4")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("14.99")))

	// exactly one confirmation despite redelivery
	f.email.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleWebhookDistinctEventSameSessionSendsOneEmail(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_5"}, nil)
	_, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 1},
	})
	require.NoError(t, err)

	f.stripe.On("VerifyWebhookSignature", []byte(`a`), mock.Anything).
		Return(completedEvent("evt_3a", "cs_test_5", "jane@example.com"), nil)
	f.stripe.On("VerifyWebhookSignature", []byte(`b`), mock.Anything).
		Return(completedEvent("evt_3b", "cs_test_5", "jane@example.com"), nil)
	f.stripe.On("RetrieveSession", mock.Anything, "cs_test_5").
		Return(&client.SessionDetails{AmountTotal: 1499}, nil)
	f.email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "jane@example.com").
		Return(true)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`a`), "sig"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`b`), "sig"))

	f.email.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleWebhookUnknownSessionIsNoOp(t *testing.T) {
	f := newCheckoutFixture(t)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(completedEvent("evt_4", "cs_unknown", "jane@example.com"), nil)

	err := f.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	assert.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	f.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhookEnrichmentFailureStillReconciles(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_6"}, nil)
	_, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 1},
	})
	require.NoError(t, err)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(completedEvent("evt_5", "cs_test_6", "jane@example.com"), nil)
	f.stripe.On("RetrieveSession", mock.Anything, "cs_test_6").
		Return(nil, assert.AnError)
	f.email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "jane@example.com").
		Return(true)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	order, err := f.orders.FindBySessionID(ctx, "cs_test_6")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	// amount stays at its prior value when enrichment fails
	assert.True(t, order.TotalAmount.IsZero())
}

func TestHandleWebhookEmailFailureKeepsOrderPaid(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CreateSessionResponse{SessionID: "cs_test_7"}, nil)
	_, err := f.svc.CreateSession(ctx, []*dto.CartItem{
		{Name: "No Sweat", Size: "4 oz", Quantity: 1},
	})
	require.NoError(t, err)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(completedEvent("evt_6", "cs_test_7", "jane@example.com"), nil)
	f.stripe.On("RetrieveSession", mock.Anything, "cs_test_7").
		Return(&client.SessionDetails{AmountTotal: 1499}, nil)
	f.email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "jane@example.com").
		Return(false)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	order, err := f.orders.FindBySessionID(ctx, "cs_test_7")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newCheckoutFixture(t)

	f.stripe.On("VerifyWebhookSignature", mock.Anything, mock.Anything).
		Return(stripe.Event{
			ID:   "evt_7",
			Type: "payment_intent.created",
			Data: &stripe.EventData{Raw: []byte(`{}`)},
		}, nil)

	err := f.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	assert.NoError(t, err)
	f.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
