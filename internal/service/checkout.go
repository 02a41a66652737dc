package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"nosweat-backend/internal/catalog"
	"nosweat-backend/internal/client"
	"nosweat-backend/internal/dto"
	"nosweat-backend/internal/mail"
	"nosweat-backend/internal/metrics"
	"nosweat-backend/internal/model"
	"nosweat-backend/internal/repository"
)

const currency = "usd"

type CheckoutService interface {
	CreateSession(ctx context.Context, items []*dto.CartItem) (*dto.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type checkoutServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	emailSender      client.EmailSender
	prices           catalog.PriceTable
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewCheckoutService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	emailSender client.EmailSender,
	prices catalog.PriceTable,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		emailSender:      emailSender,
		prices:           prices,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

// CreateSession validates the cart, creates a hosted checkout session with
// the processor, and only then persists the pending order. The order's
// total stays zero until the webhook supplies the authoritative amount.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, items []*dto.CartItem) (*dto.CheckoutResponse, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("cart must contain at least one item")
	}

	lineItems := make([]*client.LineItem, len(items))
	orderItems := make([]*model.OrderItem, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("cart items must not be null")
		}
		if item.Name == "" {
			return nil, fmt.Errorf("item name is required")
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item quantity must be positive")
		}

		unitAmount, err := s.prices.UnitAmount(item.Size)
		if err != nil {
			return nil, err
		}

		displayName := fmt.Sprintf("%s (%s)", item.Name, item.Size)
		lineItems[i] = &client.LineItem{
			Name:       displayName,
			UnitAmount: unitAmount,
			Quantity:   item.Quantity,
		}
		orderItems[i] = &model.OrderItem{
			Name:       displayName,
			Size:       item.Size,
			UnitAmount: unitAmount,
			Quantity:   item.Quantity,
		}
	}

	resp, err := s.stripeClient.CreateCheckoutSession(ctx, lineItems)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	for _, item := range orderItems {
		item.SessionID = resp.SessionID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, &model.Order{
			ID:          uuid.NewString(),
			SessionID:   resp.SessionID,
			Status:      model.OrderStatusPending,
			TotalAmount: decimal.Zero,
			Currency:    currency,
		}); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckoutSessionsCreated.Inc()

	return &dto.CheckoutResponse{SessionID: resp.SessionID}, nil
}

// HandleWebhook verifies the delivery against the shared webhook secret and
// reconciles the matching order on checkout.session.completed. Any error
// returned here surfaces as a 4xx so the processor redelivers; ignored
// events return nil so it does not.
func (s *checkoutServiceImpl) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripeClient.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("signature_failed").Inc()
		return err
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		slog.Error("check webhook event dedup", "event_id", event.ID, "error", err)
	} else if processed {
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode webhook payload: %w", err)
		}

		if err := s.reconcile(ctx, &sess); err != nil {
			return err
		}
	} else {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, event.ID, string(event.Type)); err != nil {
		slog.Error("mark webhook event processed", "event_id", event.ID, "error", err)
	}

	return nil
}

func (s *checkoutServiceImpl) reconcile(ctx context.Context, sess *stripe.CheckoutSession) error {
	order, err := s.orderRepo.FindBySessionID(ctx, sess.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The session may belong to another environment; ack and move on.
		slog.Info("webhook for unknown session, ignoring", "session_id", sess.ID)
		metrics.WebhookEvents.WithLabelValues("unknown_session").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("find order by session id: %w", err)
	}

	// Best effort: re-query the processor for the authoritative charged
	// amount. On failure the order keeps its prior total.
	amount := order.TotalAmount
	details, err := s.stripeClient.RetrieveSession(ctx, sess.ID)
	if err != nil {
		slog.Error("retrieve session for amount enrichment", "session_id", sess.ID, "error", err)
	} else if details.AmountTotal > 0 {
		amount = decimal.NewFromInt(details.AmountTotal).Div(decimal.NewFromInt(100))
	}

	email := order.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}

	order, err = s.orderRepo.MarkPaid(ctx, sess.ID, amount, email)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	metrics.WebhookEvents.WithLabelValues("reconciled").Inc()

	first, err := s.orderRepo.MarkNotified(ctx, sess.ID)
	if err != nil {
		slog.Error("mark order notified", "session_id", sess.ID, "error", err)
		return nil
	}
	if !first {
		return nil
	}

	s.sendOrderConfirmation(ctx, order)
	return nil
}

func (s *checkoutServiceImpl) sendOrderConfirmation(ctx context.Context, order *model.Order) {
	if order.CustomerEmail == "" {
		slog.Warn("no customer email on paid order, skipping confirmation", "session_id", order.SessionID)
		return
	}

	items, err := s.orderRepo.GetOrderItems(ctx, order.SessionID)
	if err != nil {
		slog.Error("get order items for confirmation", "session_id", order.SessionID, "error", err)
	}

	confirmationItems := make([]mail.ConfirmationItem, len(items))
	for i, item := range items {
		confirmationItems[i] = mail.ConfirmationItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Amount:   formatMinorUnits(item.UnitAmount * item.Quantity),
		}
	}

	html, err := mail.RenderOrderConfirmation(&mail.OrderConfirmationData{
		Name:  mail.DisplayName(order.CustomerEmail),
		Items: confirmationItems,
		Total: "$" + order.TotalAmount.StringFixed(2),
		Year:  time.Now().Year(),
	})
	if err != nil {
		slog.Error("render order confirmation", "session_id", order.SessionID, "error", err)
		return
	}

	ok := s.emailSender.Send(ctx,
		"Your No Sweat™ Order Confirmation",
		fmt.Sprintf("Thank you for your order! Your payment of $%s has been received.", order.TotalAmount.StringFixed(2)),
		html,
		order.CustomerEmail,
	)
	metrics.EmailsDispatched.WithLabelValues("order_confirmation", outcomeLabel(ok)).Inc()
}

func formatMinorUnits(amount int64) string {
	return "$" + decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
