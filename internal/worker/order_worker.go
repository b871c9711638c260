package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/mailer"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

const (
	paymentQueueName = "payments"
	dlxExchange      = "payments.dlx"
	dlqQueueName     = "payments.dlq"
	idempotencyTTL   = 24 * time.Hour
)

// OrderWorker turns completed payment sessions into orders. It owns the
// whole post-payment sequence: order creation, marking the pieces SOLD,
// the sold fan-out, and the confirmation email.
type OrderWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	webhookRepo repository.WebhookRepository
	notifier    service.WishlistNotifier
	mail        mailer.Mailer
	redisClient *redis.Client
	orderPrefix string
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	webhookRepo repository.WebhookRepository,
	notifier service.WishlistNotifier,
	mail mailer.Mailer,
	redisClient *redis.Client,
	orderPrefix string,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		webhookRepo: webhookRepo,
		notifier:    notifier,
		mail:        mail,
		redisClient: redisClient,
		orderPrefix: orderPrefix,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, paymentQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(paymentQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": paymentQueueName,
	}); err != nil {
		return fmt.Errorf("declare payment queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// PublishPaymentMessage enqueues a verified payment event for the worker.
func PublishPaymentMessage(ctx context.Context, ch *amqp.Channel, msg *model.PaymentMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payment message: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", paymentQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish payment message: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(paymentQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var paymentMsg model.PaymentMessage
	if err := json.Unmarshal(msg.Body, &paymentMsg); err != nil {
		w.log.Error("unmarshal payment message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event_id", paymentMsg.EventID, "session_id", paymentMsg.SessionID)

	// Fast-path idempotency check via Redis; the webhook_events table is
	// the durable one.
	idempotencyKey := "payment_event:" + paymentMsg.EventID
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("payment event already processed, skipping")
		_ = msg.Ack(false)
		return
	}

	first, err := w.webhookRepo.MarkProcessed(ctx, paymentMsg.EventID, "checkout.session.completed")
	if err != nil {
		log.Error("record webhook event", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if !first {
		log.Info("payment event already recorded, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.processPayment(ctx, &paymentMsg); err != nil {
		log.Error("process payment failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("payment processed successfully")
}

func (w *OrderWorker) processPayment(ctx context.Context, msg *model.PaymentMessage) error {
	existing, err := w.orderRepo.GetBySessionID(ctx, msg.SessionID)
	if err != nil {
		return fmt.Errorf("check existing order: %w", err)
	}
	if existing != nil {
		w.log.Info("order already exists for session", "order_number", existing.OrderNumber)
		return nil
	}

	order, products, err := w.buildOrder(ctx, msg)
	if err != nil {
		return err
	}

	if err := w.orderRepo.Create(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	soldAt := time.Now()
	if err := w.productRepo.MarkSold(ctx, msg.ProductIDs, soldAt); err != nil {
		return fmt.Errorf("mark products sold: %w", err)
	}

	// Side effects past this point are best effort: the order exists and
	// a redelivery must not duplicate it.
	for _, product := range products {
		product.Status = model.ProductSold
		product.SoldAt = &soldAt
		if _, err := w.notifier.NotifySold(ctx, product); err != nil {
			w.log.Error("sold fan-out failed", "product", product.Slug, "error", err)
		}
	}

	if to := order.NotificationEmail(""); to != "" {
		if err := w.mail.SendOrderConfirmation(to, order); err != nil {
			w.log.Error("confirmation email failed", "order_number", order.OrderNumber, "error", err)
		}
	}

	w.log.Info("order created", "order_number", order.OrderNumber, "total", order.Total)
	return nil
}

func (w *OrderWorker) buildOrder(ctx context.Context, msg *model.PaymentMessage) (*model.Order, []*model.Product, error) {
	orderNumber, err := w.orderRepo.NextOrderNumber(ctx, w.orderPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("next order number: %w", err)
	}

	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(msg.ProductIDs))
	products := make([]*model.Product, 0, len(msg.ProductIDs))
	for _, id := range msg.ProductIDs {
		product, err := w.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, nil, fmt.Errorf("paid product %s not found", id)
		}
		item := model.OrderItem{
			ProductID: product.ID,
			Title:     product.Name("nl"),
			Slug:      product.Slug,
			UnitPrice: product.Price,
			Quantity:  1,
		}
		if len(product.Images) > 0 {
			item.ProductImage = product.Images[0].URL
		}
		items = append(items, item)
		subtotal = subtotal.Add(product.Price)
		products = append(products, product)
	}

	order := &model.Order{
		OrderNumber:     orderNumber,
		UserID:          msg.UserID,
		Status:          model.OrderPaid,
		ShippingName:    msg.Shipping.Name,
		ShippingEmail:   msg.Shipping.Email,
		ShippingPhone:   msg.Shipping.Phone,
		ShippingStreet:  msg.Shipping.Street,
		ShippingCity:    msg.Shipping.City,
		ShippingPostal:  msg.Shipping.Postal,
		ShippingCountry: msg.Shipping.Country,
		Subtotal:        subtotal,
		ShippingCost:    fromMinorUnits(msg.ShippingCost),
		Total:           fromMinorUnits(msg.AmountTotal),
		StripeSessionID: msg.SessionID,
		Items:           items,
	}
	return order, products, nil
}

func fromMinorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
