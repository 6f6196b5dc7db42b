package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MessageHandler processes one request body. A nil error acks the delivery;
// an error requeues it after backoff.
type MessageHandler func(ctx context.Context, body []byte) error

const maxBackoff = 60 * time.Second

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Queue       string
	Exchange    string
	DLQ         string
	StatusQueue string
	Prefetch    int
	WorkerCount int
	BaseDelayMs int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		workerCount: cfg.WorkerCount,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

// declareTopology sets up the topic exchange, the request and status queues
// bound by their own names, and the DLQ. Requests rejected without requeue
// are dead-lettered into the DLQ by the broker.
func declareTopology(ch *amqp.Channel, cfg ConsumerConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.DLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.DLQ, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, requestQueueArgs(cfg.DLQ)); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	if _, err := ch.QueueDeclare(cfg.StatusQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.StatusQueue, err)
	}

	for _, q := range []string{cfg.Queue, cfg.StatusQueue} {
		if err := ch.QueueBind(q, q, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

func requestQueueArgs(dlq string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	ctx, span := otel.Tracer("rabbitmq").Start(extractTrace(ctx, d.Headers), "consume "+c.queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", c.queue),
			attribute.Bool("messaging.rabbitmq.redelivered", d.Redelivered),
		),
	)
	defer span.End()

	err := c.handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if _, ok := err.(*panicError); ok {
		log.Error("motion request handler panicked, dead-lettering",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
		)
		_ = d.Nack(false, false)
		return
	}

	log.Warn("motion request failed, nacking",
		zap.Error(err),
		zap.Uint64("delivery_tag", d.DeliveryTag),
	)

	attempt := c.getAttemptFromHeaders(d)
	delay := c.calculateBackoff(attempt)
	log.Info("backoff before requeue", zap.Duration("delay", delay), zap.Int("attempt", attempt))

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}

	_ = d.Nack(false, true) // requeue=true
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.value)
}

// handle runs the handler, turning a panic into a *panicError so one bad
// frame cannot take the worker down.
func (c *Consumer) handle(ctx context.Context, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
			c.logger.Debug("handler stack", zap.ByteString("stack", err.(*panicError).stack))
		}
	}()
	return c.handler(ctx, body)
}

// getAttemptFromHeaders reads the broker's x-death bookkeeping; redeliveries
// without it count as a second attempt.
func (c *Consumer) getAttemptFromHeaders(d amqp.Delivery) int {
	attempt := 1
	if d.Redelivered {
		attempt = 2
	}
	if d.Headers == nil {
		return attempt
	}
	deaths, ok := d.Headers["x-death"].([]interface{})
	if !ok || len(deaths) == 0 {
		return attempt
	}
	if death, ok := deaths[0].(amqp.Table); ok {
		if count, ok := death["count"].(int64); ok && count > 0 {
			return int(count) + 1
		}
	}
	return len(deaths) + 1
}

func (c *Consumer) calculateBackoff(attempt int) time.Duration {
	if attempt > 30 {
		return maxBackoff
	}
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
