package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	mqotel "CareOnboard/pkg/mq"
	"CareOnboard/pkg/logger"
)

// ErrPermanent 处理器返回它（或包装它）时消息不再重回队列，进入死信
var ErrPermanent = errors.New("permanent message failure")

type MessageHandler func(ctx context.Context, body []byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费直到 ctx 结束或 channel 关闭
func Consume(ctx context.Context, opts ConsumeOptions) error {
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel closed: %s", opts.Queue)
			}
			handle(ctx, opts, msg)
		}
	}
}

func handle(ctx context.Context, opts ConsumeOptions, msg amqp.Delivery) {
	msgCtx, span := mqotel.StartConsume(ctx, opts.Queue, msg)
	defer span.End()

	err := opts.Handler(msgCtx, msg.Body)
	if err == nil {
		_ = msg.Ack(false)
		return
	}

	span.SetStatus(codes.Error, err.Error())
	logger.Logger.Error("Failed to process message",
		zap.String("queue", opts.Queue),
		zap.String("message_id", msg.MessageId),
		zap.Bool("redelivered", msg.Redelivered),
		zap.Error(err),
	)

	// 永久错误或重投过一次仍失败的进死信
	requeue := !errors.Is(err, ErrPermanent) && !msg.Redelivered
	_ = msg.Nack(false, requeue)
}
