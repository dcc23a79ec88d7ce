package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/config"
	"github.com/petlovers/petlovers-api/internal/application"
	pginfra "github.com/petlovers/petlovers-api/internal/infrastructure/postgres"
	"github.com/petlovers/petlovers-api/pkg/helpers"
	"github.com/petlovers/petlovers-api/pkg/mailer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)
	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQAdoptionQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptionsFrom(cfg, cfg.AppName+"-email-worker"))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQAdoptionQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq consumer")
	}
	defer consumer.Close()

	msgs, err := consumer.Consume()
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	notifier := application.NewAdoptionNotifier(
		pginfra.NewUserRepository(pool),
		mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender),
		cfg,
		logger,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			handle(ctx, notifier, logger, msg)
		}
	}()

	logger.WithField("queue", cfg.RabbitMQAdoptionQueue).Info("email worker listening")
	select {
	case <-ctx.Done():
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle acks delivered or undeliverable events and requeues transient failures.
func handle(ctx context.Context, n *application.AdoptionNotifier, logger *logrus.Logger, msg amqp.Delivery) {
	var evt application.AdoptionEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		logger.WithError(err).Warn("bad message")
		_ = msg.Nack(false, false)
		return
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	err := n.Handle(c, evt)
	switch {
	case err == nil:
		helpers.LogInfo(logger, "adoption event handled", helpers.EventFields(evt.PetID, evt.Action, nil))
		_ = msg.Ack(false)
	case errors.Is(err, application.ErrUndeliverable):
		logger.WithError(err).WithFields(helpers.EventFields(evt.PetID, evt.Action, nil)).Warn("dropping adoption event")
		_ = msg.Nack(false, false)
	default:
		helpers.LogError(logger, "send failed", err, helpers.EventFields(evt.PetID, evt.Action, logrus.Fields{"redelivered": msg.Redelivered}))
		_ = msg.Nack(false, true)
	}
}
