package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/config"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
	"github.com/joshuaoni/user-management-dashboard/pkg/mailer"
)

// outcome of one delivery attempt
type outcome int

const (
	ack outcome = iota
	drop
	retry
)

func process(ctx context.Context, s mailer.Sender, body []byte, log *logrus.Logger) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.WithError(err).Warn("bad message")
		return drop
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	err := mailer.Deliver(c, s, job)
	switch {
	case err == nil:
		helpers.LogInfo(log, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
		return ack
	case errors.Is(err, mailer.ErrInvalidJob):
		log.WithError(err).WithField("template", job.Template).Warn("dropping invalid job")
		return drop
	default:
		helpers.LogError(log, "send failed", err, logrus.Fields{"to": job.To})
		return retry
	}
}

// consumerTagFor names this consumer so shutdown can cancel exactly it.
func consumerTagFor(app string, hostname func() (string, error)) string {
	tag := app + "-email-worker"
	if host, err := hostname(); err == nil && host != "" {
		tag += "-" + host
	}
	return tag
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	consumerTag := consumerTagFor(cfg.AppName, os.Hostname)
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, consumerTag, false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			switch process(ctx, mg, msg.Body, logger) {
			case ack:
				_ = msg.Ack(false)
			case drop:
				_ = msg.Nack(false, false)
			case retry:
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	if err := ch.Cancel(consumerTag, false); err != nil {
		logger.WithError(err).Warn("consumer cancel failed")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
