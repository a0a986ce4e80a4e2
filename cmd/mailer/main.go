package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/wneessen/go-mail"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/infrastructure/config"
	"github.com/gearguard/gearguard/internal/infrastructure/queue"
	"github.com/gearguard/gearguard/internal/mailer"
	"github.com/gearguard/gearguard/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, err := mail.NewClient(cfg.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.SMTP.Port),
		mail.WithUsername(cfg.SMTP.Username),
		mail.WithPassword(cfg.SMTP.Password),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mail client")
	}
	defer client.Close()

	conn, ch, err := queue.Connect(cfg.RabbitMQ.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer conn.Close()
	defer ch.Close()

	deliveries, err := ch.Consume(
		queue.MailQueue,
		"",    // consumer tag assigned by the broker
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to consume mail queue")
	}

	sender := mailer.NewSender(client, cfg.SMTP.From, log)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}

				var msg domain.MailMessage
				if err := json.Unmarshal(delivery.Body, &msg); err != nil {
					log.Error().Err(err).Msg("malformed mail message, dropping")
					_ = delivery.Nack(false, false)
					continue
				}

				permanent, err := sender.Send(msg)
				if err != nil {
					// Requeue transient failures so a mail server blip
					// does not lose the message.
					log.Error().Err(err).Str("type", msg.Type).Msg("mail delivery failed")
					_ = delivery.Nack(false, !permanent)
					continue
				}

				_ = delivery.Ack(false)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	log.Info().Msg("mailer worker started")
	<-quit

	log.Info().Msg("shutting down mailer worker")
	cancel()
	wg.Wait()
	log.Info().Msg("mailer worker stopped")
}
