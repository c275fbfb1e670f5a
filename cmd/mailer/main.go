package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/config"
	"github.com/spendly/spendly-backend/internal/mail"
)

// mailer drains the outbound mail queue into SMTP, reconnecting to the
// broker when the connection drops.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.LoadMailer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sender, err := mail.NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create SMTP sender")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.Mail.Queue).Str("smtp_host", cfg.SMTP.Host).Msg("Starting mailer")

	for attempt := 0; ; attempt++ {
		err := consume(ctx, cfg.Mail, sender)
		if ctx.Err() != nil {
			break
		}

		delay := mail.ExponentialBackoff(attempt)
		log.Error().Err(err).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("Mail consumer stopped, reconnecting")

		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Info().Msg("Mailer exited")
}

// consume runs one broker session until ctx is done or the connection closes
func consume(ctx context.Context, cfg config.MailConfig, sender *mail.SMTPSender) error {
	client, err := mail.NewClient(cfg.AMQPURL, cfg.Exchange, cfg.Queue)
	if err != nil {
		return err
	}
	defer client.Close()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	closed := client.NotifyClose()
	go func() {
		select {
		case amqpErr := <-closed:
			if amqpErr != nil {
				log.Warn().Str("reason", amqpErr.Reason).Msg("AMQP connection closed")
			}
			cancel()
		case <-sessionCtx.Done():
		}
	}()

	err = client.Consume(sessionCtx, sender.Send)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return errors.New("connection lost")
	}
	return err
}
