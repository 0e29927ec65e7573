package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

// WebhookAnnouncer POSTs announcements as JSON to a fixed URL.
type WebhookAnnouncer struct {
	url    string
	client *http.Client
}

func NewWebhookAnnouncer(url string, timeout time.Duration) *WebhookAnnouncer {
	return &WebhookAnnouncer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (a *WebhookAnnouncer) Announce(ctx context.Context, ann domain.Announcement) error {
	body, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("a.client.Do -> %w: %w", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %d: %w", resp.StatusCode, domain.ErrDelivery)
	}

	return nil
}

var (
	errNacked    = fmt.Errorf("broker rejected the announcement: %w", domain.ErrDelivery)
	errNoConfirm = fmt.Errorf("channel is not in confirm mode: %w", domain.ErrDelivery)
)

// confirmation is the broker's answer to one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// AMQPAnnouncer publishes announcements to a topic exchange and waits for
// the broker to confirm each one.
type AMQPAnnouncer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	timeout    time.Duration
}

func NewAMQPAnnouncer(conf *config.AnnounceConfig, timeout time.Duration) (*AMQPAnnouncer, error) {
	conn, err := amqp.Dial(conf.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial -> %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("conn.Channel -> %w", err)
	}

	if err = ch.ExchangeDeclare(
		conf.AMQPExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare -> %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ch.Confirm -> %w", err)
	}

	zap.L().Info("announcement exchange ready", zap.String("exchange", conf.AMQPExchange))

	return &AMQPAnnouncer{
		conn:       conn,
		channel:    ch,
		exchange:   conf.AMQPExchange,
		routingKey: conf.AMQPRoutingKey,
		timeout:    timeout,
	}, nil
}

func (a *AMQPAnnouncer) Announce(ctx context.Context, ann domain.Announcement) error {
	body, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	dc, err := a.channel.PublishWithDeferredConfirmWithContext(ctx,
		a.exchange,
		a.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		zap.L().Error("failed to publish announcement", zap.Uint("event_id", ann.EventID), zap.Error(err))
		return fmt.Errorf("a.channel.PublishWithDeferredConfirmWithContext -> %w: %w", domain.ErrDelivery, err)
	}
	if dc == nil {
		return errNoConfirm
	}

	if err = awaitConfirm(ctx, dc); err != nil {
		zap.L().Error("announcement not confirmed", zap.Uint("event_id", ann.EventID), zap.Error(err))
		return err
	}

	return nil
}

// awaitConfirm blocks until the broker acks or nacks, or ctx ends.
func awaitConfirm(ctx context.Context, c confirmation) error {
	acked, err := c.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("c.WaitContext -> %w: %w", domain.ErrDelivery, err)
	}
	if !acked {
		return errNacked
	}

	return nil
}

func (a *AMQPAnnouncer) Close() {
	if a.channel != nil {
		_ = a.channel.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

// NoopAnnouncer drops announcements.
type NoopAnnouncer struct{}

func (NoopAnnouncer) Announce(context.Context, domain.Announcement) error {
	return nil
}
