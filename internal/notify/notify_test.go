package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func TestWebhookAnnouncer(t *testing.T) {
	ann := domain.Announcement{EventID: 7, Name: "Hackathon", Type: domain.EventNormal}

	t.Run("delivers json", func(t *testing.T) {
		var got domain.Announcement
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		err := NewWebhookAnnouncer(srv.URL, time.Second).Announce(context.Background(), ann)
		require.NoError(t, err)
		assert.Equal(t, uint(7), got.EventID)
		assert.Equal(t, "Hackathon", got.Name)
	})

	t.Run("non 2xx is a delivery error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewWebhookAnnouncer(srv.URL, time.Second).Announce(context.Background(), ann)
		assert.ErrorIs(t, err, domain.ErrDelivery)
	})

	t.Run("timeout is a delivery error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		err := NewWebhookAnnouncer(srv.URL, 20*time.Millisecond).Announce(context.Background(), ann)
		assert.ErrorIs(t, err, domain.ErrDelivery)
	})
}

func TestComposeConfirmation(t *testing.T) {
	msg := string(composeConfirmation("fest@iiit.ac.in", domain.Confirmation{
		Kind:      domain.ConfirmPurchase,
		Email:     "p@example.com",
		Name:      "Priya",
		EventName: "Fest Tee",
		TicketID:  "TKT-0123456789AB",
	}))

	assert.True(t, strings.HasPrefix(msg, "From: fest@iiit.ac.in\r\nTo: p@example.com\r\n"))
	assert.Contains(t, msg, "Subject: Your order for Fest Tee is confirmed\r\n")
	assert.Contains(t, msg, "TKT-0123456789AB")
}

func TestSMTPMailerUnreachable(t *testing.T) {
	m := NewSMTPMailer(&config.SMTPConfig{Host: "127.0.0.1", Port: "1", From: "fest@iiit.ac.in"}, 200*time.Millisecond)

	err := m.Confirm(context.Background(), domain.Confirmation{Email: "p@example.com"})
	assert.ErrorIs(t, err, domain.ErrDelivery)
}

type stubConfirmation struct {
	acked bool
	err   error
	block bool
}

func (c stubConfirmation) WaitContext(ctx context.Context) (bool, error) {
	if c.block {
		<-ctx.Done()
		return false, ctx.Err()
	}

	return c.acked, c.err
}

func TestAwaitConfirm(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		conf    stubConfirmation
		wantErr bool
	}{
		{name: "ack", ctx: context.Background(), conf: stubConfirmation{acked: true}},
		{name: "nack", ctx: context.Background(), conf: stubConfirmation{acked: false}, wantErr: true},
		{name: "channel closed", ctx: context.Background(), conf: stubConfirmation{err: errors.New("channel closed")}, wantErr: true},
		{name: "no answer before timeout", ctx: expired, conf: stubConfirmation{block: true}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := awaitConfirm(tt.ctx, tt.conf)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrDelivery)
		})
	}
}
