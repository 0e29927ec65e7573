package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func TestSagaAbortRunsCompensationsInReverse(t *testing.T) {
	var order []string
	sg := newSaga("test", time.Second)
	for _, name := range []string{"first", "second", "third"} {
		name := name
		sg.onRollback(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	cause := errors.New("boom")
	err := sg.abort(context.Background(), cause)

	assert.Same(t, cause, err)
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestSagaAbortKeepsGoingAfterFailures(t *testing.T) {
	var ran []string
	sg := newSaga("test", time.Second)
	sg.onRollback("blob", func(context.Context) error {
		ran = append(ran, "blob")
		return nil
	})
	sg.onRollback("registration", func(context.Context) error {
		ran = append(ran, "registration")
		return errors.New("db down")
	})
	sg.onRollback("ticket", func(context.Context) error {
		ran = append(ran, "ticket")
		return domain.ErrTicketNotFound
	})

	cause := domain.ErrDelivery
	err := sg.abort(context.Background(), cause)

	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Equal(t, []string{"ticket", "registration", "blob"}, ran)
}

func TestSagaAbortOutlivesRequestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	sg := newSaga("test", time.Second)
	sg.onRollback("check", func(ctx context.Context) error {
		sawErr = ctx.Err()
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	_ = sg.abort(ctx, context.Canceled)

	assert.NoError(t, sawErr)
}

func TestSagaAbortIsOneShot(t *testing.T) {
	calls := 0
	sg := newSaga("test", time.Second)
	sg.onRollback("once", func(context.Context) error {
		calls++
		return nil
	})

	_ = sg.abort(context.Background(), errors.New("first"))
	_ = sg.abort(context.Background(), errors.New("second"))

	assert.Equal(t, 1, calls)
}
