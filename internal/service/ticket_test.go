package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

var ticketIDPattern = regexp.MustCompile(`^TKT-[0-9A-F]{12}$`)

func TestTicketIssuerIssue(t *testing.T) {
	repo := newFakeTickets()
	issuer := NewTicketIssuer(repo, &config.TicketConfig{MaxAttempts: 5, QRSize: 128})

	reg := domain.Registration{ID: 3, ParticipantID: 7, EventID: 11}
	ticket, err := issuer.Issue(context.Background(), reg)
	require.NoError(t, err)

	assert.Regexp(t, ticketIDPattern, ticket.TicketID)
	assert.Equal(t, uint(3), ticket.RegistrationID)
	assert.True(t, strings.HasPrefix(ticket.QRImage, "data:image/png;base64,"))

	var payload domain.TicketPayload
	require.NoError(t, json.Unmarshal([]byte(ticket.QRPayload), &payload))
	assert.Equal(t, domain.TicketPayload{
		TicketID:       ticket.TicketID,
		RegistrationID: 3,
		ParticipantID:  7,
		EventID:        11,
	}, payload)
}

func TestTicketIssuerRetriesCollisions(t *testing.T) {
	repo := newFakeTickets()
	repo.taken["TKT-000000000001"] = true
	repo.taken["TKT-000000000002"] = true

	issuer := NewTicketIssuer(repo, &config.TicketConfig{MaxAttempts: 5, QRSize: 128})
	n := 0
	issuer.newID = func() string {
		n++
		return fmt.Sprintf("TKT-%012d", n)
	}

	ticket, err := issuer.Issue(context.Background(), domain.Registration{ID: 1, EventID: 1})
	require.NoError(t, err)
	assert.Equal(t, "TKT-000000000003", ticket.TicketID)
	assert.Equal(t, 3, n)
}

func TestTicketIssuerExhaustion(t *testing.T) {
	repo := newFakeTickets()
	repo.taken["TKT-AAAAAAAAAAAA"] = true

	issuer := NewTicketIssuer(repo, &config.TicketConfig{MaxAttempts: 3, QRSize: 128})
	calls := 0
	issuer.newID = func() string {
		calls++
		return "TKT-AAAAAAAAAAAA"
	}

	_, err := issuer.Issue(context.Background(), domain.Registration{ID: 1, EventID: 1})
	assert.ErrorIs(t, err, domain.ErrCredentialExhausted)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 3, calls)
	assert.Zero(t, repo.count())
}

func TestTicketServiceGet(t *testing.T) {
	f := newFixture(t)
	f.confirmOK()
	ev := f.publishedEvent(t, domain.Event{})
	owner := f.participant(t, "asha", false)
	stranger := f.participant(t, "ravi", false)
	otherOrganizer := f.addUser(t, domain.User{Email: "other@iiit.ac.in", Role: domain.RoleOrganizer}).Identity()
	admin := f.addUser(t, domain.User{Email: "admin@iiit.ac.in", Role: domain.RoleAdmin}).Identity()

	admission, err := f.regSvc.Register(context.Background(), owner, ev.ID, RegisterInput{})
	require.NoError(t, err)
	ticketID := admission.Ticket.TicketID

	svc := NewTicketService(f.tickets, f.events)

	for _, caller := range []domain.Identity{owner, f.organizerIdentity(), admin} {
		got, err := svc.Get(context.Background(), caller, ticketID)
		require.NoError(t, err)
		assert.Equal(t, ticketID, got.TicketID)
	}

	for _, caller := range []domain.Identity{stranger, otherOrganizer} {
		_, err := svc.Get(context.Background(), caller, ticketID)
		assert.ErrorIs(t, err, domain.ErrPermission)
	}

	_, err = svc.Get(context.Background(), owner, "TKT-FFFFFFFFFFFF")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
