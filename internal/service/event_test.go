package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func draftEvent(name string, tags ...string) domain.Event {
	start := time.Now().Add(48 * time.Hour)

	return domain.Event{
		Name:              name,
		Description:       "An evening of " + name,
		Type:              domain.EventNormal,
		Eligibility:       domain.EligibilityAll,
		StartDate:         start,
		EndDate:           start.Add(3 * time.Hour),
		RegistrationLimit: 50,
		Tags:              tags,
	}
}

func (f *fixture) announceOK() {
	f.announcer.On("Announce", mock.Anything, mock.Anything).Return(nil)
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	org := f.organizerIdentity()

	in := draftEvent("Robotics")
	in.Status = domain.EventPublished
	in.OrganizerID = 42

	ev, err := f.eventSvc.Create(context.Background(), org, in)
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, domain.EventDraft, ev.Status)
	assert.Equal(t, org.UserID, ev.OrganizerID)

	_, err = f.eventSvc.Create(context.Background(), f.participant(t, "asha", false), draftEvent("Quiz"))
	assert.ErrorIs(t, err, domain.ErrOrganizerOnly)

	bad := draftEvent("Broken")
	bad.RegistrationLimit = 0
	_, err = f.eventSvc.Create(context.Background(), org, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	f.confirmOK()
	org := f.organizerIdentity()

	ev, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)

	_, err = f.eventSvc.Start(context.Background(), org, ev.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	ev, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPublished, ev.Status)

	admission, err := f.regSvc.Register(context.Background(), f.participant(t, "asha", false), ev.ID, RegisterInput{})
	require.NoError(t, err)

	ev, err = f.eventSvc.Start(context.Background(), org, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventOngoing, ev.Status)

	ev, err = f.eventSvc.Complete(context.Background(), org, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCompleted, ev.Status)

	reg, err := f.regs.FindByID(context.Background(), admission.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCompleted, reg.Status)

	_, err = f.eventSvc.Close(context.Background(), org, ev.ID)
	var tErr *domain.TransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, domain.EventCompleted, tErr.From)
}

func TestPublishAnnounces(t *testing.T) {
	f := newFixture(t)
	org := f.organizerIdentity()

	ev, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics", "tech"))
	require.NoError(t, err)

	f.announcer.On("Announce", mock.Anything, mock.MatchedBy(func(a domain.Announcement) bool {
		return a.EventID == ev.ID && a.Name == "Robotics" && a.OrganizerID == org.UserID && len(a.Tags) == 1
	})).Return(nil).Once()

	_, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	require.NoError(t, err)
	f.announcer.AssertExpectations(t)
}

func TestPublishAbortsWhenAnnouncementFails(t *testing.T) {
	f := newFixture(t)
	f.announcer.On("Announce", mock.Anything, mock.Anything).Return(errors.New("discord 503"))
	org := f.organizerIdentity()

	ev, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)

	_, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	assert.ErrorIs(t, err, domain.ErrDelivery)

	stored, err := f.events.FindByID(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventDraft, stored.Status)
}

func TestPublishValidatesMerchandise(t *testing.T) {
	f := newFixture(t)
	org := f.organizerIdentity()

	in := draftEvent("Tee")
	in.Type = domain.EventMerchandise
	ev, err := f.eventSvc.Create(context.Background(), org, in)
	require.NoError(t, err)

	_, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	f.announcer.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
}

func TestTransitionsRequireOwner(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	ev, err := f.eventSvc.Create(context.Background(), f.organizerIdentity(), draftEvent("Robotics"))
	require.NoError(t, err)

	rival := f.addUser(t, domain.User{Email: "rival@iiit.ac.in", Name: "Rival", Role: domain.RoleOrganizer}).Identity()
	_, err = f.eventSvc.Publish(context.Background(), rival, ev.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	admin := f.addUser(t, domain.User{Email: "admin@iiit.ac.in", Name: "Admin", Role: domain.RoleAdmin}).Identity()
	_, err = f.eventSvc.Publish(context.Background(), admin, ev.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	published, err := f.eventSvc.Publish(context.Background(), f.organizerIdentity(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPublished, published.Status)
}

func TestAdminCannotRunLifecycleOnForeignEvent(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	org := f.organizerIdentity()
	admin := f.addUser(t, domain.User{Email: "admin@iiit.ac.in", Name: "Admin", Role: domain.RoleAdmin}).Identity()

	draft, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)
	live, err := f.eventSvc.Create(context.Background(), org, draftEvent("Quiz"))
	require.NoError(t, err)
	_, err = f.eventSvc.Publish(context.Background(), org, live.ID)
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.eventSvc.Update(context.Background(), admin, draft.ID, domain.EventPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	err = f.eventSvc.Delete(context.Background(), admin, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	for action, move := range map[string]func(context.Context, domain.Identity, uint) (domain.Event, error){
		"start":    f.eventSvc.Start,
		"close":    f.eventSvc.Close,
		"complete": f.eventSvc.Complete,
	} {
		_, err = move(context.Background(), admin, live.ID)
		assert.ErrorIs(t, err, domain.ErrNotOwner, action)
	}

	got, err := f.events.FindByID(context.Background(), live.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPublished, got.Status)

	got, err = f.events.FindByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robotics", got.Name)
}

func TestCompleteKeepsRegistrationsWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	f.confirmOK()
	org := f.organizerIdentity()

	ev, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)
	_, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	require.NoError(t, err)
	admission, err := f.regSvc.Register(context.Background(), f.participant(t, "asha", false), ev.ID, RegisterInput{})
	require.NoError(t, err)
	_, err = f.eventSvc.Close(context.Background(), org, ev.ID)
	require.NoError(t, err)

	f.events.updateErr = ErrStaleVersion
	_, err = f.eventSvc.Complete(context.Background(), org, ev.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	reg, err := f.regs.FindByID(context.Background(), admission.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationRegistered, reg.Status)

	f.events.updateErr = nil
	completed, err := f.eventSvc.Complete(context.Background(), org, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCompleted, completed.Status)

	reg, err = f.regs.FindByID(context.Background(), admission.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCompleted, reg.Status)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	f.confirmOK()
	org := f.organizerIdentity()

	ev, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)

	name := "Robotics 2.0"
	ev, err = f.eventSvc.Update(context.Background(), org, ev.ID, domain.EventPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, ev.Name)

	ev, err = f.eventSvc.Publish(context.Background(), org, ev.ID)
	require.NoError(t, err)

	renamed := "Something Else"
	_, err = f.eventSvc.Update(context.Background(), org, ev.ID, domain.EventPatch{Name: &renamed})
	var locked *domain.FieldLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "name", locked.Field)

	limit := 80
	ev, err = f.eventSvc.Update(context.Background(), org, ev.ID, domain.EventPatch{RegistrationLimit: &limit})
	require.NoError(t, err)
	assert.Equal(t, 80, ev.RegistrationLimit)

	_, err = f.regSvc.Register(context.Background(), f.participant(t, "asha", false), ev.ID, RegisterInput{})
	require.NoError(t, err)

	schema := resumeForm
	_, err = f.eventSvc.Update(context.Background(), org, ev.ID, domain.EventPatch{FormSchema: &schema})
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "custom_form_schema", locked.Field)

	merch := domain.EventMerchandise
	_, err = f.eventSvc.Update(context.Background(), org, ev.ID, domain.EventPatch{Type: &merch})
	assert.ErrorIs(t, err, domain.ErrTypeImmutable)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	f.announceOK()
	org := f.organizerIdentity()

	draft, err := f.eventSvc.Create(context.Background(), org, draftEvent("Robotics"))
	require.NoError(t, err)
	live, err := f.eventSvc.Create(context.Background(), org, draftEvent("Quiz"))
	require.NoError(t, err)
	_, err = f.eventSvc.Publish(context.Background(), org, live.ID)
	require.NoError(t, err)

	require.NoError(t, f.eventSvc.Delete(context.Background(), org, draft.ID))
	_, err = f.events.FindByID(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	err = f.eventSvc.Delete(context.Background(), org, live.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	org := f.organizerIdentity()
	p := f.participant(t, "asha", false)

	robotics := f.publishedEvent(t, domain.Event{Name: "Robotics Workshop", Tags: []string{"tech"}})
	chess := f.publishedEvent(t, domain.Event{Name: "Chess Open", Description: "bring your robot opponents"})
	draft, err := f.eventSvc.Create(context.Background(), org, draftEvent("Secret Robotics"))
	require.NoError(t, err)

	public, err := f.eventSvc.List(context.Background(), p, EventQuery{})
	require.NoError(t, err)
	assert.Len(t, public, 2)

	ranked, err := f.eventSvc.List(context.Background(), p, EventQuery{Query: "robot"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, robotics.ID, ranked[0].ID)
	assert.Equal(t, chess.ID, ranked[1].ID)

	_, err = f.eventSvc.List(context.Background(), p, EventQuery{Status: domain.EventDraft})
	assert.ErrorIs(t, err, domain.ErrValidation)

	mine, err := f.eventSvc.List(context.Background(), org, EventQuery{Mine: true, Status: domain.EventDraft})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, draft.ID, mine[0].ID)

	admin := f.addUser(t, domain.User{Email: "admin@iiit.ac.in", Name: "Admin", Role: domain.RoleAdmin}).Identity()
	drafts, err := f.eventSvc.List(context.Background(), admin, EventQuery{Status: domain.EventDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	none, err := f.eventSvc.List(context.Background(), p, EventQuery{Query: "zumba"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventDetails(t *testing.T) {
	f := newFixture(t)
	f.confirmOK()
	org := f.organizerIdentity()

	ev := f.publishedEvent(t, domain.Event{RegistrationLimit: 1})
	iiitOnly := f.publishedEvent(t, domain.Event{Eligibility: domain.EligibilityIIITOnly})
	draft, err := f.eventSvc.Create(context.Background(), org, draftEvent("Secret"))
	require.NoError(t, err)

	asha := f.participant(t, "asha", false)
	details, err := f.eventSvc.Details(context.Background(), asha, ev.ID)
	require.NoError(t, err)
	assert.True(t, details.CanRegister)
	assert.Empty(t, details.BlockReasons)
	assert.Nil(t, details.Registration)

	_, err = f.regSvc.Register(context.Background(), asha, ev.ID, RegisterInput{})
	require.NoError(t, err)

	details, err = f.eventSvc.Details(context.Background(), asha, ev.ID)
	require.NoError(t, err)
	assert.False(t, details.CanRegister)
	assert.Equal(t, int64(1), details.ConfirmedCount)
	assert.Contains(t, details.BlockReasons, domain.BlockAlreadyRegistered)
	require.NotNil(t, details.Registration)

	ravi := f.participant(t, "ravi", false)
	details, err = f.eventSvc.Details(context.Background(), ravi, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.BlockReason{domain.BlockRegistrationFull}, details.BlockReasons)

	details, err = f.eventSvc.Details(context.Background(), ravi, iiitOnly.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.BlockReason{domain.BlockNotEligible}, details.BlockReasons)

	_, err = f.eventSvc.Details(context.Background(), ravi, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := f.eventSvc.Details(context.Background(), org, draft.ID)
	require.NoError(t, err)
	assert.Contains(t, mine.BlockReasons, domain.BlockEventNotOpen)
}
