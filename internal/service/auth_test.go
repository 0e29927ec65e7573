package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func newAuth(users *fakeUsers) *AuthService {
	return NewAuthService(users, &config.CampusConfig{EmailDomains: []string{"iiit.ac.in", "students.iiit.ac.in"}})
}

func TestSignup(t *testing.T) {
	users := newFakeUsers()
	auth := newAuth(users)

	tests := []struct {
		name string
		user domain.User
		want error
	}{
		{
			name: "campus participant",
			user: domain.User{Email: " Asha@Students.IIIT.ac.in ", Password: "s3cret!pass", ParticipantType: domain.ParticipantIIIT},
		},
		{
			name: "outside participant",
			user: domain.User{Email: "ravi@gmail.com", Password: "s3cret!pass", ParticipantType: domain.ParticipantNonIIIT},
		},
		{
			name: "iiit with outside email",
			user: domain.User{Email: "mira@gmail.com", Password: "s3cret!pass", ParticipantType: domain.ParticipantIIIT},
			want: domain.ErrValidation,
		},
		{
			name: "look-alike domain",
			user: domain.User{Email: "mira@fake-iiit.ac.in", Password: "s3cret!pass", ParticipantType: domain.ParticipantIIIT},
			want: domain.ErrValidation,
		},
		{
			name: "missing participant type",
			user: domain.User{Email: "kiran@gmail.com", Password: "s3cret!pass"},
			want: domain.ErrValidation,
		},
		{
			name: "duplicate email",
			user: domain.User{Email: "RAVI@gmail.com", Password: "other!pass", ParticipantType: domain.ParticipantNonIIIT},
			want: ErrUserEmailExists,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.user.Role = domain.RoleAdmin

			created, err := auth.Signup(context.Background(), tt.user)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.RoleParticipant, created.Role)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.user.Email)), created.Email)
			assert.NotEqual(t, tt.user.Password, created.Password)
		})
	}

	stored, err := users.FindByEmail(context.Background(), "asha@students.iiit.ac.in")
	require.NoError(t, err)
	assert.True(t, stored.Identity().IIIT)
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	auth := newAuth(users)

	created, err := auth.Signup(context.Background(), domain.User{
		Email: "ravi@gmail.com", Password: "s3cret!pass", ParticipantType: domain.ParticipantNonIIIT,
	})
	require.NoError(t, err)

	user, err := auth.Login(context.Background(), "  RAVI@gmail.com", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = auth.Login(context.Background(), "ravi@gmail.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = auth.Login(context.Background(), "nobody@gmail.com", "s3cret!pass")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = users.SetDisabled(context.Background(), created.ID, true)
	require.NoError(t, err)
	_, err = auth.Login(context.Background(), "ravi@gmail.com", "s3cret!pass")
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestSeedAdmin(t *testing.T) {
	users := newFakeUsers()
	auth := newAuth(users)
	conf := &config.AdminConfig{Email: "Admin@iiit.ac.in", Password: "admin!pass", Name: "Fest Admin"}

	require.NoError(t, auth.SeedAdmin(context.Background(), conf))
	require.NoError(t, auth.SeedAdmin(context.Background(), conf))

	admins, err := users.FindByRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@iiit.ac.in", admins[0].Email)

	user, err := auth.Login(context.Background(), "admin@iiit.ac.in", "admin!pass")
	require.NoError(t, err)
	assert.True(t, user.Identity().IsAdmin())

	require.NoError(t, auth.SeedAdmin(context.Background(), &config.AdminConfig{}))
}

func TestOrganizerAdministration(t *testing.T) {
	users := newFakeUsers()
	svc := NewUserService(users)
	admin := domain.Identity{UserID: 100, Role: domain.RoleAdmin}
	participant := domain.Identity{UserID: 101, Role: domain.RoleParticipant}

	_, err := svc.CreateOrganizer(context.Background(), participant, domain.User{Email: "club@iiit.ac.in", Password: "club!pass"})
	assert.ErrorIs(t, err, domain.ErrPermission)

	org, err := svc.CreateOrganizer(context.Background(), admin, domain.User{
		Email: " Club@IIIT.ac.in", Password: "club!pass", Name: "Robotics Club", ParticipantType: domain.ParticipantIIIT,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOrganizer, org.Role)
	assert.Equal(t, "club@iiit.ac.in", org.Email)
	assert.Empty(t, org.ParticipantType)

	orgs, err := svc.ListOrganizers(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	_, err = svc.ListOrganizers(context.Background(), participant)
	assert.ErrorIs(t, err, domain.ErrPermission)

	disabled, err := svc.SetOrganizerDisabled(context.Background(), admin, org.ID, true)
	require.NoError(t, err)
	assert.True(t, disabled.Disabled)

	_, err = svc.GetUser(context.Background(), org.ID)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)

	_, err = svc.SetOrganizerDisabled(context.Background(), admin, org.ID, false)
	require.NoError(t, err)
	got, err := svc.GetUser(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robotics Club", got.Name)

	p, err := users.Create(context.Background(), domain.User{Email: "p@gmail.com", Role: domain.RoleParticipant})
	require.NoError(t, err)
	_, err = svc.SetOrganizerDisabled(context.Background(), admin, p.ID, true)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetUser(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
