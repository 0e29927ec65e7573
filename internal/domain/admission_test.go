package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEvent(now time.Time) Event {
	deadline := now.Add(time.Hour)
	return Event{
		ID:                   1,
		OrganizerID:          9,
		Name:                 "Hackathon",
		Type:                 EventNormal,
		Status:               EventPublished,
		Eligibility:          EligibilityAll,
		RegistrationDeadline: &deadline,
		StartDate:            now.Add(2 * time.Hour),
		EndDate:              now.Add(5 * time.Hour),
		RegistrationLimit:    2,
	}
}

func TestCheckAdmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	participant := Identity{UserID: 5, Role: RoleParticipant, IIIT: true}

	tests := []struct {
		name   string
		modify func(in *AdmissionInput)
		want   BlockReason
	}{
		{
			name: "open event admits",
		},
		{
			name:   "draft is not open",
			modify: func(in *AdmissionInput) { in.Event.Status = EventDraft },
			want:   BlockEventNotOpen,
		},
		{
			name:   "closed is not open",
			modify: func(in *AdmissionInput) { in.Event.Status = EventClosed },
			want:   BlockEventNotOpen,
		},
		{
			name:   "deadline passed",
			modify: func(in *AdmissionInput) { in.Now = now.Add(90 * time.Minute) },
			want:   BlockDeadlinePassed,
		},
		{
			name: "IIIT only refuses outsiders",
			modify: func(in *AdmissionInput) {
				in.Event.Eligibility = EligibilityIIITOnly
				in.Caller.IIIT = false
			},
			want: BlockNotEligible,
		},
		{
			name:   "non IIIT only refuses insiders",
			modify: func(in *AdmissionInput) { in.Event.Eligibility = EligibilityNonIIITOnly },
			want:   BlockNotEligible,
		},
		{
			name:   "organizers are never eligible",
			modify: func(in *AdmissionInput) { in.Caller.Role = RoleOrganizer },
			want:   BlockNotEligible,
		},
		{
			name:   "full",
			modify: func(in *AdmissionInput) { in.ConfirmedCount = 2 },
			want:   BlockRegistrationFull,
		},
		{
			name:   "already registered",
			modify: func(in *AdmissionInput) { in.AlreadyRegistered = true },
			want:   BlockAlreadyRegistered,
		},
		{
			name: "merchandise without stock",
			modify: func(in *AdmissionInput) {
				in.Event.Type = EventMerchandise
				in.Event.Items = []MerchItem{{ID: 1, Name: "Tee", PurchaseLimit: 2, Variants: []MerchVariant{{ID: 1, Label: "M"}}}}
			},
			want: BlockStockExhausted,
		},
		{
			name: "fails fast in order",
			modify: func(in *AdmissionInput) {
				in.Event.Status = EventDraft
				in.ConfirmedCount = 5
				in.AlreadyRegistered = true
			},
			want: BlockEventNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := AdmissionInput{Event: openEvent(now), Caller: participant, Now: now}
			if tt.modify != nil {
				tt.modify(&in)
			}

			err := CheckAdmission(in)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}

			var admErr *AdmissionError
			require.ErrorAs(t, err, &admErr)
			assert.Equal(t, tt.want, admErr.Reason)
		})
	}
}

func TestEvaluateAdmissionUnionsReasons(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := AdmissionInput{
		Event:             openEvent(now),
		Caller:            Identity{UserID: 5, Role: RoleParticipant},
		ConfirmedCount:    2,
		AlreadyRegistered: true,
		Now:               now.Add(2 * time.Hour),
	}
	in.Event.Status = EventClosed

	got := EvaluateAdmission(in)

	assert.Equal(t, []BlockReason{
		BlockEventNotOpen,
		BlockDeadlinePassed,
		BlockRegistrationFull,
		BlockAlreadyRegistered,
	}, got)
}

func TestAdmissionErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(&AdmissionError{Reason: BlockNotEligible}, ErrPermission))
	assert.True(t, errors.Is(&AdmissionError{Reason: BlockRegistrationFull}, ErrConflict))
	assert.True(t, errors.Is(&AdmissionError{Reason: BlockAlreadyRegistered}, ErrConflict))
}
