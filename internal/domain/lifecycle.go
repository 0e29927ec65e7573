package domain

import (
	"reflect"
	"slices"
	"time"
)

type Transition string

const (
	TransitionPublish  Transition = "publish"
	TransitionStart    Transition = "start"
	TransitionClose    Transition = "close"
	TransitionComplete Transition = "complete"
)

var transitions = map[Transition]struct {
	from []EventStatus
	to   EventStatus
}{
	TransitionPublish:  {from: []EventStatus{EventDraft}, to: EventPublished},
	TransitionStart:    {from: []EventStatus{EventPublished}, to: EventOngoing},
	TransitionClose:    {from: []EventStatus{EventPublished, EventOngoing}, to: EventClosed},
	TransitionComplete: {from: []EventStatus{EventOngoing, EventClosed}, to: EventCompleted},
}

// NextStatus returns the status reached by applying t to an event in from.
func NextStatus(from EventStatus, t Transition) (EventStatus, error) {
	rule, ok := transitions[t]
	if !ok {
		return "", Invalid("transition", "unknown transition %q", t)
	}
	if !slices.Contains(rule.from, from) {
		return "", &TransitionError{Action: string(t), From: from}
	}

	return rule.to, nil
}

// CanDelete reports whether an event in status may be destroyed.
func CanDelete(status EventStatus) error {
	if status != EventDraft {
		return &TransitionError{Action: "delete", From: status}
	}

	return nil
}

// EventPatch is a partial update. Nil fields are left untouched.
type EventPatch struct {
	Name                 *string
	Description          *string
	Type                 *EventType
	Eligibility          *Eligibility
	RegistrationDeadline *time.Time
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationLimit    *int
	Tags                 *[]string
	FormSchema           *FormSchema
	Items                *[]MerchItem
}

// ApplyPatch returns ev with p applied according to the editing rules of
// ev's status. hasRegistrations gates form schema edits on published events.
// Disallowed edits fail with a permission error; the result is re-validated.
func ApplyPatch(ev Event, p EventPatch, hasRegistrations bool) (Event, error) {
	if p.Type != nil && *p.Type != ev.Type {
		return Event{}, ErrTypeImmutable
	}

	switch ev.Status {
	case EventDraft:
		ev = applyAll(ev, p)
	case EventPublished:
		next, err := applyPublished(ev, p, hasRegistrations)
		if err != nil {
			return Event{}, err
		}
		ev = next
	default:
		if field, changed := firstChange(ev, p); changed {
			return Event{}, &FieldLockedError{Field: field, Status: ev.Status}
		}
	}

	if err := ev.Validate(); err != nil {
		return Event{}, err
	}

	return ev, nil
}

func applyAll(ev Event, p EventPatch) Event {
	if p.Name != nil {
		ev.Name = *p.Name
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Eligibility != nil {
		ev.Eligibility = *p.Eligibility
	}
	if p.RegistrationDeadline != nil {
		d := *p.RegistrationDeadline
		ev.RegistrationDeadline = &d
	}
	if p.StartDate != nil {
		ev.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		ev.EndDate = *p.EndDate
	}
	if p.RegistrationLimit != nil {
		ev.RegistrationLimit = *p.RegistrationLimit
	}
	if p.Tags != nil {
		ev.Tags = *p.Tags
	}
	if p.FormSchema != nil {
		ev.FormSchema = *p.FormSchema
	}
	if p.Items != nil {
		ev.Items = *p.Items
	}

	return ev
}

func applyPublished(ev Event, p EventPatch, hasRegistrations bool) (Event, error) {
	locked := func(field string) error {
		return &FieldLockedError{Field: field, Status: ev.Status}
	}

	if p.Name != nil && *p.Name != ev.Name {
		return Event{}, locked("name")
	}
	if p.Eligibility != nil && *p.Eligibility != ev.Eligibility {
		return Event{}, locked("eligibility")
	}
	if p.StartDate != nil && !p.StartDate.Equal(ev.StartDate) {
		return Event{}, locked("start_date")
	}
	if p.EndDate != nil && !p.EndDate.Equal(ev.EndDate) {
		return Event{}, locked("end_date")
	}
	if p.Tags != nil && !slices.Equal(*p.Tags, ev.Tags) {
		return Event{}, locked("tags")
	}
	if p.Items != nil && !reflect.DeepEqual(*p.Items, ev.Items) {
		return Event{}, locked("items")
	}

	if p.RegistrationDeadline != nil {
		// Deadlines may only move later.
		if ev.RegistrationDeadline == nil || p.RegistrationDeadline.Before(*ev.RegistrationDeadline) {
			return Event{}, locked("registration_deadline")
		}
		d := *p.RegistrationDeadline
		ev.RegistrationDeadline = &d
	}

	if p.RegistrationLimit != nil {
		if *p.RegistrationLimit < ev.RegistrationLimit {
			return Event{}, locked("registration_limit")
		}
		ev.RegistrationLimit = *p.RegistrationLimit
	}

	if p.FormSchema != nil && !reflect.DeepEqual(*p.FormSchema, ev.FormSchema) {
		if hasRegistrations {
			return Event{}, locked("custom_form_schema")
		}
		ev.FormSchema = *p.FormSchema
	}

	if p.Description != nil {
		ev.Description = *p.Description
	}

	return ev, nil
}

func firstChange(ev Event, p EventPatch) (string, bool) {
	switch {
	case p.Name != nil && *p.Name != ev.Name:
		return "name", true
	case p.Description != nil && *p.Description != ev.Description:
		return "description", true
	case p.Eligibility != nil && *p.Eligibility != ev.Eligibility:
		return "eligibility", true
	case p.RegistrationDeadline != nil && (ev.RegistrationDeadline == nil || !p.RegistrationDeadline.Equal(*ev.RegistrationDeadline)):
		return "registration_deadline", true
	case p.StartDate != nil && !p.StartDate.Equal(ev.StartDate):
		return "start_date", true
	case p.EndDate != nil && !p.EndDate.Equal(ev.EndDate):
		return "end_date", true
	case p.RegistrationLimit != nil && *p.RegistrationLimit != ev.RegistrationLimit:
		return "registration_limit", true
	case p.Tags != nil && !slices.Equal(*p.Tags, ev.Tags):
		return "tags", true
	case p.FormSchema != nil && !reflect.DeepEqual(*p.FormSchema, ev.FormSchema):
		return "custom_form_schema", true
	case p.Items != nil && !reflect.DeepEqual(*p.Items, ev.Items):
		return "items", true
	}

	return "", false
}
