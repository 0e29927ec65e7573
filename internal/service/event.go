package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/pkg/search"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var (
	ErrEventNotFound = repository.ErrEventNotFound
	ErrStaleVersion  = repository.ErrStaleVersion
)

// publicStatuses are visible to everyone.
var publicStatuses = []domain.EventStatus{
	domain.EventPublished,
	domain.EventOngoing,
	domain.EventClosed,
	domain.EventCompleted,
}

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
	ReserveStock(ctx context.Context, key string, variantID uint, qty int) error
	ReleaseStock(ctx context.Context, key string) error
}

type Announcer interface {
	Announce(ctx context.Context, ann domain.Announcement) error
}

type EventService struct {
	events    EventRepository
	regs      RegistrationRepository
	announcer Announcer
	timeout   time.Duration
	gate      gate
}

func NewEventService(events EventRepository, regs RegistrationRepository, announcer Announcer, timeout time.Duration) *EventService {
	return &EventService{
		events:    events,
		regs:      regs,
		announcer: announcer,
		timeout:   timeout,
		gate:      gate{regs: regs, now: time.Now},
	}
}

// EventQuery filters the event listing.
type EventQuery struct {
	Query  string
	Type   domain.EventType
	Status domain.EventStatus
	Mine   bool
}

// EventDetails is an event plus what the caller may do with it.
type EventDetails struct {
	Event          domain.Event         `json:"event"`
	ConfirmedCount int64                `json:"confirmed_count"`
	CanRegister    bool                 `json:"can_register"`
	BlockReasons   []domain.BlockReason `json:"block_reasons"`
	Registration   *domain.Registration `json:"registration,omitempty"`
}

func (s *EventService) Create(ctx context.Context, caller domain.Identity, ev domain.Event) (domain.Event, error) {
	if caller.Role != domain.RoleOrganizer {
		return domain.Event{}, domain.ErrOrganizerOnly
	}

	ev.ID = 0
	ev.OrganizerID = caller.UserID
	ev.Status = domain.EventDraft
	if err := ev.Validate(); err != nil {
		return domain.Event{}, err
	}

	created, err := s.events.Create(ctx, ev)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) Update(ctx context.Context, caller domain.Identity, eventID uint, patch domain.EventPatch) (domain.Event, error) {
	ev, err := s.owned(ctx, caller, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	count, err := s.regs.CountAll(ctx, ev.ID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.regs.CountAll -> %w", err)
	}

	next, err := domain.ApplyPatch(ev, patch, count > 0)
	if err != nil {
		return domain.Event{}, err
	}

	updated, err := s.events.Update(ctx, next, patch.Items != nil)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Update -> %w", err)
	}

	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, caller domain.Identity, eventID uint) error {
	ev, err := s.owned(ctx, caller, eventID)
	if err != nil {
		return err
	}
	if err = domain.CanDelete(ev.Status); err != nil {
		return err
	}

	if err = s.events.Delete(ctx, ev.ID); err != nil {
		return fmt.Errorf("s.events.Delete -> %w", err)
	}

	return nil
}

func (s *EventService) Publish(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error) {
	return s.transition(ctx, caller, eventID, domain.TransitionPublish)
}

func (s *EventService) Start(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error) {
	return s.transition(ctx, caller, eventID, domain.TransitionStart)
}

func (s *EventService) Close(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error) {
	return s.transition(ctx, caller, eventID, domain.TransitionClose)
}

func (s *EventService) Complete(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error) {
	return s.transition(ctx, caller, eventID, domain.TransitionComplete)
}

func (s *EventService) transition(ctx context.Context, caller domain.Identity, eventID uint, t domain.Transition) (domain.Event, error) {
	ev, err := s.owned(ctx, caller, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	next, err := domain.NextStatus(ev.Status, t)
	if err != nil {
		return domain.Event{}, err
	}

	if t == domain.TransitionPublish {
		if err = ev.ValidateForPublish(); err != nil {
			return domain.Event{}, err
		}
		if err = s.announce(ctx, ev); err != nil {
			return domain.Event{}, err
		}
	}

	ev.Status = next
	updated, err := s.events.Update(ctx, ev, false)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Update -> %w", err)
	}

	// The event is COMPLETED before its registrations move, so a failed save
	// leaves them untouched. The move only touches REGISTERED rows and is safe to rerun.
	if t == domain.TransitionComplete {
		s.completeRegistrations(ctx, ev.ID)
	}

	zap.L().Info("event transitioned",
		zap.Uint("event_id", ev.ID),
		zap.String("transition", string(t)),
		zap.String("status", string(next)))

	return updated, nil
}

func (s *EventService) completeRegistrations(ctx context.Context, eventID uint) {
	n, err := s.regs.CompleteEvent(ctx, eventID)
	if err != nil {
		zap.L().Error("failed to complete registrations",
			zap.Uint("event_id", eventID),
			zap.Error(err))
		return
	}

	zap.L().Info("registrations completed", zap.Uint("event_id", eventID), zap.Int64("count", n))
}

func (s *EventService) announce(ctx context.Context, ev domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.announcer.Announce(ctx, ev.Announcement()); err != nil {
		zap.L().Warn("publish aborted, announcement failed", zap.Uint("event_id", ev.ID), zap.Error(err))
		return fmt.Errorf("s.announcer.Announce -> %w", asDelivery(err))
	}

	return nil
}

func (s *EventService) List(ctx context.Context, caller domain.Identity, q EventQuery) ([]domain.Event, error) {
	filter := repository.EventFilter{Type: q.Type}

	switch {
	case q.Mine && caller.Role == domain.RoleOrganizer:
		filter.OrganizerID = caller.UserID
		if q.Status != "" {
			filter.Statuses = []domain.EventStatus{q.Status}
		}
	case q.Status == "":
		filter.Statuses = publicStatuses
	case caller.IsAdmin() || slices.Contains(publicStatuses, q.Status):
		filter.Statuses = []domain.EventStatus{q.Status}
	default:
		return nil, domain.Invalid("status", "%s events are not listed publicly", q.Status)
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("s.events.List -> %w", err)
	}

	if q.Query == "" {
		return events, nil
	}

	corpus := make([]search.Document, len(events))
	byID := make(map[uint]domain.Event, len(events))
	for i, ev := range events {
		corpus[i] = search.Document{ID: ev.ID, Title: ev.Name, Tags: ev.Tags, Body: ev.Description}
		byID[ev.ID] = ev
	}

	ranked := make([]domain.Event, 0, len(events))
	for _, id := range search.Rank(q.Query, corpus) {
		ranked = append(ranked, byID[id])
	}

	return ranked, nil
}

// Details hides drafts from everyone but their managers.
func (s *EventService) Details(ctx context.Context, caller domain.Identity, eventID uint) (EventDetails, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return EventDetails{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if ev.Status == domain.EventDraft && !caller.CanManage(ev) {
		return EventDetails{}, ErrEventNotFound
	}

	in, existing, err := s.gate.snapshot(ctx, ev, caller)
	if err != nil {
		return EventDetails{}, err
	}
	reasons := domain.EvaluateAdmission(in)

	return EventDetails{
		Event:          ev,
		ConfirmedCount: in.ConfirmedCount,
		CanRegister:    len(reasons) == 0,
		BlockReasons:   reasons,
		Registration:   existing,
	}, nil
}

// owned loads an event the caller organizes. Admins do not qualify.
func (s *EventService) owned(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !caller.Owns(ev) {
		return domain.Event{}, domain.ErrNotOwner
	}

	return ev, nil
}

func loadManaged(ctx context.Context, events EventRepository, caller domain.Identity, eventID uint) (domain.Event, error) {
	ev, err := events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("events.FindByID -> %w", err)
	}
	if !caller.CanManage(ev) {
		return domain.Event{}, domain.ErrNotOwner
	}

	return ev, nil
}
