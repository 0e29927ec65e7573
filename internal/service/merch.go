package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var ErrInsufficientStock = repository.ErrInsufficientStock

// ProofPolicy limits what may be uploaded as a payment proof.
type ProofPolicy struct {
	MimeTypes []string
	MaxBytes  int64
}

func ProofPolicyFromConfig(conf *config.BlobConfig) ProofPolicy {
	return ProofPolicy{
		MimeTypes: conf.ProofMimeTypes,
		MaxBytes:  conf.ProofMaxBytes,
	}
}

func (p ProofPolicy) check(proof domain.BlobUpload) error {
	if len(proof.Data) == 0 {
		return domain.Invalid("proof", "is required")
	}
	if !slices.Contains(p.MimeTypes, strings.ToLower(proof.MimeType)) {
		return domain.Invalid("proof", "type %q is not accepted, use one of %s", proof.MimeType, strings.Join(p.MimeTypes, ", "))
	}
	if int64(len(proof.Data)) > p.MaxBytes {
		return domain.Invalid("proof", "must be at most %d bytes", p.MaxBytes)
	}

	return nil
}

// OrderInput selects a variant and a quantity. Proof is optional on orders
// and ignored on immediate purchases.
type OrderInput struct {
	ItemID    uint
	VariantID uint
	Quantity  int
	Proof     *domain.BlobUpload
}

type ReviewInput struct {
	Decision domain.ReviewDecision
	Comment  string
}

type MerchService struct {
	events   EventRepository
	regs     RegistrationRepository
	blobs    BlobStore
	policy   ProofPolicy
	timeouts Timeouts
	gate     gate
	fulfil   fulfiller
	now      func() time.Time
}

func NewMerchService(
	events EventRepository,
	regs RegistrationRepository,
	users UserLookup,
	blobs BlobStore,
	issuer *TicketIssuer,
	notifier Notifier,
	policy ProofPolicy,
	timeouts Timeouts,
) *MerchService {
	return &MerchService{
		events:   events,
		regs:     regs,
		blobs:    blobs,
		policy:   policy,
		timeouts: timeouts,
		gate:     gate{regs: regs, now: time.Now},
		fulfil:   fulfiller{issuer: issuer, users: users, notifier: notifier, timeout: timeouts.External},
		now:      time.Now,
	}
}

// Purchase reserves stock at submit time and confirms the order immediately.
func (s *MerchService) Purchase(ctx context.Context, caller domain.Identity, eventID uint, in OrderInput) (Admission, error) {
	ev, item, variant, err := s.prepare(ctx, caller, eventID, in)
	if err != nil {
		return Admission{}, err
	}

	sg := newSaga("purchase", s.timeouts.Compensation)

	key := uuid.NewString()
	if err = s.events.ReserveStock(ctx, key, variant.ID, in.Quantity); err != nil {
		return Admission{}, fmt.Errorf("s.events.ReserveStock -> %w", err)
	}
	sg.onRollback("release stock", func(ctx context.Context) error {
		return s.events.ReleaseStock(ctx, key)
	})

	reg, err := s.regs.CreateWithCapacity(ctx, domain.Registration{
		ParticipantID: caller.UserID,
		EventID:       ev.ID,
		Status:        domain.RegistrationRegistered,
		Merch:         domain.NewMerchPurchase(item, variant, in.Quantity, domain.ReserveAtSubmit),
	})
	if err != nil {
		return Admission{}, sg.abort(ctx, fmt.Errorf("s.regs.CreateWithCapacity -> %w", err))
	}
	sg.onRollback("delete registration", func(ctx context.Context) error {
		return s.regs.Delete(ctx, reg.ID)
	})

	ticket, err := s.fulfil.issueAndConfirm(ctx, sg, ev, reg, domain.ConfirmPurchase)
	if err != nil {
		return Admission{}, err
	}

	return Admission{Registration: reg, Ticket: &ticket}, nil
}

// PlaceOrder records an order whose stock is only taken when an organizer
// approves the payment.
func (s *MerchService) PlaceOrder(ctx context.Context, caller domain.Identity, eventID uint, in OrderInput) (domain.Registration, error) {
	ev, item, variant, err := s.prepare(ctx, caller, eventID, in)
	if err != nil {
		return domain.Registration{}, err
	}
	if in.Proof != nil {
		if err = s.policy.check(*in.Proof); err != nil {
			return domain.Registration{}, err
		}
	}

	reg, err := s.regs.CreateWithCapacity(ctx, domain.Registration{
		ParticipantID: caller.UserID,
		EventID:       ev.ID,
		Status:        domain.RegistrationRegistered,
		Merch:         domain.NewMerchPurchase(item, variant, in.Quantity, domain.DeferToApproval),
	})
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.CreateWithCapacity -> %w", err)
	}
	if in.Proof == nil {
		return reg, nil
	}

	sg := newSaga("order", s.timeouts.Compensation)
	sg.onRollback("delete registration", func(ctx context.Context) error {
		return s.regs.Delete(ctx, reg.ID)
	})

	saved, err := s.attachProof(ctx, reg, *in.Proof)
	if err != nil {
		return domain.Registration{}, sg.abort(ctx, err)
	}

	return saved, nil
}

// SubmitProof attaches a payment proof to a pending order and queues it for review.
func (s *MerchService) SubmitProof(ctx context.Context, caller domain.Identity, registrationID uint, proof domain.BlobUpload) (domain.Registration, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}
	if reg.ParticipantID != caller.UserID {
		return domain.Registration{}, domain.ErrNotRecordOwner
	}
	if reg.Merch == nil {
		return domain.Registration{}, domain.Invalid("registration_id", "is not a merchandise order")
	}
	if reg.Merch.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, domain.ErrProofNotAccepted
	}
	if err = s.policy.check(proof); err != nil {
		return domain.Registration{}, err
	}

	return s.attachProof(ctx, reg, proof)
}

// attachProof uploads proof, saves it on reg and then drops the proof it replaced.
func (s *MerchService) attachProof(ctx context.Context, reg domain.Registration, proof domain.BlobUpload) (domain.Registration, error) {
	proof.OwnerID = reg.ParticipantID
	proof.EventID = reg.EventID

	blob, err := s.blobs.Put(ctx, proof)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.blobs.Put -> %w", err)
	}

	previous := reg.Merch.PaymentProofID
	next := reg.Clone()
	next.Merch.PaymentProofID = blob.ID
	next.Merch.PaymentStatus = domain.PaymentPendingApproval

	saved, err := s.regs.Update(ctx, next)
	if err != nil {
		s.dropBlob(ctx, blob.ID)
		return domain.Registration{}, fmt.Errorf("s.regs.Update -> %w", err)
	}

	if previous != "" {
		s.dropBlob(ctx, previous)
	}

	return saved, nil
}

// Review finalizes an order awaiting approval. Approval takes the stock then;
// if it cannot, the order stays as it was.
func (s *MerchService) Review(ctx context.Context, caller domain.Identity, registrationID uint, in ReviewInput) (Admission, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return Admission{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}
	if reg.Merch == nil {
		return Admission{}, domain.Invalid("registration_id", "is not a merchandise order")
	}

	ev, err := loadManaged(ctx, s.events, caller, reg.EventID)
	if err != nil {
		return Admission{}, err
	}
	if reg.Merch.PaymentStatus != domain.PaymentPendingApproval {
		return Admission{}, domain.ErrAlreadyReviewed
	}

	switch in.Decision {
	case domain.ReviewRejected:
		rejected, err := s.reject(ctx, caller, reg, in.Comment)
		if err != nil {
			return Admission{}, err
		}
		return Admission{Registration: rejected}, nil
	case domain.ReviewApproved:
		return s.approve(ctx, caller, ev, reg, in.Comment)
	default:
		return Admission{}, domain.Invalid("decision", "must be APPROVED or REJECTED")
	}
}

func (s *MerchService) reject(ctx context.Context, caller domain.Identity, reg domain.Registration, comment string) (domain.Registration, error) {
	next := reg.Clone()
	s.stampReview(&next, caller, comment, domain.PaymentRejected)
	next.Status = domain.RegistrationRejected

	saved, err := s.regs.Update(ctx, next)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.Update -> %w", err)
	}

	return saved, nil
}

func (s *MerchService) approve(ctx context.Context, caller domain.Identity, ev domain.Event, reg domain.Registration, comment string) (Admission, error) {
	snapshot := reg.Clone()
	m := reg.Merch

	item, variant, err := ev.FindVariant(m.ItemID, m.VariantID)
	if err != nil {
		return Admission{}, err
	}
	if err = domain.CheckQuantity(item, variant, m.Quantity); err != nil {
		return Admission{}, err
	}

	sg := newSaga("approval", s.timeouts.Compensation)

	key := uuid.NewString()
	if err = s.events.ReserveStock(ctx, key, variant.ID, m.Quantity); err != nil {
		return Admission{}, fmt.Errorf("s.events.ReserveStock -> %w", err)
	}
	sg.onRollback("release stock", func(ctx context.Context) error {
		return s.events.ReleaseStock(ctx, key)
	})

	next := reg.Clone()
	s.stampReview(&next, caller, comment, domain.PaymentApproved)

	saved, err := s.regs.Update(ctx, next)
	if err != nil {
		return Admission{}, sg.abort(ctx, fmt.Errorf("s.regs.Update -> %w", err))
	}
	sg.onRollback("restore order", func(ctx context.Context) error {
		restore := snapshot.Clone()
		restore.Version = saved.Version
		_, err := s.regs.Update(ctx, restore)
		return err
	})

	ticket, err := s.fulfil.issueAndConfirm(ctx, sg, ev, saved, domain.ConfirmOrderApproved)
	if err != nil {
		return Admission{}, err
	}

	return Admission{Registration: saved, Ticket: &ticket}, nil
}

func (s *MerchService) stampReview(reg *domain.Registration, caller domain.Identity, comment string, status domain.PaymentStatus) {
	now := s.now().UTC()
	reviewer := caller.UserID

	reg.Merch.PaymentStatus = status
	reg.Merch.ReviewerID = &reviewer
	reg.Merch.ReviewedAt = &now
	reg.Merch.ReviewComment = comment
}

// ListOrders lists an event's orders, optionally narrowed to one payment status.
func (s *MerchService) ListOrders(ctx context.Context, caller domain.Identity, eventID uint, status domain.PaymentStatus) ([]domain.Registration, error) {
	if _, err := loadManaged(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}

	regs, err := s.regs.List(ctx, repository.RegistrationFilter{EventID: eventID, PaymentStatus: status})
	if err != nil {
		return nil, fmt.Errorf("s.regs.List -> %w", err)
	}

	return regs, nil
}

// prepare checks the caller, the event and the requested quantity.
func (s *MerchService) prepare(ctx context.Context, caller domain.Identity, eventID uint, in OrderInput) (domain.Event, domain.MerchItem, domain.MerchVariant, error) {
	var (
		ev      domain.Event
		item    domain.MerchItem
		variant domain.MerchVariant
	)

	if caller.Role != domain.RoleParticipant {
		return ev, item, variant, domain.ErrParticipantOnly
	}

	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return ev, item, variant, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if ev.Type != domain.EventMerchandise {
		return ev, item, variant, domain.Invalid("event_id", "is not a merchandise event")
	}
	if err = s.gate.check(ctx, ev, caller); err != nil {
		return ev, item, variant, err
	}

	item, variant, err = ev.FindVariant(in.ItemID, in.VariantID)
	if err != nil {
		return ev, item, variant, err
	}
	if err = domain.CheckQuantity(item, variant, in.Quantity); err != nil {
		return ev, item, variant, err
	}

	return ev, item, variant, nil
}

// dropBlob deletes a blob on a detached context and only logs failures.
func (s *MerchService) dropBlob(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.Compensation)
	defer cancel()

	if err := s.blobs.Delete(ctx, id); err != nil {
		zap.L().Warn("failed to delete payment proof", zap.String("file_id", id), zap.Error(err))
	}
}
