package service

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

type reservation struct {
	variantID uint
	qty       int
}

type fakeEvents struct {
	mu           sync.Mutex
	nextID       uint
	nextChildID  uint
	events       map[uint]domain.Event
	reservations map[string]reservation
	reserveErr   error
	updateErr    error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		events:       map[uint]domain.Event{},
		reservations: map[string]reservation{},
	}
}

func (f *fakeEvents) Create(_ context.Context, ev domain.Event) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	ev.ID = f.nextID
	ev.Version = 1
	ev.Items = f.assignItemIDs(ev.Items)
	f.events[ev.ID] = cloneEvent(ev)

	return cloneEvent(ev), nil
}

func (f *fakeEvents) assignItemIDs(items []domain.MerchItem) []domain.MerchItem {
	out := make([]domain.MerchItem, len(items))
	for i, item := range items {
		if item.ID == 0 {
			f.nextChildID++
			item.ID = f.nextChildID
		}
		variants := make([]domain.MerchVariant, len(item.Variants))
		for j, v := range item.Variants {
			if v.ID == 0 {
				f.nextChildID++
				v.ID = f.nextChildID
			}
			v.ItemID = item.ID
			variants[j] = v
		}
		item.Variants = variants
		out[i] = item
	}

	return out
}

func (f *fakeEvents) FindByID(_ context.Context, id uint) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return cloneEvent(ev), nil
}

func (f *fakeEvents) List(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Event
	for _, ev := range f.events {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, ev.Status) {
			continue
		}
		if filter.Type != "" && ev.Type != filter.Type {
			continue
		}
		if filter.OrganizerID != 0 && ev.OrganizerID != filter.OrganizerID {
			continue
		}
		out = append(out, cloneEvent(ev))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeEvents) Update(_ context.Context, ev domain.Event, replaceItems bool) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.Event{}, f.updateErr
	}

	current, ok := f.events[ev.ID]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	if current.Version != ev.Version {
		return domain.Event{}, repository.ErrStaleVersion
	}

	if replaceItems {
		ev.Items = f.assignItemIDs(ev.Items)
	} else {
		ev.Items = current.Items
	}
	ev.Version++
	f.events[ev.ID] = cloneEvent(ev)

	return cloneEvent(ev), nil
}

func (f *fakeEvents) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.events, id)

	return nil
}

func (f *fakeEvents) ReserveStock(_ context.Context, key string, variantID uint, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reserveErr != nil {
		return f.reserveErr
	}

	return f.adjust(variantID, func(v *domain.MerchVariant) error {
		if v.StockQty < qty {
			return repository.ErrInsufficientStock
		}
		v.StockQty -= qty
		f.reservations[key] = reservation{variantID: variantID, qty: qty}
		return nil
	})
}

func (f *fakeEvents) ReleaseStock(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reservations[key]
	if !ok {
		return nil
	}
	delete(f.reservations, key)

	return f.adjust(r.variantID, func(v *domain.MerchVariant) error {
		v.StockQty += r.qty
		return nil
	})
}

func (f *fakeEvents) adjust(variantID uint, fn func(v *domain.MerchVariant) error) error {
	for id, ev := range f.events {
		for i := range ev.Items {
			for j := range ev.Items[i].Variants {
				if ev.Items[i].Variants[j].ID != variantID {
					continue
				}
				if err := fn(&ev.Items[i].Variants[j]); err != nil {
					return err
				}
				f.events[id] = ev
				return nil
			}
		}
	}

	return domain.ErrVariantNotFound
}

func (f *fakeEvents) stock(t *testing.T, eventID uint) int {
	t.Helper()

	ev, err := f.FindByID(context.Background(), eventID)
	require.NoError(t, err)

	return ev.Items[0].Variants[0].StockQty
}

func cloneEvent(ev domain.Event) domain.Event {
	items := make([]domain.MerchItem, len(ev.Items))
	for i, item := range ev.Items {
		item.Variants = slices.Clone(item.Variants)
		items[i] = item
	}
	ev.Items = items
	ev.Tags = slices.Clone(ev.Tags)

	return ev
}

type fakeRegs struct {
	mu        sync.Mutex
	nextID    uint
	events    *fakeEvents
	regs      map[uint]domain.Registration
	createErr error
	updateErr func(reg domain.Registration) error
}

func newFakeRegs(events *fakeEvents) *fakeRegs {
	return &fakeRegs{
		events: events,
		regs:   map[uint]domain.Registration{},
	}
}

func (f *fakeRegs) CreateWithCapacity(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	ev, err := f.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Registration{}, f.createErr
	}
	if f.confirmed(reg.EventID) >= int64(ev.RegistrationLimit) {
		return domain.Registration{}, repository.ErrRegistrationFull
	}
	for _, r := range f.regs {
		if r.EventID == reg.EventID && r.ParticipantID == reg.ParticipantID {
			return domain.Registration{}, repository.ErrAlreadyRegistered
		}
	}

	f.nextID++
	reg.ID = f.nextID
	reg.Version = 1
	reg.CreatedAt = time.Now().UTC()
	f.regs[reg.ID] = reg.Clone()

	return reg.Clone(), nil
}

func (f *fakeRegs) FindByID(_ context.Context, id uint) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}

	return reg.Clone(), nil
}

func (f *fakeRegs) FindByParticipant(_ context.Context, eventID, participantID uint) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.regs {
		if r.EventID == eventID && r.ParticipantID == participantID {
			return r.Clone(), nil
		}
	}

	return domain.Registration{}, repository.ErrRegistrationNotFound
}

func (f *fakeRegs) List(_ context.Context, filter repository.RegistrationFilter) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Registration
	for _, r := range f.regs {
		if filter.EventID != 0 && r.EventID != filter.EventID {
			continue
		}
		if filter.ParticipantID != 0 && r.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.PaymentStatus != "" && (r.Merch == nil || r.Merch.PaymentStatus != filter.PaymentStatus) {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeRegs) confirmed(eventID uint) int64 {
	var n int64
	for _, r := range f.regs {
		if r.EventID == eventID && r.IsConfirmed() {
			n++
		}
	}

	return n
}

func (f *fakeRegs) CountConfirmed(_ context.Context, eventID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.confirmed(eventID), nil
}

func (f *fakeRegs) CountAll(_ context.Context, eventID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, r := range f.regs {
		if r.EventID == eventID {
			n++
		}
	}

	return n, nil
}

func (f *fakeRegs) CountAttended(_ context.Context, eventID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, r := range f.regs {
		if r.EventID == eventID && r.IsConfirmed() && r.Attended {
			n++
		}
	}

	return n, nil
}

func (f *fakeRegs) Update(_ context.Context, reg domain.Registration) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		if err := f.updateErr(reg); err != nil {
			return domain.Registration{}, err
		}
	}

	current, ok := f.regs[reg.ID]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if current.Version != reg.Version {
		return domain.Registration{}, repository.ErrStaleVersion
	}

	reg.Version++
	reg.UpdatedAt = time.Now().UTC()
	f.regs[reg.ID] = reg.Clone()

	return reg.Clone(), nil
}

func (f *fakeRegs) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.regs, id)

	return nil
}

func (f *fakeRegs) MarkAttended(_ context.Context, id, by uint, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[id]
	if !ok || reg.Attended {
		return false, nil
	}
	reg.Attended = true
	reg.AttendedAt = &at
	reg.AttendedBy = &by
	reg.Version++
	f.regs[id] = reg

	return true, nil
}

func (f *fakeRegs) SetAttendance(_ context.Context, id uint, mark domain.AttendanceMark) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[id]
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	reg.Attended = mark.Attended
	reg.AttendedAt = mark.AttendedAt
	reg.AttendedBy = mark.AttendedBy
	reg.Version++
	f.regs[id] = reg

	return nil
}

func (f *fakeRegs) CompleteEvent(_ context.Context, eventID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, r := range f.regs {
		if r.EventID == eventID && r.Status == domain.RegistrationRegistered {
			r.Status = domain.RegistrationCompleted
			r.Version++
			f.regs[id] = r
			n++
		}
	}

	return n, nil
}

func (f *fakeRegs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.regs)
}

type fakeTickets struct {
	mu        sync.Mutex
	tickets   map[string]domain.Ticket
	taken     map[string]bool
	createErr error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		tickets: map[string]domain.Ticket{},
		taken:   map[string]bool{},
	}
}

func (f *fakeTickets) Create(_ context.Context, t domain.Ticket) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Ticket{}, f.createErr
	}
	if _, ok := f.tickets[t.TicketID]; ok || f.taken[t.TicketID] {
		return domain.Ticket{}, repository.ErrTicketIDTaken
	}
	for _, existing := range f.tickets {
		if existing.RegistrationID == t.RegistrationID {
			return domain.Ticket{}, repository.ErrTicketExists
		}
	}

	t.CreatedAt = time.Now().UTC()
	f.tickets[t.TicketID] = t

	return t, nil
}

func (f *fakeTickets) ExistsTicketID(_ context.Context, ticketID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.tickets[ticketID]

	return ok || f.taken[ticketID], nil
}

func (f *fakeTickets) FindByTicketID(_ context.Context, ticketID string) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, repository.ErrTicketNotFound
	}

	return t, nil
}

func (f *fakeTickets) FindByRegistrationID(_ context.Context, registrationID uint) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.RegistrationID == registrationID {
			return t, nil
		}
	}

	return domain.Ticket{}, repository.ErrTicketNotFound
}

func (f *fakeTickets) Delete(_ context.Context, ticketID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.tickets, ticketID)

	return nil
}

func (f *fakeTickets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.tickets)
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (f *fakeAudit) Append(_ context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry.ID = uint(len(f.entries) + 1)
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, entry)

	return entry, nil
}

func (f *fakeAudit) ListRecent(_ context.Context, eventID uint, limit int) ([]domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.AuditLog
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].EventID == eventID {
			out = append(out, f.entries[i])
		}
	}

	return out, nil
}

func (f *fakeAudit) actions() []domain.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.AuditAction, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}

	return out
}

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: map[uint]domain.User{},
	}
}

func (f *fakeUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrUserEmailExists
		}
	}

	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user

	return user, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}

	return domain.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) FindByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeUsers) SetDisabled(_ context.Context, id uint, disabled bool) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	u.Disabled = disabled
	f.users[id] = u

	return u, nil
}

type storedBlob struct {
	blob domain.Blob
	data []byte
}

type fakeBlobs struct {
	mu     sync.Mutex
	nextID int
	blobs  map[string]storedBlob
	putErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		blobs: map[string]storedBlob{},
	}
}

func (f *fakeBlobs) Put(_ context.Context, in domain.BlobUpload) (domain.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return domain.Blob{}, f.putErr
	}

	f.nextID++
	b := domain.Blob{
		ID:       "blob-" + strconv.Itoa(f.nextID),
		Name:     in.Name,
		MimeType: in.MimeType,
		Size:     int64(len(in.Data)),
		OwnerID:  in.OwnerID,
		EventID:  in.EventID,
	}
	f.blobs[b.ID] = storedBlob{blob: b, data: in.Data}

	return b, nil
}

func (f *fakeBlobs) Stat(_ context.Context, id string) (domain.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.blobs[id]
	if !ok {
		return domain.Blob{}, domain.ErrBlobNotFound
	}

	return s.blob, nil
}

func (f *fakeBlobs) Get(_ context.Context, id string) (domain.Blob, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.blobs[id]
	if !ok {
		return domain.Blob{}, nil, domain.ErrBlobNotFound
	}

	return s.blob, s.data, nil
}

func (f *fakeBlobs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.blobs, id)

	return nil
}

func (f *fakeBlobs) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.blobs))
	for id := range f.blobs {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Confirm(ctx context.Context, c domain.Confirmation) error {
	return m.Called(ctx, c).Error(0)
}

type mockAnnouncer struct {
	mock.Mock
}

func (m *mockAnnouncer) Announce(ctx context.Context, ann domain.Announcement) error {
	return m.Called(ctx, ann).Error(0)
}

// fixture wires every service over in-memory stores.
type fixture struct {
	events    *fakeEvents
	regs      *fakeRegs
	tickets   *fakeTickets
	audit     *fakeAudit
	users     *fakeUsers
	blobs     *fakeBlobs
	notifier  *mockNotifier
	announcer *mockAnnouncer

	issuer     *TicketIssuer
	eventSvc   *EventService
	regSvc     *RegistrationService
	merchSvc   *MerchService
	attendance *AttendanceService

	organizer domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		events:    newFakeEvents(),
		tickets:   newFakeTickets(),
		audit:     &fakeAudit{},
		users:     newFakeUsers(),
		blobs:     newFakeBlobs(),
		notifier:  &mockNotifier{},
		announcer: &mockAnnouncer{},
	}
	f.regs = newFakeRegs(f.events)

	timeouts := Timeouts{External: time.Second, Compensation: time.Second}
	policy := ProofPolicy{MimeTypes: []string{"image/png", "application/pdf"}, MaxBytes: 1024}

	f.issuer = NewTicketIssuer(f.tickets, &config.TicketConfig{MaxAttempts: 5, QRSize: 128})
	f.eventSvc = NewEventService(f.events, f.regs, f.announcer, time.Second)
	f.regSvc = NewRegistrationService(f.events, f.regs, f.tickets, f.users, f.blobs, f.issuer, f.notifier, timeouts)
	f.merchSvc = NewMerchService(f.events, f.regs, f.users, f.blobs, f.issuer, f.notifier, policy, timeouts)
	f.attendance = NewAttendanceService(f.events, f.regs, f.tickets, f.audit)

	f.organizer = f.addUser(t, domain.User{Email: "org@iiit.ac.in", Name: "Org", Role: domain.RoleOrganizer})

	return f
}

func (f *fixture) addUser(t *testing.T, u domain.User) domain.User {
	t.Helper()

	created, err := f.users.Create(context.Background(), u)
	require.NoError(t, err)

	return created
}

func (f *fixture) participant(t *testing.T, name string, iiit bool) domain.Identity {
	t.Helper()

	pt := domain.ParticipantNonIIIT
	if iiit {
		pt = domain.ParticipantIIIT
	}

	return f.addUser(t, domain.User{
		Email:           name + "@example.com",
		Name:            name,
		Role:            domain.RoleParticipant,
		ParticipantType: pt,
	}).Identity()
}

// publishedEvent stores ev as PUBLISHED with dates around now.
func (f *fixture) publishedEvent(t *testing.T, ev domain.Event) domain.Event {
	t.Helper()

	now := time.Now()
	deadline := now.Add(time.Hour)
	if ev.Name == "" {
		ev.Name = "Hackathon"
	}
	if ev.Type == "" {
		ev.Type = domain.EventNormal
	}
	if ev.Eligibility == "" {
		ev.Eligibility = domain.EligibilityAll
	}
	if ev.RegistrationLimit == 0 {
		ev.RegistrationLimit = 10
	}
	ev.OrganizerID = f.organizer.ID
	ev.Status = domain.EventPublished
	ev.RegistrationDeadline = &deadline
	ev.StartDate = now.Add(2 * time.Hour)
	ev.EndDate = now.Add(4 * time.Hour)

	created, err := f.events.Create(context.Background(), ev)
	require.NoError(t, err)

	return created
}

// merchEvent is a published merchandise event with one item and one variant.
func (f *fixture) merchEvent(t *testing.T, stock, limit int) domain.Event {
	t.Helper()

	return f.publishedEvent(t, domain.Event{
		Name: "Fest Tee",
		Type: domain.EventMerchandise,
		Items: []domain.MerchItem{{
			Name:          "T-Shirt",
			PurchaseLimit: limit,
			Variants:      []domain.MerchVariant{{Label: "M", StockQty: stock, Price: 49900}},
		}},
	})
}

func (f *fixture) organizerIdentity() domain.Identity {
	return f.organizer.Identity()
}

func (f *fixture) confirmOK() {
	f.notifier.On("Confirm", mock.Anything, mock.Anything).Return(nil)
}
