package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"clinicflow/internal/domain/entity"
	"clinicflow/internal/domain/repository"
	"clinicflow/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var (
	adminIdentity = entity.Identity{UserID: uuid.New(), Role: entity.RoleAdmin, DisplayName: "Admin"}
	errDBDown     = errors.New("connection refused")
)

func patientIdentity(p entity.Patient) entity.Identity {
	return entity.Identity{UserID: uuid.New(), Role: entity.RolePatient, DisplayName: p.Name, Contact: p.Email}
}

// fakeClock hands out strictly increasing timestamps
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// =============================================================================
// Directories
// =============================================================================

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]entity.Patient
	err      error
}

func newMockPatientRepo(patients ...entity.Patient) *mockPatientRepo {
	m := &mockPatientRepo{patients: make(map[uuid.UUID]entity.Patient)}
	for _, p := range patients {
		m.patients[p.ID] = p
	}
	return m
}

func (m *mockPatientRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPatientRepo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.patients)), nil
}

func (m *mockPatientRepo) all() []entity.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]entity.Doctor
}

func newMockDoctorRepo(doctors ...entity.Doctor) *mockDoctorRepo {
	m := &mockDoctorRepo{doctors: make(map[uuid.UUID]entity.Doctor)}
	for _, d := range doctors {
		m.doctors[d.ID] = d
	}
	return m
}

func (m *mockDoctorRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *mockDoctorRepo) FindAvailable(ctx context.Context, db *gorm.DB) ([]entity.Doctor, error) {
	var out []entity.Doctor
	for _, d := range m.doctors {
		if d.Available {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// Appointments
// =============================================================================

// mockAppointmentRepo checks and inserts in separate critical sections, so
// without a slot locker concurrent bookers could both pass the check.
type mockAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]entity.Appointment
	patients     *mockPatientRepo
	doctors      *mockDoctorRepo
	clock        *fakeClock
	createErr    error
	updateCalls  int
}

func newMockAppointmentRepo(patients *mockPatientRepo, doctors *mockDoctorRepo) *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appointments: make(map[uuid.UUID]entity.Appointment),
		patients:     patients,
		doctors:      doctors,
		clock:        newFakeClock(),
	}
}

func (m *mockAppointmentRepo) slotTaken(slot entity.Slot, except uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID != except && a.IsActive() && a.Slot() == slot {
			return true
		}
	}
	return false
}

func (m *mockAppointmentRepo) CreateInFreeSlot(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.slotTaken(appointment.Slot(), uuid.Nil) {
		return repository.ErrSlotTaken
	}
	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	appointment.ID = uuid.New()
	appointment.CreatedAt = m.clock.Next()
	appointment.UpdatedAt = appointment.CreatedAt
	m.appointments[appointment.ID] = *appointment
	return nil
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	m.mu.Lock()
	a, ok := m.appointments[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	m.join(&a)
	return &a, nil
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error) {
	m.mu.Lock()
	m.updateCalls++
	a, ok := m.appointments[id]
	m.mu.Unlock()
	if !ok {
		return 0, nil
	}

	a.Status = status
	if a.IsActive() && m.slotTaken(a.Slot(), id) {
		return 0, repository.ErrSlotTaken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a.UpdatedAt = m.clock.Next()
	m.appointments[id] = a
	return 1, nil
}

func (m *mockAppointmentRepo) FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	return m.find(func(a entity.Appointment) bool { return true }, filter), nil
}

func (m *mockAppointmentRepo) FindByPatientContact(ctx context.Context, db *gorm.DB, contact string, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	return m.find(func(a entity.Appointment) bool { return a.Patient.Email == contact }, filter), nil
}

func (m *mockAppointmentRepo) find(scope func(entity.Appointment) bool, filter entity.AppointmentFilter) []entity.Appointment {
	m.mu.Lock()
	all := make([]entity.Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		all = append(all, a)
	}
	m.mu.Unlock()

	out := []entity.Appointment{}
	for _, a := range all {
		m.join(&a)
		if !scope(a) || !matchesAppointmentFilter(a, filter) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ki := out[i].Slot().Date + out[i].Slot().Time
		kj := out[j].Slot().Date + out[j].Slot().Time
		return ki > kj
	})
	return out
}

func (m *mockAppointmentRepo) join(a *entity.Appointment) {
	if p, _ := m.patients.FindByID(context.Background(), nil, a.PatientID); p != nil {
		a.Patient = *p
	}
	if d, _ := m.doctors.FindByID(context.Background(), nil, a.DoctorID); d != nil {
		a.Doctor = *d
	}
}

func matchesAppointmentFilter(a entity.Appointment, f entity.AppointmentFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Patient.Name), q) &&
			!strings.Contains(strings.ToLower(a.Patient.PatientCode), q) &&
			!strings.Contains(strings.ToLower(a.Doctor.Name), q) {
			return false
		}
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.Date != nil && a.AppointmentDate.Format(entity.DateLayout) != f.Date.Format(entity.DateLayout) {
		return false
	}
	return true
}

// =============================================================================
// Tracking
// =============================================================================

type mockTrackingRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]entity.Tracking
	patients *mockPatientRepo
	clock    *fakeClock
	err      error
}

func newMockTrackingRepo(patients *mockPatientRepo) *mockTrackingRepo {
	return &mockTrackingRepo{
		rows:     make(map[uuid.UUID]entity.Tracking),
		patients: patients,
		clock:    newFakeClock(),
	}
}

func (m *mockTrackingRepo) Upsert(ctx context.Context, db *gorm.DB, patientID uuid.UUID, status entity.TrackingStatus, location string) (*entity.Tracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	row, ok := m.rows[patientID]
	if !ok {
		row = entity.Tracking{ID: uuid.New(), PatientID: patientID, Location: entity.DefaultCheckInLocation}
		row.CreatedAt = m.clock.Next()
	}
	row.Status = status
	if location != "" {
		row.Location = location
	}
	row.UpdatedAt = m.clock.Next()
	m.rows[patientID] = row
	return &row, nil
}

func (m *mockTrackingRepo) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*entity.Tracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[patientID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *mockTrackingRepo) FindStates(ctx context.Context, db *gorm.DB, filter entity.TrackingFilter) ([]entity.PatientFlowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	states := []entity.PatientFlowState{}
	for _, p := range m.patients.all() {
		s := entity.PatientFlowState{PatientID: p.ID, PatientCode: p.PatientCode, Name: p.Name, Contact: p.Contact}
		if row, ok := m.rows[p.ID]; ok {
			status, location, updated := row.Status, row.Location, row.UpdatedAt
			s.Status, s.Location, s.UpdatedAt = &status, &location, &updated
		}
		if filter.Matches(s) {
			states = append(states, s)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i], states[j]
		switch {
		case a.UpdatedAt != nil && b.UpdatedAt != nil:
			return a.UpdatedAt.After(*b.UpdatedAt)
		case a.UpdatedAt != nil:
			return true
		case b.UpdatedAt != nil:
			return false
		}
		return a.Name < b.Name
	})
	return states, nil
}

func (m *mockTrackingRepo) CountByStatus(ctx context.Context, db *gorm.DB) (map[entity.TrackingStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	counts := make(map[entity.TrackingStatus]int64)
	for _, row := range m.rows {
		counts[row.Status]++
	}
	return counts, nil
}

// =============================================================================
// Audit and events
// =============================================================================

type mockAuditLogRepo struct {
	mu     sync.Mutex
	logs   []entity.AuditLog
	nextID int64
	err    error
}

func (m *mockAuditLogRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	log.ID = m.nextID
	log.CreatedAt = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Second)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) FindAll(ctx context.Context, db *gorm.DB, limit int) ([]entity.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.AuditLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *mockAuditLogRepo) FindByEntity(ctx context.Context, db *gorm.DB, entityName, entityID string) ([]entity.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.AuditLog{}
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Entity == entityName && m.logs[i].EntityID == entityID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *mockAuditLogRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.Action
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.FlowEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event entity.FlowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// busyLocker never grants the lock
type busyLocker struct{}

func (busyLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return service.ErrLockNotAcquired
}

// erringLocker fails every acquisition with err
type erringLocker struct{ err error }

func (l erringLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return l.err
}
