package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"clinicflow/internal/domain/entity"
	domainRepo "clinicflow/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB returns a gorm handle that builds SQL without contacting a server
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestTrackingFilterScope(t *testing.T) {
	db := dryRunDB(t)
	waiting := entity.TrackingStatusWaiting

	tests := []struct {
		name     string
		filter   entity.TrackingFilter
		contains []string
		absent   []string
		vars     int
	}{
		{
			name:   "empty filter adds no predicate",
			filter: entity.TrackingFilter{},
			absent: []string{"WHERE"},
		},
		{
			name:     "query and status are combined with AND",
			filter:   entity.TrackingFilter{Query: "Jane", Status: &waiting},
			contains: []string{"patients.name ILIKE $1 OR patients.patient_code ILIKE $2", "AND tracking.status = $3"},
			vars:     3,
		},
		{
			name:     "location is exact",
			filter:   entity.TrackingFilter{Location: "Lab"},
			contains: []string{"tracking.location = $1"},
			absent:   []string{"ILIKE"},
			vars:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var states []entity.PatientFlowState
			stmt := db.Scopes(flowStateQuery, trackingFilterScope(tt.filter)).
				Order("tracking.updated_at DESC NULLS LAST, patients.name ASC").
				Find(&states).Statement
			sql := stmt.SQL.String()

			if !strings.Contains(sql, "LEFT JOIN tracking ON tracking.patient_id = patients.id") {
				t.Errorf("missing left join in %q", sql)
			}
			if !strings.Contains(sql, "NULLS LAST") {
				t.Errorf("missing nulls-last ordering in %q", sql)
			}
			for _, want := range tt.contains {
				if !strings.Contains(sql, want) {
					t.Errorf("expected %q in %q", want, sql)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(sql, unwanted) {
					t.Errorf("did not expect %q in %q", unwanted, sql)
				}
			}
			if len(stmt.Vars) != tt.vars {
				t.Errorf("expected %d vars, got %d (%v)", tt.vars, len(stmt.Vars), stmt.Vars)
			}
		})
	}
}

func TestAppointmentFilterScope(t *testing.T) {
	db := dryRunDB(t)
	cancelled := entity.AppointmentStatusCancelled
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var appointments []entity.Appointment
	stmt := db.Model(&entity.Appointment{}).
		Scopes(appointmentFilterScope(entity.AppointmentFilter{Query: "50%", Status: &cancelled, Date: &day})).
		Find(&appointments).Statement
	sql := stmt.SQL.String()

	for _, want := range []string{
		"JOIN patients ON patients.id = appointments.patient_id",
		"JOIN doctors ON doctors.id = appointments.doctor_id",
		"doctors.name ILIKE $3",
		"appointments.status = $4",
		"appointments.appointment_date = $5",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in %q", want, sql)
		}
	}
	if got := stmt.Vars[0]; got != `%50\%%` {
		t.Errorf("expected escaped pattern, got %v", got)
	}
	if got := stmt.Vars[4]; got != "2024-06-01" {
		t.Errorf("expected calendar date var, got %v", got)
	}
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"jane":   "%jane%",
		"a_b":    `%a\_b%`,
		`c:\tmp`: `%c:\\tmp%`,
	}
	for in, want := range tests {
		if got := containsPattern(in); got != want {
			t.Errorf("containsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

type countingDoctorRepository struct {
	doctors map[uuid.UUID]entity.Doctor
	calls   int
}

func (m *countingDoctorRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	m.calls++
	d, ok := m.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *countingDoctorRepository) FindAvailable(ctx context.Context, db *gorm.DB) ([]entity.Doctor, error) {
	m.calls++
	var out []entity.Doctor
	for _, d := range m.doctors {
		if d.Available {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestCachedDoctorRepositoryListing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	next := &countingDoctorRepository{doctors: map[uuid.UUID]entity.Doctor{
		id: {ID: id, Name: "Dr. House", Specialty: "Diagnostics", Available: true},
	}}
	repo := NewCachedDoctorRepository(next, time.Minute)

	for i := 0; i < 3; i++ {
		doctors, err := repo.FindAvailable(ctx, nil)
		if err != nil || len(doctors) != 1 || doctors[0].Name != "Dr. House" {
			t.Fatalf("unexpected listing %+v, %v", doctors, err)
		}
		doctors[0].Name = "mutated"
	}
	if next.calls != 1 {
		t.Errorf("expected 1 backing listing, got %d", next.calls)
	}
}

func TestCachedDoctorRepositoryListingExpires(t *testing.T) {
	ctx := context.Background()
	next := &countingDoctorRepository{doctors: map[uuid.UUID]entity.Doctor{}}
	repo := NewCachedDoctorRepository(next, 20*time.Millisecond)

	if _, err := repo.FindAvailable(ctx, nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := repo.FindAvailable(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Errorf("expected the listing to be reloaded after ttl, got %d backing calls", next.calls)
	}
}

func TestCachedDoctorRepositoryLookupSeesAvailabilityChange(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	next := &countingDoctorRepository{doctors: map[uuid.UUID]entity.Doctor{
		id: {ID: id, Name: "Dr. Grey", Available: true},
	}}
	repo := NewCachedDoctorRepository(next, time.Hour)

	if _, err := repo.FindAvailable(ctx, nil); err != nil {
		t.Fatal(err)
	}
	d, err := repo.FindByID(ctx, nil, id)
	if err != nil || d == nil || !d.Available {
		t.Fatalf("unexpected lookup result %+v, %v", d, err)
	}

	away := next.doctors[id]
	away.Available = false
	next.doctors[id] = away

	d, err = repo.FindByID(ctx, nil, id)
	if err != nil || d == nil {
		t.Fatalf("unexpected lookup result %+v, %v", d, err)
	}
	if d.Available {
		t.Error("lookup by id must reflect the directory, not a cached copy")
	}

	missing, err := repo.FindByID(ctx, nil, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected miss, got %+v, %v", missing, err)
	}
}

func TestMapAppointmentWriteError(t *testing.T) {
	wrap := func(code, constraint string) error {
		return fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"active slot taken", wrap(pgerrcode.UniqueViolation, activeSlotIndex), domainRepo.ErrSlotTaken},
		{"unknown patient", wrap(pgerrcode.ForeignKeyViolation, appointmentPatientFK), domainRepo.ErrUnknownPatient},
		{"unknown doctor", wrap(pgerrcode.ForeignKeyViolation, appointmentDoctorFK), domainRepo.ErrUnknownDoctor},
		{"other unique index", wrap(pgerrcode.UniqueViolation, "appointments_pkey"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapAppointmentWriteError(tt.err)
			if tt.want == nil {
				if got != tt.err {
					t.Errorf("expected the original error, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if mapAppointmentWriteError(nil) != nil {
		t.Error("nil must stay nil")
	}
}

type recordedStatement struct {
	sql  string
	vars []interface{}
}

// recordStatements captures every statement built on db, in execution order
func recordStatements(t *testing.T, db *gorm.DB) *[]recordedStatement {
	t.Helper()
	var recorded []recordedStatement
	record := func(tx *gorm.DB) {
		recorded = append(recorded, recordedStatement{
			sql:  tx.Statement.SQL.String(),
			vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	cb := db.Callback()
	for _, err := range []error{
		cb.Raw().After("gorm:raw").Register("test:record_raw", record),
		cb.Query().After("gorm:query").Register("test:record_query", record),
		cb.Create().After("gorm:create").Register("test:record_create", record),
	} {
		if err != nil {
			t.Fatalf("register callback: %v", err)
		}
	}
	return &recorded
}

func TestInsertIfSlotFreeLocksCountsThenInserts(t *testing.T) {
	db := dryRunDB(t)
	recorded := recordStatements(t, db)

	appointment := &entity.Appointment{
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		AppointmentDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "09:00",
		Status:          entity.AppointmentStatusScheduled,
	}
	if err := insertIfSlotFree(db, appointment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stmts := *recorded
	if len(stmts) != 3 {
		t.Fatalf("expected lock, count and insert statements, got %d: %+v", len(stmts), stmts)
	}

	lock := stmts[0]
	if !strings.Contains(lock.sql, "pg_advisory_xact_lock(hashtext($1))") {
		t.Errorf("first statement must take the slot lock, got %q", lock.sql)
	}
	if len(lock.vars) != 1 || lock.vars[0] != appointment.Slot().Key() {
		t.Errorf("lock must be keyed by the slot, got %v", lock.vars)
	}

	count := stmts[1]
	for _, want := range []string{
		`SELECT count(*) FROM "appointments"`,
		"doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3 AND status <> $4",
	} {
		if !strings.Contains(count.sql, want) {
			t.Errorf("count statement %q missing %q", count.sql, want)
		}
	}
	if len(count.vars) != 4 || count.vars[3] != entity.AppointmentStatusCancelled {
		t.Errorf("cancelled appointments must not occupy the slot, got vars %v", count.vars)
	}

	insert := stmts[2]
	if !strings.HasPrefix(insert.sql, `INSERT INTO "appointments"`) {
		t.Errorf("last statement must insert the appointment, got %q", insert.sql)
	}
	if strings.Contains(insert.sql, `"patients"`) || strings.Contains(insert.sql, `"doctors"`) {
		t.Errorf("associations must not be written, got %q", insert.sql)
	}
}

func TestTrackingUpsertStatement(t *testing.T) {
	tests := []struct {
		name         string
		location     string
		wantLocation string
		setsLocation bool
	}{
		{name: "status change keeps location", location: "", wantLocation: entity.DefaultCheckInLocation},
		{name: "explicit location is overwritten", location: "Lab", wantLocation: "Lab", setsLocation: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := dryRunDB(t)
			recorded := recordStatements(t, db)

			row, err := NewTrackingRepository().Upsert(context.Background(), db, uuid.New(), entity.TrackingStatusWaiting, tt.location)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if row.Location != tt.wantLocation {
				t.Errorf("inserted location = %q, want %q", row.Location, tt.wantLocation)
			}

			stmts := *recorded
			if len(stmts) != 1 {
				t.Fatalf("expected a single statement, got %d", len(stmts))
			}
			sql := stmts[0].sql

			idx := strings.Index(sql, "ON CONFLICT")
			if idx < 0 {
				t.Fatalf("upsert must be one INSERT ... ON CONFLICT statement, got %q", sql)
			}
			insert, update := sql[:idx], sql[idx:]

			if !strings.HasPrefix(insert, `INSERT INTO "tracking" ("patient_id","status","location") VALUES`) {
				t.Errorf("unexpected insert columns in %q", insert)
			}
			if strings.Contains(insert, "updated_at") || strings.Contains(insert, "created_at") {
				t.Errorf("timestamps must come from the database default on insert, got %q", insert)
			}
			for _, want := range []string{`ON CONFLICT ("patient_id") DO UPDATE SET "status"=`, `"updated_at"=now()`} {
				if !strings.Contains(update, want) {
					t.Errorf("conflict clause %q missing %q", update, want)
				}
			}
			if got := strings.Contains(update, `"location"=`); got != tt.setsLocation {
				t.Errorf("location overwritten = %v, want %v in %q", got, tt.setsLocation, update)
			}
			if !strings.HasSuffix(sql, "RETURNING *") {
				t.Errorf("upsert must return the stored row, got %q", sql)
			}
		})
	}
}
