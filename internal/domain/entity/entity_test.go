package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseAppointmentStatus(t *testing.T) {
	for _, s := range []string{"scheduled", "confirmed", "completed", "cancelled"} {
		if got, ok := ParseAppointmentStatus(s); !ok || string(got) != s {
			t.Errorf("ParseAppointmentStatus(%q) = %q, %v", s, got, ok)
		}
	}
	for _, s := range []string{"", "pending", "Cancelled", "expired"} {
		if _, ok := ParseAppointmentStatus(s); ok {
			t.Errorf("ParseAppointmentStatus(%q) should fail", s)
		}
	}
}

func TestParseTrackingStatus(t *testing.T) {
	for _, s := range []string{"checked-in", "waiting", "in-treatment", "admitted", "discharged"} {
		if _, ok := ParseTrackingStatus(s); !ok {
			t.Errorf("ParseTrackingStatus(%q) should succeed", s)
		}
	}
	if _, ok := ParseTrackingStatus("in_treatment"); ok {
		t.Error("underscore variant must be rejected")
	}
}

func TestAppointmentSlotKey(t *testing.T) {
	doctorID := uuid.MustParse("7f1c2f5e-0a7e-4d8a-9b36-2c1f0f5f9a11")
	date, _ := time.Parse(DateLayout, "2024-06-01")
	a := Appointment{DoctorID: doctorID, AppointmentDate: date, AppointmentTime: "09:00:00"}

	want := "slot:7f1c2f5e-0a7e-4d8a-9b36-2c1f0f5f9a11:2024-06-01:09:00"
	if got := a.Slot().Key(); got != want {
		t.Errorf("Slot().Key() = %q, want %q", got, want)
	}
}

func TestAppointmentIsActive(t *testing.T) {
	a := Appointment{Status: AppointmentStatusCompleted}
	if !a.IsActive() {
		t.Error("completed appointment still occupies its slot")
	}
	a.Status = AppointmentStatusCancelled
	if a.IsActive() {
		t.Error("cancelled appointment must free its slot")
	}
}

func TestTrackingFilterMatches(t *testing.T) {
	waiting := TrackingStatusWaiting
	lab := "Lab"
	state := PatientFlowState{Name: "Jane Doe", PatientCode: "P0001", Status: &waiting, Location: &lab}

	tests := []struct {
		name   string
		filter TrackingFilter
		want   bool
	}{
		{"empty", TrackingFilter{}, true},
		{"name case-insensitive", TrackingFilter{Query: "jane"}, true},
		{"code", TrackingFilter{Query: "p000"}, true},
		{"query miss", TrackingFilter{Query: "john"}, false},
		{"query and status", TrackingFilter{Query: "Jane", Status: &waiting}, true},
		{"location miss", TrackingFilter{Query: "Jane", Location: "Reception"}, false},
		{"location exact", TrackingFilter{Location: "Lab"}, true},
		{"location not substring", TrackingFilter{Location: "La"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(state); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	never := PatientFlowState{Name: "Jane Roe"}
	if (TrackingFilter{Status: &waiting}).Matches(never) {
		t.Error("status filter must not match a patient that was never checked in")
	}
}

func TestFlowStatsAdd(t *testing.T) {
	var s FlowStats
	s.Add(TrackingStatusWaiting, 2)
	s.Add(TrackingStatusInTreatment, 1)
	s.Add(TrackingStatus("unknown"), 5)
	if s.Waiting != 2 || s.InTreatment != 1 || s.CheckedIn != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}
