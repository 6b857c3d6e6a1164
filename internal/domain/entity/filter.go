package entity

import (
	"strings"
	"time"
)

// TrackingFilter is a domain-level filter for querying current patient states.
// Every non-empty field adds one predicate; predicates are combined with AND.
type TrackingFilter struct {
	Query    string          // Patient name or patient code (case-insensitive substring)
	Status   *TrackingStatus // Exact match
	Location string          // Exact match
}

// IsEmpty reports whether the filter has no predicates
func (f TrackingFilter) IsEmpty() bool {
	return f.Query == "" && f.Status == nil && f.Location == ""
}

// Matches evaluates the filter against a single state in memory
func (f TrackingFilter) Matches(s PatientFlowState) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.PatientCode), q) {
			return false
		}
	}
	if f.Status != nil && (s.Status == nil || *s.Status != *f.Status) {
		return false
	}
	if f.Location != "" && (s.Location == nil || *s.Location != f.Location) {
		return false
	}
	return true
}

// AppointmentFilter is a domain-level filter for listing appointments
type AppointmentFilter struct {
	Query  string             // Patient name, patient code or doctor name (case-insensitive substring)
	Status *AppointmentStatus // Exact match
	Date   *time.Time         // Exact calendar day
}

// IsEmpty reports whether the filter has no predicates
func (f AppointmentFilter) IsEmpty() bool {
	return f.Query == "" && f.Status == nil && f.Date == nil
}
