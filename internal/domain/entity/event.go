package entity

import "time"

// Flow event types
const (
	EventAppointmentBooked        = "appointment.booked"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventTrackingUpdated          = "tracking.updated"
)

// FlowEvent is published after a committed change so dashboards and
// downstream consumers can react without polling
type FlowEvent struct {
	Type       string                 `json:"type"`
	EntityID   string                 `json:"entity_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`

	// State is set for tracking events; it is used to route the event to
	// filtered live subscribers and is not serialized
	State *PatientFlowState `json:"-"`
}
