package usecase

import (
	"context"
	"errors"
	"testing"

	"clinicflow/internal/domain/entity"

	"github.com/google/uuid"
)

func TestGetAuditLogs(t *testing.T) {
	repo := &mockAuditLogRepo{}
	for i := 0; i < 3; i++ {
		repo.Create(context.Background(), nil, &entity.AuditLog{Action: entity.AuditActionTrackingCheckIn, Entity: entity.AuditEntityTracking, EntityID: uuid.NewString()})
	}
	u := NewAuditLogUsecase(nil, testLogger(), repo)

	res, err := u.GetAuditLogs(context.Background(), adminIdentity, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 || res.Logs[0].ID != 3 {
		t.Errorf("expected the two newest entries, got %+v", res.Logs)
	}

	_, err = u.GetAuditLogs(context.Background(), entity.Identity{Role: entity.RolePatient}, 10)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestGetAvailableDoctors(t *testing.T) {
	repo := newMockDoctorRepo(
		entity.Doctor{ID: uuid.New(), Name: "Dr. Zed", Available: true},
		entity.Doctor{ID: uuid.New(), Name: "Dr. Adams", Available: true},
		entity.Doctor{ID: uuid.New(), Name: "Dr. Off", Available: false},
	)
	u := NewDoctorUsecase(nil, testLogger(), repo)

	res, err := u.GetAvailableDoctors(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 || res.Doctors[0].Name != "Dr. Adams" {
		t.Errorf("expected available doctors by name, got %+v", res.Doctors)
	}
}
