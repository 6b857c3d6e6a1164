package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is an enrolled patient record. Enrollment happens outside this
// service; the engine only reads it.
type Patient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientCode string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"patient_code"`
	Name        string    `gorm:"type:varchar(255);not null;index" json:"name"`
	DateOfBirth time.Time `gorm:"type:date" json:"date_of_birth"`
	Gender      string    `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Contact     string    `gorm:"type:varchar(50)" json:"contact,omitempty"`
	Email       string    `gorm:"type:varchar(255);index" json:"email,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string {
	return "patients"
}
