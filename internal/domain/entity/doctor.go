package entity

import "github.com/google/uuid"

// Doctor is a read-mostly directory entry consulted to validate bookability
type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Specialty string    `gorm:"type:varchar(100);not null" json:"specialty"`
	Available bool      `gorm:"not null;default:true;index" json:"available"`
}

func (Doctor) TableName() string {
	return "doctors"
}
