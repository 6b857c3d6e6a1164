package repository

import (
	"context"
	"time"

	"clinicflow/internal/domain/entity"
	domainRepo "clinicflow/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

const availableDoctorsKey = "available"

// cachedDoctorRepository caches the available-doctor listing for ttl.
// Lookups by id always read through, so booking sees the current availability.
type cachedDoctorRepository struct {
	next  domainRepo.DoctorRepository
	cache *expirable.LRU[string, []entity.Doctor]
}

func NewCachedDoctorRepository(next domainRepo.DoctorRepository, ttl time.Duration) domainRepo.DoctorRepository {
	return &cachedDoctorRepository{
		next:  next,
		cache: expirable.NewLRU[string, []entity.Doctor](1, nil, ttl),
	}
}

func (r *cachedDoctorRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	return r.next.FindByID(ctx, db, id)
}

// FindAvailable may lag a directory change by up to ttl.
func (r *cachedDoctorRepository) FindAvailable(ctx context.Context, db *gorm.DB) ([]entity.Doctor, error) {
	if doctors, ok := r.cache.Get(availableDoctorsKey); ok {
		return append([]entity.Doctor(nil), doctors...), nil
	}

	doctors, err := r.next.FindAvailable(ctx, db)
	if err != nil {
		return nil, err
	}
	r.cache.Add(availableDoctorsKey, append([]entity.Doctor(nil), doctors...))
	return doctors, nil
}
