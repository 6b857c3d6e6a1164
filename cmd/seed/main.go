package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"clinicflow/config"
	"clinicflow/internal/domain/entity"
	"clinicflow/internal/infrastructure/database"
	"clinicflow/pkg/jwt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var specialties = []string{
	"General Practice",
	"Cardiology",
	"Dermatology",
	"Orthopedics",
	"Neurology",
	"Pediatrics",
	"Ophthalmology",
	"ENT",
}

func main() {
	patients := flag.Int("patients", 50, "number of patients to create")
	doctors := flag.Int("doctors", 8, "number of doctors to create")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Migrate(cfg.DB); err != nil {
		logrus.Fatalf("Failed to migrate: %v", err)
	}
	db, err := database.NewPostgresConnection(cfg.DB, "production")
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(ctx, db, *doctors); err != nil {
		logrus.Fatalf("Failed to seed doctors: %v", err)
	}
	first, err := seedPatients(ctx, db, *patients)
	if err != nil {
		logrus.Fatalf("Failed to seed patients: %v", err)
	}

	if err := printTokens(cfg, first); err != nil {
		logrus.Fatalf("Failed to mint tokens: %v", err)
	}
	logrus.Info("Seed complete")
}

func seedDoctors(ctx context.Context, db *gorm.DB, count int) error {
	doctors := make([]entity.Doctor, 0, count)
	for i := 0; i < count; i++ {
		doctors = append(doctors, entity.Doctor{
			ID:        uuid.New(),
			Name:      "Dr. " + gofakeit.Name(),
			Specialty: specialties[gofakeit.Number(0, len(specialties)-1)],
			// roughly one in five doctors is off the booking list
			Available: gofakeit.Number(1, 5) != 1,
		})
	}
	if len(doctors) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).CreateInBatches(doctors, 100).Error; err != nil {
		return err
	}
	logrus.Infof("Doctors seeded: %d", len(doctors))
	return nil
}

// seedPatients creates patients with the next free codes and returns the first one
func seedPatients(ctx context.Context, db *gorm.DB, count int) (*entity.Patient, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&entity.Patient{}).Count(&existing).Error; err != nil {
		return nil, err
	}

	patients := make([]entity.Patient, 0, count)
	for i := 0; i < count; i++ {
		patients = append(patients, entity.Patient{
			ID:          uuid.New(),
			PatientCode: fmt.Sprintf("P%05d", existing+int64(i)+1),
			Name:        gofakeit.Name(),
			DateOfBirth: gofakeit.DateRange(time.Now().AddDate(-90, 0, 0), time.Now().AddDate(-1, 0, 0)),
			Gender:      gofakeit.Gender(),
			Contact:     gofakeit.Phone(),
			Email:       gofakeit.Email(),
		})
	}
	if len(patients) == 0 {
		return nil, nil
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "patient_code"}}, DoNothing: true}).
		CreateInBatches(patients, 500).Error
	if err != nil {
		return nil, err
	}
	logrus.Infof("Patients seeded: %d", len(patients))
	return &patients[0], nil
}

// printTokens mints development access tokens for an admin and for the first seeded patient
func printTokens(cfg *config.Config, patient *entity.Patient) error {
	jwtService := jwt.NewJWTService(cfg.JWT)

	adminToken, _, err := jwtService.GenerateAccessToken(jwt.Subject{
		UserID: uuid.New(),
		Role:   string(entity.RoleAdmin),
		Name:   "Front Desk",
	})
	if err != nil {
		return err
	}
	fmt.Printf("ADMIN_TOKEN=%s\n", adminToken)

	if patient == nil {
		return nil
	}
	patientToken, _, err := jwtService.GenerateAccessToken(jwt.Subject{
		UserID: uuid.New(),
		Role:   string(entity.RolePatient),
		Name:   patient.Name,
		Email:  patient.Email,
	})
	if err != nil {
		return err
	}
	fmt.Printf("PATIENT_TOKEN=%s # %s <%s>\n", patientToken, patient.Name, patient.Email)
	return nil
}
