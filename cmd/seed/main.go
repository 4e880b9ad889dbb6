package main

import (
	"context"
	"errors"
	"log"

	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/config"
	"github.com/you/careauth/internal/infrastructure/database"
	"github.com/you/careauth/internal/infrastructure/repositories"
)

// Demo principals and patient records for local development
var (
	principals = []*domain.Principal{
		{Name: "Dr Meredith Grey", Phone: "0612345678", Role: domain.RoleDoctor},
		{Name: "Dr Gregory House", Phone: "0623456789", Role: domain.RoleDoctor},
		{Name: "Jean Dupont", Phone: "0700000000", Role: domain.RolePatient},
		{Name: "Portal Admin", Phone: "0600000000", Role: domain.RoleAdmin},
	}
	patients = []*domain.Patient{
		{FirstName: "Jean", LastName: "Dupont", Phone: "0700000000", Gender: "M"},
		{FirstName: "Marie", LastName: "Curie", Phone: "0711111111", Gender: "F"},
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}

	ctx := context.Background()
	principalRepo := repositories.NewPrincipalRepository(db)
	patientRepo := repositories.NewPatientRepository(db)

	for _, p := range principals {
		if _, err := principalRepo.FindByPhone(ctx, p.Phone); err == nil {
			log.Printf("principal %s already exists", p.Phone)
			continue
		} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
			log.Fatalf("Failed to look up principal %s: %v", p.Phone, err)
		}
		if err := principalRepo.Create(ctx, p); err != nil {
			log.Fatalf("Failed to create principal %s: %v", p.Phone, err)
		}
		log.Printf("created %s %s (%s)", p.Role, p.Name, p.Phone)
	}

	for _, p := range patients {
		if _, err := patientRepo.FindByPhone(ctx, p.Phone); err == nil {
			log.Printf("patient %s already exists", p.Phone)
			continue
		} else if !errors.Is(err, domain.ErrPatientNotFound) {
			log.Fatalf("Failed to look up patient %s: %v", p.Phone, err)
		}
		if err := patientRepo.Create(ctx, p); err != nil {
			log.Fatalf("Failed to create patient %s: %v", p.Phone, err)
		}
		log.Printf("created patient %s (%s)", p.FullName(), p.Phone)
	}

	log.Println("seed completed")
}
