package main

import (
	"context"
	"log"
	"os"
	"time"

	"bookadmin/internal/database"
	"bookadmin/internal/domain"
	"bookadmin/internal/modules/schedule"
	"bookadmin/internal/repository"

	"go.uber.org/zap"
)

// Seeds a demo organization with services and two weeks of slots so the
// admin panels have data to point at.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "bookadmin.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM appointments")
	db.Exec("DELETE FROM slots")
	db.Exec("DELETE FROM services")
	db.Exec("DELETE FROM organizations")

	ctx := context.Background()
	orgRepo := repository.NewOrganizationRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)

	org := domain.Organization{Name: "Demo Clinic", AutoConfirm: false}
	if err := orgRepo.Create(ctx, &org); err != nil {
		log.Fatal("seed organization:", err)
	}
	log.Printf("Organization created: %s (id=%d)", org.Name, org.ID)

	services := []domain.Service{
		{OrganizationID: org.ID, Name: "Consultation", NameRu: "Консультация", NameKk: "Кеңес", DurationMinutes: 30},
		{OrganizationID: org.ID, Name: "Checkup", NameRu: "Осмотр", NameKk: "Тексеру", DurationMinutes: 60},
	}
	for i := range services {
		if err := serviceRepo.Create(ctx, &services[i]); err != nil {
			log.Fatal("seed service:", err)
		}
		log.Printf("Service created: %s (id=%d)", services[i].Name, services[i].ID)
	}

	logger, _ := zap.NewDevelopment()
	gen := schedule.NewService(serviceRepo, slotRepo, apptRepo, logger)

	today := time.Now().UTC()
	start := today.Format("2006-01-02")
	end := today.AddDate(0, 0, 14).Format("2006-01-02")

	for _, svc := range services {
		created, err := gen.GenerateSlots(ctx, schedule.GenerateSlotsRequest{
			ServiceID:  svc.ID,
			StartDate:  start,
			EndDate:    end,
			StartTime:  "09:00",
			EndTime:    "18:00",
			BreakStart: "13:00",
			BreakEnd:   "14:00",
			Weekdays:   []int{1, 2, 3, 4, 5}, // Mon-Fri
		})
		if err != nil {
			log.Fatal("seed slots:", err)
		}
		log.Printf("Slots for %s: %d created", svc.Name, created)
	}

	log.Println("Seed complete")
}
