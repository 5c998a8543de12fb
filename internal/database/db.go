package database

import (
	"log"

	"kafe-backend/internal/config"
	"kafe-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		// Postgres duplicate key / deadlock hatalarını gorm.ErrDuplicatedKey
		// gibi tiplere çevirsin; checkout retry mantığı buna dayanıyor.
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.Receipt{},
		&models.OrderLine{},
		&models.ToppingLink{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
