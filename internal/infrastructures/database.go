package infrastructures

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(config *AppConfig) *gorm.DB {
	// TranslateError lets the store detect duplicate-key inserts via
	// gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(config.DATABASE_URL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	return db
}
