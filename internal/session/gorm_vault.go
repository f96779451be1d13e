package session

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/client/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVault stores credentials in the credentials table of a SQL database.
type GormVault struct {
	db      *gorm.DB
	profile string
}

// NewGormVault migrates the credentials table and returns a vault over it
func NewGormVault(db *gorm.DB, profile string) (*GormVault, error) {
	if profile == "" {
		profile = "default"
	}
	if err := db.AutoMigrate(&models.Credential{}); err != nil {
		return nil, err
	}
	return &GormVault{db: db, profile: profile}, nil
}

func (v *GormVault) Get(ctx context.Context, name string) (string, bool, error) {
	var cred models.Credential
	err := v.db.WithContext(ctx).Where("profile = ? AND name = ?", v.profile, name).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return cred.Value, true, nil
}

func (v *GormVault) Set(ctx context.Context, name, value string) error {
	cred := models.Credential{Profile: v.profile, Name: name, Value: value}
	return v.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cred).Error
}

func (v *GormVault) Delete(ctx context.Context, name string) error {
	return v.db.WithContext(ctx).Where("profile = ? AND name = ?", v.profile, name).Delete(&models.Credential{}).Error
}
