package repository

import (
	"context"

	"storefront-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	GetAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *GormUserRepository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Select("id", "is_admin").
		Where("id = ?", userID).First(&profile).Error; err != nil {
		return false, err
	}
	return profile.IsAdmin, nil
}

func (r *GormUserRepository) GetAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *GormUserRepository) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}
