package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/database"
	"loanledger/src/model"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *GormUserRepository {
	logger.WithField("component", "GormUserRepository").
		Info("Creating new GormUserRepository with MainDB")

	return &GormUserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *GormUserRepository) WithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(
	ctx context.Context,
	user *model.User,
) error {

	return r.db.WithContext(ctx).Create(user).Error
}

// GetByWalletAddress returns (nil, nil) when the wallet is unknown.
func (r *GormUserRepository) GetByWalletAddress(
	ctx context.Context,
	walletAddress string,
) (*model.User, error) {

	var u model.User
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

func (r *GormUserRepository) Save(
	ctx context.Context,
	user *model.User,
) error {

	return r.db.WithContext(ctx).Save(user).Error
}
