package repo

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return dbErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbErr("ping", err)
	}
	return nil
}
