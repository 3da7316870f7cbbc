package controllers

import (
	"context"

	"go-agrisense/models"
)

// UserStore 用户存储，由 dao.UserDAO 实现
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// ProfileStore 档案存储，由 dao.ProfileDAO 实现
type ProfileStore interface {
	ByUser(ctx context.Context, userID int) (*models.FarmerProfile, error)
	List(ctx context.Context) ([]models.FarmerProfile, error)
	Upsert(ctx context.Context, userID int, req models.ProfileRequest) (*models.FarmerProfile, error)
}

// PredictionStore 预测记录存储，由 dao.PredictionDAO 实现
type PredictionStore interface {
	Create(ctx context.Context, p *models.CropPrediction) error
	ListByUser(ctx context.Context, userID int) ([]models.CropPrediction, error)
}

// DetectionStore 病害识别记录存储，由 dao.DetectionDAO 实现
type DetectionStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.DiseaseDetection, error)
}

// PredictionRecordStore 预测记录查询，由 dao.PredictionDAO 实现
type PredictionRecordStore interface {
	Page(ctx context.Context, userID int, filter models.PredictionFilter) (*models.PredictionPage, error)
	ByID(ctx context.Context, userID int, id int64) (*models.CropPrediction, error)
}

// DetectionWriter 病害识别结果写入，由 dao.DetectionDAO 实现
type DetectionWriter interface {
	Create(ctx context.Context, d *models.DiseaseDetection) error
}
