package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/predictor"
	"go-agrisense/utils"
)

// Recommender 作物与肥料推荐，由 predictor.Service 实现
type Recommender interface {
	Recommend(f predictor.Features) (crop, fertilizer string, err error)
}

// PredictionController 处理作物预测请求
type PredictionController struct {
	Predictions PredictionStore
	Recommender Recommender
	Metrics     *middleware.Metrics
	Logger      *zap.Logger
}

// NewPredictionController 创建一个新的PredictionController实例
func NewPredictionController(predictions PredictionStore, rec Recommender, metrics *middleware.Metrics, logger *zap.Logger) *PredictionController {
	return &PredictionController{Predictions: predictions, Recommender: rec, Metrics: metrics, Logger: logger}
}

// PredictCrop 根据七项土壤参数预测适合的作物并保存记录
func (c *PredictionController) PredictCrop(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)

	var req models.PredictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}
	values, err := req.Floats()
	if err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}
	features, err := predictor.FromSlice(values)
	if err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}
	if err := features.Validate(); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	crop, fertilizer, err := c.Recommender.Recommend(features)
	if err != nil {
		c.Logger.Error("recommend crop", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "prediction failed")
		return
	}

	record := &models.CropPrediction{
		UserID:                   userID,
		Nitrogen:                 features[0],
		Phosphorus:               features[1],
		Potassium:                features[2],
		Temperature:              features[3],
		Humidity:                 features[4],
		PH:                       features[5],
		Rainfall:                 features[6],
		PredictedCrop:            crop,
		FertilizerRecommendation: fertilizer,
	}
	if err := c.Predictions.Create(ctx.Request.Context(), record); err != nil {
		c.Logger.Error("save prediction", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to save prediction")
		return
	}
	c.Metrics.ObservePrediction(crop)

	utils.Success(ctx, models.PredictionResult{
		Success:                  true,
		PredictionID:             record.ID,
		PredictedCrop:            crop,
		FertilizerRecommendation: fertilizer,
	})
}
