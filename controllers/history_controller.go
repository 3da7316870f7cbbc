package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/utils"
)

// HistoryController 返回用户的预测与识别历史
type HistoryController struct {
	Predictions PredictionStore
	Detections  DetectionStore
	Logger      *zap.Logger
}

// NewHistoryController 创建一个新的HistoryController实例
func NewHistoryController(predictions PredictionStore, detections DetectionStore, logger *zap.Logger) *HistoryController {
	return &HistoryController{Predictions: predictions, Detections: detections, Logger: logger}
}

// History 获取历史记录，均按时间倒序
func (c *HistoryController) History(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)

	predictions, err := c.Predictions.ListByUser(ctx.Request.Context(), userID)
	if err != nil {
		c.Logger.Error("list crop predictions", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load history")
		return
	}
	detections, err := c.Detections.ListByUser(ctx.Request.Context(), userID)
	if err != nil {
		c.Logger.Error("list disease detections", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load history")
		return
	}

	utils.Success(ctx, models.HistorySummary{
		CropPredictions:   predictions,
		DiseaseDetections: detections,
	})
}
