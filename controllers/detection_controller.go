package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-agrisense/dao"
	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/utils"
)

// DetectionController 由管理员录入病害识别结果
type DetectionController struct {
	Users      UserStore
	Detections DetectionWriter
	Logger     *zap.Logger
}

// NewDetectionController 创建一个新的DetectionController实例
func NewDetectionController(users UserStore, detections DetectionWriter, logger *zap.Logger) *DetectionController {
	return &DetectionController{Users: users, Detections: detections, Logger: logger}
}

// RecordDetection 为指定用户保存一条识别结果
func (c *DetectionController) RecordDetection(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)

	// 检查用户是否为管理员
	admin, err := c.Users.ByID(ctx.Request.Context(), userID)
	if errors.Is(err, dao.ErrNotFound) {
		utils.Unauthorized(ctx, "user no longer exists")
		return
	}
	if err != nil {
		c.Logger.Error("load current user", zap.Error(err))
		utils.InternalServerError(ctx, "failed to load user")
		return
	}
	if !admin.IsAdmin() {
		utils.Forbidden(ctx, "permission denied")
		return
	}

	var req models.DetectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}
	if _, err := c.Users.ByID(ctx.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			utils.BadRequest(ctx, "user not found")
			return
		}
		c.Logger.Error("load detection owner", zap.Int("user_id", req.UserID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load user")
		return
	}

	detection := models.DiseaseDetection{
		UserID:                  req.UserID,
		Image:                   req.Image,
		PlantType:               req.PlantType,
		DetectedDisease:         req.DetectedDisease,
		ConfidenceScore:         req.ConfidenceScore,
		TreatmentRecommendation: req.TreatmentRecommendation,
	}
	if err := c.Detections.Create(ctx.Request.Context(), &detection); err != nil {
		c.Logger.Error("save disease detection", zap.Int("user_id", req.UserID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to save detection")
		return
	}
	c.Logger.Info("disease detection recorded",
		zap.Int64("id", detection.ID),
		zap.Int("user_id", req.UserID),
		zap.Int("recorded_by", userID))
	utils.Created(ctx, detection)
}
