package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-agrisense/dao"
	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/utils"
)

const dateLayout = "2006-01-02"

// RecordController 预测记录的分页查询
type RecordController struct {
	Records PredictionRecordStore
	Logger  *zap.Logger
}

// NewRecordController 创建一个新的RecordController实例
func NewRecordController(records PredictionRecordStore, logger *zap.Logger) *RecordController {
	return &RecordController{Records: records, Logger: logger}
}

// ListPredictions 获取预测记录列表
func (c *RecordController) ListPredictions(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)

	// 获取查询参数
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("pageSize", strconv.Itoa(models.DefaultPageSize)))
	filter := models.PredictionFilter{
		Page:     page,
		PageSize: pageSize,
		Crop:     ctx.Query("crop"),
	}

	startDate, endDate := ctx.Query("startDate"), ctx.Query("endDate")
	if startDate != "" && endDate != "" {
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			utils.BadRequest(ctx, "startDate must be YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			utils.BadRequest(ctx, "endDate must be YYYY-MM-DD")
			return
		}
		// 包含结束当天
		filter.StartDate, filter.EndDate = start, end.Add(24*time.Hour-time.Nanosecond)
	}

	result, err := c.Records.Page(ctx.Request.Context(), userID, filter)
	if err != nil {
		c.Logger.Error("page crop predictions", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load predictions")
		return
	}
	utils.Success(ctx, result)
}

// GetPrediction 获取单个预测记录
func (c *RecordController) GetPrediction(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(ctx, "invalid prediction id")
		return
	}

	record, err := c.Records.ByID(ctx.Request.Context(), userID, id)
	if errors.Is(err, dao.ErrNotFound) {
		utils.NotFound(ctx, "prediction not found")
		return
	}
	if err != nil {
		c.Logger.Error("get crop prediction", zap.Int64("id", id), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load prediction")
		return
	}
	utils.Success(ctx, record)
}
