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

// ProfileController 用户与农户档案，普通用户只能看到自己的数据
type ProfileController struct {
	Users    UserStore
	Profiles ProfileStore
	Logger   *zap.Logger
}

// NewProfileController 创建一个新的ProfileController实例
func NewProfileController(users UserStore, profiles ProfileStore, logger *zap.Logger) *ProfileController {
	return &ProfileController{Users: users, Profiles: profiles, Logger: logger}
}

func (c *ProfileController) currentUser(ctx *gin.Context) (*models.User, bool) {
	user, err := c.Users.ByID(ctx.Request.Context(), ctx.GetInt(middleware.ContextUserID))
	if errors.Is(err, dao.ErrNotFound) {
		utils.Unauthorized(ctx, "user no longer exists")
		return nil, false
	}
	if err != nil {
		c.Logger.Error("load current user", zap.Error(err))
		utils.InternalServerError(ctx, "failed to load user")
		return nil, false
	}
	return user, true
}

// ListUsers 管理员返回全部用户，其他人只返回自己
func (c *ProfileController) ListUsers(ctx *gin.Context) {
	user, ok := c.currentUser(ctx)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		utils.Success(ctx, []models.User{*user})
		return
	}
	users, err := c.Users.List(ctx.Request.Context())
	if err != nil {
		c.Logger.Error("list users", zap.Error(err))
		utils.InternalServerError(ctx, "failed to list users")
		return
	}
	utils.Success(ctx, users)
}

// ListProfiles 管理员返回全部档案，其他人只返回自己的
func (c *ProfileController) ListProfiles(ctx *gin.Context) {
	user, ok := c.currentUser(ctx)
	if !ok {
		return
	}
	if user.IsAdmin() {
		profiles, err := c.Profiles.List(ctx.Request.Context())
		if err != nil {
			c.Logger.Error("list profiles", zap.Error(err))
			utils.InternalServerError(ctx, "failed to list profiles")
			return
		}
		utils.Success(ctx, profiles)
		return
	}

	profile, err := c.Profiles.ByUser(ctx.Request.Context(), user.ID)
	if errors.Is(err, dao.ErrNotFound) {
		utils.Success(ctx, []models.FarmerProfile{})
		return
	}
	if err != nil {
		c.Logger.Error("load profile", zap.Int("user_id", user.ID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load profile")
		return
	}
	utils.Success(ctx, []models.FarmerProfile{*profile})
}

// SaveProfile 创建或更新自己的档案
func (c *ProfileController) SaveProfile(ctx *gin.Context) {
	userID := ctx.GetInt(middleware.ContextUserID)

	var req models.ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}
	profile, err := c.Profiles.Upsert(ctx.Request.Context(), userID, req)
	if err != nil {
		c.Logger.Error("save profile", zap.Int("user_id", userID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to save profile")
		return
	}
	utils.Success(ctx, profile)
}
