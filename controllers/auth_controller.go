package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-agrisense/dao"
	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/utils"
)

// 登录失败统一提示，不区分用户名不存在与密码错误
const msgInvalidCredentials = "invalid username or password"

// AuthController 处理用户认证相关的请求
type AuthController struct {
	Users  UserStore
	Tokens *middleware.TokenIssuer
	Logger *zap.Logger
}

// NewAuthController 创建一个新的AuthController实例
func NewAuthController(users UserStore, tokens *middleware.TokenIssuer, logger *zap.Logger) *AuthController {
	return &AuthController{Users: users, Tokens: tokens, Logger: logger}
}

// Register 用户注册
func (c *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.Logger.Error("hash password", zap.Error(err))
		utils.InternalServerError(ctx, "failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hashed),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}
	if err := c.Users.Create(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, dao.ErrDuplicate) {
			utils.BadRequest(ctx, "username already exists")
			return
		}
		c.Logger.Error("create user", zap.String("username", req.Username), zap.Error(err))
		utils.InternalServerError(ctx, "failed to create user")
		return
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	c.respondWithToken(ctx, http.StatusCreated, user)
}

// Login 用户登录
func (c *AuthController) Login(ctx *gin.Context) {
	var req models.Credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.Users.ByUsername(ctx.Request.Context(), req.Username)
	if errors.Is(err, dao.ErrNotFound) {
		utils.Unauthorized(ctx, msgInvalidCredentials)
		return
	}
	if err != nil {
		c.Logger.Error("load user", zap.String("username", req.Username), zap.Error(err))
		utils.InternalServerError(ctx, "failed to load user")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.Unauthorized(ctx, msgInvalidCredentials)
		return
	}

	c.respondWithToken(ctx, http.StatusOK, user)
}

func (c *AuthController) respondWithToken(ctx *gin.Context, status int, user *models.User) {
	token, err := c.Tokens.Issue(user.ID)
	if err != nil {
		c.Logger.Error("issue token", zap.Int("user_id", user.ID), zap.Error(err))
		utils.InternalServerError(ctx, "failed to issue token")
		return
	}
	ctx.JSON(status, models.AuthResponse{Token: token, User: *user})
}

// Logout 注销当前令牌
func (c *AuthController) Logout(ctx *gin.Context) {
	jti := ctx.GetString(middleware.ContextTokenID)
	if expiry, ok := ctx.Get(middleware.ContextExpiry); ok && jti != "" {
		c.Tokens.Revoke(jti, expiry.(time.Time))
	}
	utils.NoContent(ctx)
}

// Me 返回当前用户
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.Users.ByID(ctx.Request.Context(), ctx.GetInt(middleware.ContextUserID))
	if errors.Is(err, dao.ErrNotFound) {
		utils.Unauthorized(ctx, "user no longer exists")
		return
	}
	if err != nil {
		c.Logger.Error("load current user", zap.Error(err))
		utils.InternalServerError(ctx, "failed to load user")
		return
	}
	utils.Success(ctx, user)
}
