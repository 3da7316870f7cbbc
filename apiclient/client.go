// Package apiclient 是 AgriSense 服务的 HTTP 客户端
package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"go-agrisense/models"
)

// 服务端接口路径
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathLogout   = "/api/auth/logout"
	PathMe       = "/api/auth/me"
	PathPredict  = "/api/predict-crop/"
	PathHistory  = "/api/history/"
	PathProfiles = "/api/profiles/"
	PathRecords  = "/api/predictions/"
	PathDetect   = "/api/detections/"
)

// DefaultTimeout 单次请求的默认超时
const DefaultTimeout = 15 * time.Second

// Config 客户端配置
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client 线程安全，令牌在登录后设置
type Client struct {
	rc *resty.Client

	mu    sync.RWMutex
	token string
}

// New 创建客户端，不做自动重试
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "agrisense-cli"
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)
	return &Client{rc: rc}
}

// HTTPClient 返回底层 http.Client
func (c *Client) HTTPClient() *http.Client {
	return c.rc.GetClient()
}

// SetToken 设置或清除 Bearer 令牌
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token 当前令牌
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.rc.R().SetContext(ctx).SetError(&errorBody{})
	if token := c.Token(); token != "" {
		r.SetAuthToken(token)
	}
	return r
}

func toServiceError(resp *resty.Response, err error) error {
	if err != nil {
		return &ServiceError{Err: err}
	}
	if !resp.IsError() {
		return nil
	}
	se := &ServiceError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		se.Message = body.Error
	}
	return se
}

func toAuthError(resp *resty.Response, err error) error {
	if err != nil {
		return &AuthError{Err: err}
	}
	if !resp.IsError() {
		return nil
	}
	ae := &AuthError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		ae.Message = body.Error
	}
	return ae
}

// Login 用户名密码登录，失败返回 *AuthError
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.request(ctx).SetBody(creds).SetResult(&out).Post(PathLogin)
	if err := toAuthError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register 注册新用户，失败返回 *AuthError
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post(PathRegister)
	if err := toAuthError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 在服务端注销当前令牌
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.request(ctx).Post(PathLogout)
	return toServiceError(resp, err)
}

// CurrentUser 返回令牌对应的用户
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out models.User
	resp, err := c.request(ctx).SetResult(&out).Get(PathMe)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictCrop 原样提交七个字段
func (c *Client) PredictCrop(ctx context.Context, sample models.SoilSample) (*models.PredictionResult, error) {
	var out models.PredictionResult
	resp, err := c.request(ctx).SetBody(sample).SetResult(&out).Post(PathPredict)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// History 获取预测与识别历史
func (c *Client) History(ctx context.Context) (*models.HistorySummary, error) {
	var out models.HistorySummary
	resp, err := c.request(ctx).SetResult(&out).Get(PathHistory)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profiles 返回可见的农户档案
func (c *Client) Profiles(ctx context.Context) ([]models.FarmerProfile, error) {
	var out []models.FarmerProfile
	resp, err := c.request(ctx).SetResult(&out).Get(PathProfiles)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveProfile 创建或更新自己的档案
func (c *Client) SaveProfile(ctx context.Context, req models.ProfileRequest) (*models.FarmerProfile, error) {
	var out models.FarmerProfile
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Put(PathProfiles)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordQuery 预测记录查询参数，零值字段不发送
type RecordQuery struct {
	Page     int
	PageSize int
	Crop     string
}

// Predictions 分页获取预测记录
func (c *Client) Predictions(ctx context.Context, q RecordQuery) (*models.PredictionPage, error) {
	var out models.PredictionPage
	r := c.request(ctx).SetResult(&out)
	if q.Page > 0 {
		r.SetQueryParam("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		r.SetQueryParam("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Crop != "" {
		r.SetQueryParam("crop", q.Crop)
	}
	resp, err := r.Get(PathRecords)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Prediction 获取单条预测记录
func (c *Client) Prediction(ctx context.Context, id int64) (*models.CropPrediction, error) {
	var out models.CropPrediction
	resp, err := c.request(ctx).
		SetResult(&out).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Get(PathRecords + "{id}")
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordDetection 录入病害识别结果，需要管理员令牌
func (c *Client) RecordDetection(ctx context.Context, req models.DetectionRequest) (*models.DiseaseDetection, error) {
	var out models.DiseaseDetection
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post(PathDetect)
	if err := toServiceError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
