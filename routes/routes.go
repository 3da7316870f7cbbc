package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-agrisense/controllers"
	"go-agrisense/middleware"
	"go-agrisense/predictor"
)

// Dependencies 路由所需的存储与服务
type Dependencies struct {
	Users             controllers.UserStore
	Profiles          controllers.ProfileStore
	Predictions       controllers.PredictionStore
	Detections        controllers.DetectionStore
	Records           controllers.PredictionRecordStore // 为空时尝试复用 Predictions
	DetectionRecorder controllers.DetectionWriter       // 为空时尝试复用 Detections
	Recommender       controllers.Recommender
	Tokens            *middleware.TokenIssuer
	Metrics           *middleware.Metrics
	Logger            *zap.Logger
}

// SetupRouter 配置所有路由
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Recommender == nil {
		deps.Recommender = predictor.NewService(nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Records == nil {
		if rs, ok := deps.Predictions.(controllers.PredictionRecordStore); ok {
			deps.Records = rs
		}
	}
	if deps.DetectionRecorder == nil {
		if dw, ok := deps.Detections.(controllers.DetectionWriter); ok {
			deps.DetectionRecorder = dw
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	// 创建控制器实例
	authController := controllers.NewAuthController(deps.Users, deps.Tokens, deps.Logger)
	predictionController := controllers.NewPredictionController(deps.Predictions, deps.Recommender, deps.Metrics, deps.Logger)
	historyController := controllers.NewHistoryController(deps.Predictions, deps.Detections, deps.Logger)
	profileController := controllers.NewProfileController(deps.Users, deps.Profiles, deps.Logger)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 公共路由
	public := r.Group("/api/auth")
	{
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)
	}

	// 需要认证的路由
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		protected.POST("/auth/logout", authController.Logout)
		protected.GET("/auth/me", authController.Me)

		// 作物预测与历史
		protected.POST("/predict-crop/", predictionController.PredictCrop)
		protected.GET("/history/", historyController.History)
		if deps.Records != nil {
			recordController := controllers.NewRecordController(deps.Records, deps.Logger)
			protected.GET("/predictions/", recordController.ListPredictions)
			protected.GET("/predictions/:id", recordController.GetPrediction)
		}

		if deps.DetectionRecorder != nil {
			detectionController := controllers.NewDetectionController(deps.Users, deps.DetectionRecorder, deps.Logger)
			protected.POST("/detections/", detectionController.RecordDetection)
		}

		// 用户与农户档案
		protected.GET("/users/", profileController.ListUsers)
		protected.GET("/profiles/", profileController.ListProfiles)
		protected.PUT("/profiles/", profileController.SaveProfile)
	}

	return r
}
