package models

import "time"

// PredictionResult 作物预测接口的成功响应
type PredictionResult struct {
	Success                  bool   `json:"success"`
	PredictionID             int64  `json:"prediction_id"`
	PredictedCrop            string `json:"predicted_crop"`
	FertilizerRecommendation string `json:"fertilizer_recommendation"`
}

// CropPrediction 作物预测历史记录
type CropPrediction struct {
	ID                       int64     `json:"id"`
	UserID                   int       `json:"-"`
	Nitrogen                 float64   `json:"nitrogen"`
	Phosphorus               float64   `json:"phosphorus"`
	Potassium                float64   `json:"potassium"`
	Temperature              float64   `json:"temperature"`
	Humidity                 float64   `json:"humidity"`
	PH                       float64   `json:"ph"`
	Rainfall                 float64   `json:"rainfall"`
	PredictedCrop            string    `json:"predicted_crop"`
	FertilizerRecommendation string    `json:"fertilizer_recommendation"`
	CreatedAt                time.Time `json:"created_at"`
}

// DiseaseDetection 病害识别历史记录
type DiseaseDetection struct {
	ID                      int64     `json:"id"`
	UserID                  int       `json:"-"`
	Image                   string    `json:"image"`
	PlantType               string    `json:"plant_type"`
	DetectedDisease         string    `json:"detected_disease"`
	ConfidenceScore         float64   `json:"confidence_score"`
	TreatmentRecommendation string    `json:"treatment_recommendation"`
	CreatedAt               time.Time `json:"created_at"`
}

// HistorySummary 历史记录，按时间倒序
type HistorySummary struct {
	CropPredictions   []CropPrediction   `json:"crop_predictions"`
	DiseaseDetections []DiseaseDetection `json:"disease_detections"`
}

// DetectionRequest 录入一条病害识别结果，仅管理员可用
type DetectionRequest struct {
	UserID                  int     `json:"user_id" binding:"required"`
	Image                   string  `json:"image" binding:"required,max=255"`
	PlantType               string  `json:"plant_type" binding:"max=100"`
	DetectedDisease         string  `json:"detected_disease" binding:"required,max=100"`
	ConfidenceScore         float64 `json:"confidence_score" binding:"gte=0,lte=1"`
	TreatmentRecommendation string  `json:"treatment_recommendation"`
}
