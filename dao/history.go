package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-agrisense/models"
)

// PredictionDAO 作物预测记录
type PredictionDAO struct {
	DB *sql.DB
}

// NewPredictionDAO 创建 PredictionDAO
func NewPredictionDAO(db *sql.DB) *PredictionDAO {
	return &PredictionDAO{DB: db}
}

// Create 保存一次预测，回填 ID
func (d *PredictionDAO) Create(ctx context.Context, p *models.CropPrediction) error {
	result, err := d.DB.ExecContext(ctx, `
		INSERT INTO crop_predictions (
			user_id, nitrogen, phosphorus, potassium, temperature, humidity, ph, rainfall,
			predicted_crop, fertilizer_recommendation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.UserID, p.Nitrogen, p.Phosphorus, p.Potassium, p.Temperature, p.Humidity, p.PH, p.Rainfall,
		p.PredictedCrop, p.FertilizerRecommendation,
	)
	if err != nil {
		return fmt.Errorf("insert crop prediction: %w", err)
	}
	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get prediction id: %w", err)
	}
	return nil
}

// ListByUser 按创建时间倒序返回用户的预测记录
func (d *PredictionDAO) ListByUser(ctx context.Context, userID int) ([]models.CropPrediction, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, nitrogen, phosphorus, potassium, temperature, humidity, ph, rainfall,
			predicted_crop, fertilizer_recommendation, created_at
		FROM crop_predictions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query crop predictions: %w", err)
	}
	defer rows.Close()

	predictions := []models.CropPrediction{}
	for rows.Next() {
		var p models.CropPrediction
		if err := rows.Scan(&p.ID, &p.UserID, &p.Nitrogen, &p.Phosphorus, &p.Potassium,
			&p.Temperature, &p.Humidity, &p.PH, &p.Rainfall,
			&p.PredictedCrop, &p.FertilizerRecommendation, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// DetectionDAO 病害识别记录
type DetectionDAO struct {
	DB *sql.DB
}

// NewDetectionDAO 创建 DetectionDAO
func NewDetectionDAO(db *sql.DB) *DetectionDAO {
	return &DetectionDAO{DB: db}
}

// ListByUser 按创建时间倒序返回用户的识别记录
func (d *DetectionDAO) ListByUser(ctx context.Context, userID int) ([]models.DiseaseDetection, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, image, plant_type, detected_disease, confidence_score,
			COALESCE(treatment_recommendation, ''), created_at
		FROM disease_detections
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query disease detections: %w", err)
	}
	defer rows.Close()

	detections := []models.DiseaseDetection{}
	for rows.Next() {
		var dd models.DiseaseDetection
		if err := rows.Scan(&dd.ID, &dd.UserID, &dd.Image, &dd.PlantType, &dd.DetectedDisease,
			&dd.ConfidenceScore, &dd.TreatmentRecommendation, &dd.CreatedAt); err != nil {
			return nil, err
		}
		detections = append(detections, dd)
	}
	return detections, rows.Err()
}

// Page 分页查询预测记录，支持作物与日期筛选
func (d *PredictionDAO) Page(ctx context.Context, userID int, filter models.PredictionFilter) (*models.PredictionPage, error) {
	filter = filter.Normalize()

	where := " WHERE user_id = ?"
	params := []interface{}{userID}
	if filter.HasDateRange() {
		where += " AND created_at BETWEEN ? AND ?"
		params = append(params, filter.StartDate, filter.EndDate)
	}
	if filter.Crop != "" {
		where += " AND predicted_crop LIKE ?"
		params = append(params, "%"+filter.Crop+"%")
	}

	var total int
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM crop_predictions"+where, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count crop predictions: %w", err)
	}

	query := `
		SELECT id, user_id, nitrogen, phosphorus, potassium, temperature, humidity, ph, rainfall,
			predicted_crop, fertilizer_recommendation, created_at
		FROM crop_predictions` + where + `
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := d.DB.QueryContext(ctx, query, append(params, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("query crop predictions: %w", err)
	}
	defer rows.Close()

	page := &models.PredictionPage{
		Data:        []models.CropPrediction{},
		TotalCount:  total,
		CurrentPage: filter.Page,
		PageSize:    filter.PageSize,
	}
	for rows.Next() {
		var p models.CropPrediction
		if err := rows.Scan(&p.ID, &p.UserID, &p.Nitrogen, &p.Phosphorus, &p.Potassium,
			&p.Temperature, &p.Humidity, &p.PH, &p.Rainfall,
			&p.PredictedCrop, &p.FertilizerRecommendation, &p.CreatedAt); err != nil {
			return nil, err
		}
		page.Data = append(page.Data, p)
	}
	return page, rows.Err()
}

// ByID 获取用户自己的一条预测记录
func (d *PredictionDAO) ByID(ctx context.Context, userID int, id int64) (*models.CropPrediction, error) {
	var p models.CropPrediction
	err := d.DB.QueryRowContext(ctx, `
		SELECT id, user_id, nitrogen, phosphorus, potassium, temperature, humidity, ph, rainfall,
			predicted_crop, fertilizer_recommendation, created_at
		FROM crop_predictions
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&p.ID, &p.UserID, &p.Nitrogen, &p.Phosphorus, &p.Potassium,
		&p.Temperature, &p.Humidity, &p.PH, &p.Rainfall,
		&p.PredictedCrop, &p.FertilizerRecommendation, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query crop prediction %d: %w", id, err)
	}
	return &p, nil
}

// Create 保存一条识别结果，回填 ID
func (d *DetectionDAO) Create(ctx context.Context, dd *models.DiseaseDetection) error {
	result, err := d.DB.ExecContext(ctx, `
		INSERT INTO disease_detections (
			user_id, image, plant_type, detected_disease, confidence_score, treatment_recommendation
		) VALUES (?, ?, ?, ?, ?, ?)
	`, dd.UserID, dd.Image, dd.PlantType, dd.DetectedDisease, dd.ConfidenceScore, dd.TreatmentRecommendation)
	if err != nil {
		return fmt.Errorf("insert disease detection: %w", err)
	}
	dd.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get detection id: %w", err)
	}
	return nil
}
