// Package predictor 根据土壤与气候参数推荐作物和肥料
package predictor

import (
	"errors"
	"fmt"
	"math"

	"go-agrisense/models"
)

// Features 模型输入，顺序同 models.SoilFields
type Features [7]float64

// ErrUnknownCrop 模型返回了没有配置的作物
var ErrUnknownCrop = errors.New("predictor: unknown crop label")

// FromSlice 从按字段顺序排列的切片构造 Features
func FromSlice(values []float64) (Features, error) {
	var f Features
	if len(values) != len(f) {
		return f, fmt.Errorf("expected %d features, got %d", len(f), len(values))
	}
	copy(f[:], values)
	return f, nil
}

// Validate 检查数值是否在输入控件允许的范围内
func (f Features) Validate() error {
	for i, v := range f {
		name := models.SoilFields[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
		b := models.FieldBounds[name]
		if v < b.Min {
			return fmt.Errorf("%s must not be negative", name)
		}
		if b.Max > 0 && v > b.Max {
			return fmt.Errorf("%s must be between %g and %g", name, b.Min, b.Max)
		}
	}
	return nil
}

// Model 作物分类模型
type Model interface {
	Predict(f Features) (string, error)
}

// Service 组合模型与肥料推荐
type Service struct {
	model Model
}

// NewService 创建推荐服务，model 为空时使用默认的最近质心模型
func NewService(model Model) *Service {
	if model == nil {
		model = NewNearestCentroid()
	}
	return &Service{model: model}
}

// Recommend 返回推荐作物与对应肥料
func (s *Service) Recommend(f Features) (crop, fertilizer string, err error) {
	if err = f.Validate(); err != nil {
		return "", "", err
	}
	crop, err = s.model.Predict(f)
	if err != nil {
		return "", "", fmt.Errorf("predict crop: %w", err)
	}
	return crop, Fertilizer(crop), nil
}
