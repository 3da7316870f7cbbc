package models

import "time"

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PredictionFilter 预测记录查询条件
type PredictionFilter struct {
	Page      int
	PageSize  int
	Crop      string    // 模糊匹配
	StartDate time.Time // 零值表示不限
	EndDate   time.Time
}

// Normalize 修正非法的分页参数
func (f PredictionFilter) Normalize() PredictionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset 当前页之前的记录数
func (f PredictionFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// HasDateRange 是否同时指定了起止日期
func (f PredictionFilter) HasDateRange() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

// PredictionPage 分页后的预测记录
type PredictionPage struct {
	Data        []CropPrediction `json:"data"`
	TotalCount  int              `json:"totalCount"`
	CurrentPage int              `json:"currentPage"`
	PageSize    int              `json:"pageSize"`
}
