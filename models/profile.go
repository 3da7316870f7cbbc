package models

import "time"

// FarmerProfile 农户档案，每个用户一条
type FarmerProfile struct {
	ID        int       `json:"id"`
	User      User      `json:"user"`
	Location  string    `json:"location"`
	FarmSize  float64   `json:"farm_size"` // 英亩
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileRequest 创建或更新档案的请求
type ProfileRequest struct {
	Location string  `json:"location" binding:"required,max=100"`
	FarmSize float64 `json:"farm_size" binding:"gte=0"`
}
