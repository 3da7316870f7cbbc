package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         int       `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// 角色常量
const (
	RoleUser  = 0 // 普通用户
	RoleAdmin = 1 // 管理员
)

// IsAdmin 检查用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName 优先使用名字，没有则使用用户名
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Credentials 登录凭证
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=6"`
	Email     string `json:"email" binding:"omitempty,email"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// AuthResponse 登录/注册成功后的响应
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
