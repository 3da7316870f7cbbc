package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// errorBody 服务端错误响应中的 error 字段
type errorBody struct {
	Error string `json:"error"`
}

// ServiceError 非 2xx 响应或网络失败
type ServiceError struct {
	StatusCode int    // 0 表示请求未得到响应
	Message    string // 服务端 error 字段，可能为空
	Err        error  // 传输层错误
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("service request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("service error (%d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("service error (%d)", e.StatusCode)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// AuthError 登录或注册失败
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("authentication failed: %v", e.Err)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("authentication failed (%d)", e.StatusCode)
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// InvalidCredentials 服务端拒绝了凭证
func (e *AuthError) InvalidCredentials() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized 服务端明确拒绝了令牌（401），网络失败和其他状态码返回 false
func IsUnauthorized(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
