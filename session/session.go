// Package session 维护客户端的登录状态
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"go-agrisense/apiclient"
	"go-agrisense/models"
)

// Session 当前会话快照，Identity 为空表示未登录
type Session struct {
	Identity  *models.User
	IsLoading bool

	seq uint64 // 由 Store 发布时递增，字面量构造的快照为 0
}

// Seq 发布序号，数值越大越新
func (s Session) Seq() uint64 { return s.seq }

// Authenticated 会话已解析且存在用户
func (s Session) Authenticated() bool {
	return !s.IsLoading && s.Identity != nil
}

// Authenticator 会话依赖的远程认证接口，由 apiclient.Client 实现
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	SetToken(token string)
}

type listener struct {
	id int
	fn func(Session)
}

// Store 会话存储，所有方法可并发调用
type Store struct {
	auth   Authenticator
	tokens TokenStore
	logger *zap.Logger

	mu        sync.RWMutex
	current   Session
	seq       uint64
	listeners []listener
	nextID    int
}

// New 创建处于加载状态的会话存储
func New(auth Authenticator, tokens TokenStore, logger *zap.Logger) *Store {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		auth:    auth,
		tokens:  tokens,
		logger:  logger,
		current: Session{IsLoading: true},
	}
}

// Current 返回当前会话
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Resolve 用已保存的令牌恢复会话，结束后 IsLoading 一定为 false。
// 只有服务端返回 401 时才丢弃令牌；网络失败或其他错误保留令牌并返回错误。
func (s *Store) Resolve(ctx context.Context) (Session, error) {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("读取会话令牌失败", zap.Error(err))
	}
	if token == "" {
		return s.publish(Session{}), nil
	}

	s.auth.SetToken(token)
	user, err := s.auth.CurrentUser(ctx)
	switch {
	case err == nil:
		return s.publish(Session{Identity: user}), nil
	case apiclient.IsUnauthorized(err):
		s.logger.Info("已保存的令牌无效，丢弃", zap.Error(err))
		s.auth.SetToken("")
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("清除会话令牌失败", zap.Error(err))
		}
		return s.publish(Session{}), nil
	default:
		s.logger.Warn("无法验证会话令牌，保留令牌", zap.Error(err))
		return s.publish(Session{}), err
	}
}

// Login 登录成功后保存令牌并发布新会话，失败时会话不变
func (s *Store) Login(ctx context.Context, creds models.Credentials) (Session, error) {
	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		return s.Current(), err
	}
	return s.establish(resp), nil
}

// Register 注册并直接登录
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) (Session, error) {
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return s.Current(), err
	}
	return s.establish(resp), nil
}

func (s *Store) establish(resp *models.AuthResponse) Session {
	s.auth.SetToken(resp.Token)
	if err := s.tokens.Save(resp.Token); err != nil {
		s.logger.Warn("保存会话令牌失败", zap.Error(err))
	}
	user := resp.User
	return s.publish(Session{Identity: &user})
}

// Logout 先清除本地状态，再尽力通知服务端注销令牌
func (s *Store) Logout(ctx context.Context) {
	token, _ := s.tokens.Load()
	hadSession := token != "" || s.Current().Identity != nil
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("清除会话令牌失败", zap.Error(err))
	}
	s.publish(Session{})

	if hadSession {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn("服务端注销失败", zap.Error(err))
		}
	}
	s.auth.SetToken("")
}

// Subscribe 注册会话变化监听，返回取消函数
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	_, unsubscribe = s.SubscribeCurrent(fn)
	return unsubscribe
}

// SubscribeCurrent 在同一把锁内取当前会话并注册监听，之后的每次发布都比返回的快照新
func (s *Store) SubscribeCurrent(fn func(Session)) (Session, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	current := s.current
	s.mu.Unlock()

	var once sync.Once
	return current, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Close 重置为未登录并移除所有监听
func (s *Store) Close() {
	s.mu.Lock()
	s.seq++
	s.current = Session{seq: s.seq}
	s.listeners = nil
	s.mu.Unlock()
}

// publish 在锁外通知监听者
func (s *Store) publish(next Session) Session {
	s.mu.Lock()
	s.seq++
	next.seq = s.seq
	s.current = next
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(next)
	}
	return next
}
