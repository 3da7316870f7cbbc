// Package guard 决定受保护视图能否渲染
package guard

import (
	"sync"

	"go-agrisense/session"
)

// Decision 守卫对一次会话快照的判断
type Decision int

const (
	Pending  Decision = iota // 会话仍在加载，不渲染也不跳转
	Allow                    // 渲染受保护内容
	Redirect                 // 跳转到登录页
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decide 纯函数，加载中永远不会跳转
func Decide(s session.Session) Decision {
	switch {
	case s.IsLoading:
		return Pending
	case s.Identity != nil:
		return Allow
	default:
		return Redirect
	}
}

// ViewState 受保护视图的状态
type ViewState int

const (
	Loading ViewState = iota
	Allowed
	Redirected
)

func (v ViewState) String() string {
	switch v {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// ViewGuard 单个受保护视图的状态机 Loading -> Allowed | Redirected
type ViewGuard struct {
	onRedirect func(to string)

	mu      sync.Mutex
	state   ViewState
	lastSeq uint64
}

// NewViewGuard onRedirect 在进入 Redirected 时调用一次
func NewViewGuard(onRedirect func(to string)) *ViewGuard {
	return &ViewGuard{onRedirect: onRedirect}
}

// State 当前状态
func (g *ViewGuard) State() ViewState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Observe 根据新会话迁移状态，比已观察到的更旧的快照被忽略
func (g *ViewGuard) Observe(s session.Session) ViewState {
	var next ViewState
	switch Decide(s) {
	case Pending:
		next = Loading
	case Allow:
		next = Allowed
	default:
		next = Redirected
	}

	g.mu.Lock()
	if s.Seq() < g.lastSeq {
		current := g.state
		g.mu.Unlock()
		return current
	}
	g.lastSeq = s.Seq()
	entered := next == Redirected && g.state != Redirected
	g.state = next
	g.mu.Unlock()

	if entered && g.onRedirect != nil {
		g.onRedirect(LoginPath)
	}
	return next
}

// Attach 订阅会话变化，并用订阅时的快照初始化
func (g *ViewGuard) Attach(store *session.Store) (detach func()) {
	snapshot, unsubscribe := store.SubscribeCurrent(func(s session.Session) { g.Observe(s) })
	g.Observe(snapshot)
	return unsubscribe
}
