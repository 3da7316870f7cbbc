package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"go-agrisense/apiclient"
	"go-agrisense/config"
	"go-agrisense/flows"
	"go-agrisense/guard"
	"go-agrisense/session"
)

// errReported 错误已经输出给用户，只需要非零退出码
var errReported = errors.New("reported")

// app 一次命令执行所需的依赖
type app struct {
	logger *zap.Logger
	client *apiclient.Client
	store  *session.Store
	out    io.Writer

	closeOnce sync.Once
	closed    bool
}

type appFactory func(configFile string, verbose bool, out io.Writer) (*app, error)

// loadApp 从配置文件和环境变量构建依赖
func loadApp(configFile string, verbose bool, out io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if !verbose {
		cfg.Log.Level = "warn"
	}
	cfg.Log.Development = true
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
	})
	tokens := session.NewFileTokenStore(cfg.Client.SessionFile)
	return newApp(client, tokens, logger, out), nil
}

func newApp(client *apiclient.Client, tokens session.TokenStore, logger *zap.Logger, out io.Writer) *app {
	return &app{
		logger: logger,
		client: client,
		store:  session.New(client, tokens, logger),
		out:    out,
	}
}

// close 可重复调用
func (a *app) close() {
	a.closeOnce.Do(func() {
		a.store.Close()
		_ = a.logger.Sync()
		a.closed = true
	})
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

// enter 解析会话并对目标路由执行守卫。
// 未登录访问受保护路由或无法验证会话时已向用户输出原因，返回 errReported。
func (a *app) enter(ctx context.Context, path string) (guard.Route, session.Session, error) {
	route, _, err := guard.Resolve(path, session.Session{IsLoading: true})
	if err != nil {
		return guard.Route{}, session.Session{}, fmt.Errorf("%w: %s", err, path)
	}

	var redirectTo string
	g := guard.NewViewGuard(func(to string) { redirectTo = to })
	if route.Protected {
		detach := g.Attach(a.store)
		defer detach()
	}

	sess, err := a.store.Resolve(ctx)
	if err != nil {
		a.println(errorStyle.Render(flows.FailureMessage(err)))
		return route, sess, errReported
	}
	if route.Protected && g.State() != guard.Allowed {
		if redirectTo == "" {
			redirectTo = guard.LoginPath
		}
		a.println(renderRedirect(route, redirectTo))
		return route, sess, errReported
	}
	return route, sess, nil
}
