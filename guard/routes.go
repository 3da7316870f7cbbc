package guard

import (
	"errors"
	"strings"

	"go-agrisense/session"
)

// 路由路径
const (
	RootPath           = "/"
	LoginPath          = "/login"
	RegisterPath       = "/register"
	DashboardPath      = "/dashboard"
	CropPredictionPath = "/crop-prediction"
)

// ErrUnknownRoute 未注册的路径
var ErrUnknownRoute = errors.New("unknown route")

// Route 路由表条目
type Route struct {
	Path      string
	Title     string
	Protected bool
}

var routeTable = map[string]Route{
	LoginPath:          {Path: LoginPath, Title: "Login"},
	RegisterPath:       {Path: RegisterPath, Title: "Register"},
	DashboardPath:      {Path: DashboardPath, Title: "Dashboard", Protected: true},
	CropPredictionPath: {Path: CropPredictionPath, Title: "Crop Prediction", Protected: true},
}

// Routes 返回所有可导航的路由
func Routes() []Route {
	return []Route{
		routeTable[LoginPath],
		routeTable[RegisterPath],
		routeTable[DashboardPath],
		routeTable[CropPredictionPath],
	}
}

// Outcome 导航结果
type Outcome struct {
	Decision   Decision
	RedirectTo string // Decision 为 Redirect 时有效
}

// Resolve 解析路径并对受保护路由应用守卫
func Resolve(path string, s session.Session) (Route, Outcome, error) {
	path = normalize(path)
	if path == RootPath {
		return routeTable[DashboardPath], Outcome{Decision: Redirect, RedirectTo: DashboardPath}, nil
	}
	route, ok := routeTable[path]
	if !ok {
		return Route{}, Outcome{}, ErrUnknownRoute
	}
	if !route.Protected {
		return route, Outcome{Decision: Allow}, nil
	}
	d := Decide(s)
	out := Outcome{Decision: d}
	if d == Redirect {
		out.RedirectTo = LoginPath
	}
	return route, out, nil
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return RootPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return RootPath
		}
	}
	return path
}
