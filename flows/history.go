package flows

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"go-agrisense/models"
	"go-agrisense/session"
)

// 仪表盘显示的条数上限
const (
	RecentPredictionsLimit = 5
	RecentDetectionsLimit  = 3
)

// 仪表盘空状态文本
const (
	NoPredictionsMessage = "No crop predictions yet. Start by making a prediction!"
	NoDetectionsMessage  = "No disease detections yet. Upload a plant image to get started!"
)

// HistoryFetcher 远程历史接口，由 apiclient.Client 实现
type HistoryFetcher interface {
	History(ctx context.Context) (*models.HistorySummary, error)
}

// HistoryStatus 历史加载进度
type HistoryStatus int

const (
	NotLoaded HistoryStatus = iota
	Loading
	Loaded
)

// HistoryFlow 仪表盘历史数据
type HistoryFlow struct {
	fetcher HistoryFetcher
	logger  *zap.Logger

	mu      sync.RWMutex
	status  HistoryStatus
	summary models.HistorySummary
	lastErr error
}

// NewHistoryFlow 创建历史流程
func NewHistoryFlow(fetcher HistoryFetcher, logger *zap.Logger) *HistoryFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryFlow{fetcher: fetcher, logger: logger}
}

// Load 已登录时请求一次历史，失败只记录日志，摘要保持为空
func (h *HistoryFlow) Load(ctx context.Context, s session.Session) {
	if !s.Authenticated() {
		h.finish(models.HistorySummary{}, nil)
		return
	}

	h.mu.Lock()
	h.status = Loading
	h.mu.Unlock()

	summary, err := h.fetcher.History(ctx)
	if err != nil {
		h.logger.Warn("获取历史记录失败", zap.Error(err))
		h.finish(models.HistorySummary{}, err)
		return
	}
	h.finish(*summary, nil)
}

func (h *HistoryFlow) finish(summary models.HistorySummary, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = summary
	h.lastErr = err
	h.status = Loaded
}

// Status 当前加载状态
func (h *HistoryFlow) Status() HistoryStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Summary 最近一次加载的结果
func (h *HistoryFlow) Summary() models.HistorySummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summary
}

// Err 最近一次加载的错误，只用于诊断
func (h *HistoryFlow) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// DetectionItem 病害识别条目
type DetectionItem struct {
	Image      string
	PlantType  string
	Disease    string
	Confidence string
}

// DashboardView 仪表盘渲染数据
type DashboardView struct {
	Greeting string

	PredictionLabels []string
	ChartValues      []int
	PredictionsEmpty string

	Detections      []DetectionItem
	DetectionsEmpty string
}

// Dashboard 根据会话和已加载的历史生成视图
func (h *HistoryFlow) Dashboard(s session.Session) DashboardView {
	summary := h.Summary()
	view := DashboardView{Greeting: Greeting(s)}

	preds := summary.CropPredictions
	if len(preds) > RecentPredictionsLimit {
		preds = preds[:RecentPredictionsLimit]
	}
	for _, p := range preds {
		view.PredictionLabels = append(view.PredictionLabels, p.PredictedCrop)
		view.ChartValues = append(view.ChartValues, 1)
	}
	if len(preds) == 0 {
		view.PredictionsEmpty = NoPredictionsMessage
	}

	dets := summary.DiseaseDetections
	if len(dets) > RecentDetectionsLimit {
		dets = dets[:RecentDetectionsLimit]
	}
	for _, d := range dets {
		view.Detections = append(view.Detections, DetectionItem{
			Image:      d.Image,
			PlantType:  d.PlantType,
			Disease:    d.DetectedDisease,
			Confidence: ConfidencePercent(d.ConfidenceScore),
		})
	}
	if len(dets) == 0 {
		view.DetectionsEmpty = NoDetectionsMessage
	}
	return view
}

// Greeting 欢迎语
func Greeting(s session.Session) string {
	if s.Identity == nil {
		return "Welcome!"
	}
	return fmt.Sprintf("Welcome, %s!", s.Identity.DisplayName())
}

// ConfidencePercent 置信度转为整数百分比，0.873 显示为 87%
func ConfidencePercent(c float64) string {
	return fmt.Sprintf("%d%%", int(math.Floor(c*100+0.5)))
}
