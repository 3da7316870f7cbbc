// Package flows 实现作物预测提交与仪表盘历史加载
package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"go-agrisense/apiclient"
	"go-agrisense/models"
	"go-agrisense/utils"
)

// GenericErrorMessage 服务端未给出原因时显示的提示
const GenericErrorMessage = "An error occurred. Please try again."

// ErrSubmitInProgress 已有一次提交未完成
var ErrSubmitInProgress = errors.New("a prediction is already in progress")

// ValidationError 有字段为空，未发出请求
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please fill in all fields: %s", strings.Join(e.Missing, ", "))
}

// Predictor 远程预测接口，由 apiclient.Client 实现
type Predictor interface {
	PredictCrop(ctx context.Context, sample models.SoilSample) (*models.PredictionResult, error)
}

// PredictionState Idle、Pending、Succeeded、Failed 之一
type PredictionState interface {
	predictionState()
}

type (
	Idle      struct{}
	Pending   struct{}
	Succeeded struct{ Result models.PredictionResult }
	Failed    struct{ Message string }
)

func (Idle) predictionState()      {}
func (Pending) predictionState()   {}
func (Succeeded) predictionState() {}
func (Failed) predictionState()    {}

// Option 预测流程选项
type Option func(*PredictionFlow)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(f *PredictionFlow) { f.logger = logger }
}

// WithTimeout 单次提交的超时，0 表示只受 ctx 约束
func WithTimeout(d time.Duration) Option {
	return func(f *PredictionFlow) { f.timeout = d }
}

// WithStateListener 每次状态变化后调用
func WithStateListener(fn func(PredictionState)) Option {
	return func(f *PredictionFlow) { f.onChange = fn }
}

// PredictionFlow 同一时间只允许一次提交
type PredictionFlow struct {
	predictor Predictor
	logger    *zap.Logger
	timeout   time.Duration
	onChange  func(PredictionState)

	inFlight atomic.Bool

	mu    sync.RWMutex
	state PredictionState
}

// NewPredictionFlow 创建处于 Idle 状态的流程
func NewPredictionFlow(p Predictor, opts ...Option) *PredictionFlow {
	f := &PredictionFlow{
		predictor: p,
		logger:    zap.NewNop(),
		state:     Idle{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State 当前状态
func (f *PredictionFlow) State() PredictionState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// CanSubmit 提交中为 false
func (f *PredictionFlow) CanSubmit() bool {
	return !f.inFlight.Load()
}

// Submit 校验后发出一次预测请求
func (f *PredictionFlow) Submit(ctx context.Context, sample models.SoilSample) (*models.PredictionResult, error) {
	if missing := sample.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer f.inFlight.Store(false)

	f.setState(Pending{})

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	res, err := f.predictor.PredictCrop(ctx, sample)
	if err != nil {
		f.logger.Warn("作物预测失败", zap.Error(err))
		f.setState(Failed{Message: FailureMessage(err)})
		return nil, err
	}
	f.logger.Info("作物预测完成",
		zap.Int64("prediction_id", res.PredictionID),
		zap.String("crop", res.PredictedCrop))
	f.setState(Succeeded{Result: *res})
	return res, nil
}

func (f *PredictionFlow) setState(s PredictionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	if f.onChange != nil {
		f.onChange(s)
	}
}

// FailureMessage 优先使用服务端的 error 字段
func FailureMessage(err error) string {
	var se *apiclient.ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return GenericErrorMessage
}

// 预测表单与结果的文本
const (
	SubmitLabel        = "Predict Suitable Crop"
	ResultsTitle       = "Prediction Results"
	ResultPlaceholder  = `Enter soil parameters and click "Predict Suitable Crop" to see recommendations`
	FertilizerHeading  = "Recommended Fertilizer"
	predictionIDPrefix = "Prediction ID: "
)

// FieldLabels 表单字段的显示名
var FieldLabels = map[string]string{
	models.FieldNitrogen:    "Nitrogen (mg/kg)",
	models.FieldPhosphorus:  "Phosphorus (mg/kg)",
	models.FieldPotassium:   "Potassium (mg/kg)",
	models.FieldTemperature: "Temperature (°C)",
	models.FieldHumidity:    "Humidity (%)",
	models.FieldPH:          "pH Value",
	models.FieldRainfall:    "Annual Rainfall (mm)",
}

// PredictionView 结果区域的渲染数据
type PredictionView struct {
	Busy         bool
	Error        string
	Placeholder  string
	Crop         string
	Fertilizer   string
	PredictionID string
}

// HasResult 是否有预测结果可显示
func (v PredictionView) HasResult() bool { return v.Crop != "" }

// RenderPrediction 将状态转换为显示内容
func RenderPrediction(s PredictionState) PredictionView {
	switch st := s.(type) {
	case Pending:
		return PredictionView{Busy: true, Placeholder: ResultPlaceholder}
	case Succeeded:
		return PredictionView{
			Crop:         utils.Capitalize(st.Result.PredictedCrop),
			Fertilizer:   st.Result.FertilizerRecommendation,
			PredictionID: fmt.Sprintf("%s%d", predictionIDPrefix, st.Result.PredictionID),
		}
	case Failed:
		return PredictionView{Error: st.Message, Placeholder: ResultPlaceholder}
	default:
		return PredictionView{Placeholder: ResultPlaceholder}
	}
}
