package flows

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-agrisense/apiclient"
	"go-agrisense/models"
)

func fullSample() models.SoilSample {
	return models.SoilSample{
		Nitrogen: "90", Phosphorus: "42", Potassium: "43",
		Temperature: "20.8", Humidity: "82", PH: "6.5", Rainfall: "202.9",
	}
}

type stubPredictor struct {
	calls  atomic.Int32
	sample models.SoilSample
	result *models.PredictionResult
	err    error
}

func (s *stubPredictor) PredictCrop(_ context.Context, sample models.SoilSample) (*models.PredictionResult, error) {
	s.calls.Add(1)
	s.sample = sample
	return s.result, s.err
}

// blockingPredictor 在 release 关闭前不返回
type blockingPredictor struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingPredictor) PredictCrop(ctx context.Context, _ models.SoilSample) (*models.PredictionResult, error) {
	b.calls.Add(1)
	close(b.started)
	select {
	case <-b.release:
		return &models.PredictionResult{PredictedCrop: "maize", PredictionID: 1}, nil
	case <-ctx.Done():
		return nil, &apiclient.ServiceError{Err: ctx.Err()}
	}
}

func TestSubmitMissingFieldsSendsNothing(t *testing.T) {
	p := &stubPredictor{}
	f := NewPredictionFlow(p)

	sample := fullSample()
	sample.PH = ""
	sample.Nitrogen = "  "
	_, err := f.Submit(context.Background(), sample)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{models.FieldNitrogen, models.FieldPH}, ve.Missing)
	assert.Zero(t, p.calls.Load())
	assert.IsType(t, Idle{}, f.State())
}

func TestSubmitSendsSevenValuesOnce(t *testing.T) {
	p := &stubPredictor{result: &models.PredictionResult{
		Success: true, PredictionID: 42, PredictedCrop: "rice", FertilizerRecommendation: "Urea",
	}}
	var states []PredictionState
	f := NewPredictionFlow(p, WithStateListener(func(s PredictionState) { states = append(states, s) }))

	res, err := f.Submit(context.Background(), fullSample())
	require.NoError(t, err)
	assert.Equal(t, "rice", res.PredictedCrop)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.Equal(t, fullSample(), p.sample)

	require.Len(t, states, 2)
	assert.IsType(t, Pending{}, states[0])
	assert.Equal(t, Succeeded{Result: *res}, f.State())
	assert.True(t, f.CanSubmit())
}

func TestSecondSubmitWhilePendingIsIgnored(t *testing.T) {
	b := &blockingPredictor{started: make(chan struct{}), release: make(chan struct{})}
	f := NewPredictionFlow(b)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.Submit(context.Background(), fullSample())
		assert.NoError(t, err)
	}()

	<-b.started
	assert.IsType(t, Pending{}, f.State())
	assert.False(t, f.CanSubmit())

	_, err := f.Submit(context.Background(), fullSample())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(b.release)
	wg.Wait()
	assert.EqualValues(t, 1, b.calls.Load())
	assert.IsType(t, Succeeded{}, f.State())
}

func TestSubmitTimeoutEndsInFailure(t *testing.T) {
	b := &blockingPredictor{started: make(chan struct{}), release: make(chan struct{})}
	f := NewPredictionFlow(b, WithTimeout(20*time.Millisecond))

	_, err := f.Submit(context.Background(), fullSample())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Failed{Message: GenericErrorMessage}, f.State())
	assert.True(t, f.CanSubmit())
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "invalid input", FailureMessage(&apiclient.ServiceError{StatusCode: 400, Message: "invalid input"}))
	assert.Equal(t, GenericErrorMessage, FailureMessage(&apiclient.ServiceError{StatusCode: 500}))
	assert.Equal(t, GenericErrorMessage, FailureMessage(errors.New("boom")))
}

func TestResubmitClearsPreviousError(t *testing.T) {
	p := &stubPredictor{err: &apiclient.ServiceError{StatusCode: 400, Message: "invalid input"}}
	f := NewPredictionFlow(p)

	_, err := f.Submit(context.Background(), fullSample())
	require.Error(t, err)
	assert.Equal(t, Failed{Message: "invalid input"}, f.State())

	p.err = nil
	p.result = &models.PredictionResult{PredictedCrop: "maize", PredictionID: 2}
	_, err = f.Submit(context.Background(), fullSample())
	require.NoError(t, err)
	view := RenderPrediction(f.State())
	assert.Empty(t, view.Error)
	assert.Equal(t, "Maize", view.Crop)
}

func TestRenderPrediction(t *testing.T) {
	v := RenderPrediction(Succeeded{Result: models.PredictionResult{
		PredictedCrop: "rice", FertilizerRecommendation: "Urea", PredictionID: 42,
	}})
	assert.Equal(t, "Rice", v.Crop)
	assert.Equal(t, "Urea", v.Fertilizer)
	assert.Equal(t, "Prediction ID: 42", v.PredictionID)
	assert.True(t, v.HasResult())
	assert.False(t, v.Busy)

	v = RenderPrediction(Idle{})
	assert.Equal(t, ResultPlaceholder, v.Placeholder)
	assert.False(t, v.HasResult())

	assert.True(t, RenderPrediction(Pending{}).Busy)
	assert.Equal(t, "invalid input", RenderPrediction(Failed{Message: "invalid input"}).Error)
}

func TestPredictionFlowOverHTTP(t *testing.T) {
	client := apiclient.New(apiclient.Config{BaseURL: "http://agrisense.test", Timeout: time.Second})
	mt := httpmock.NewMockTransport()
	client.HTTPClient().Transport = mt
	f := NewPredictionFlow(client)

	mt.RegisterResponder(http.MethodPost, "http://agrisense.test"+apiclient.PathPredict,
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{"success": false, "error": "invalid input"}))
	_, err := f.Submit(context.Background(), fullSample())
	require.Error(t, err)
	assert.Equal(t, "invalid input", RenderPrediction(f.State()).Error)

	mt.RegisterResponder(http.MethodPost, "http://agrisense.test"+apiclient.PathPredict,
		httpmock.NewJsonResponderOrPanic(http.StatusInternalServerError, map[string]any{"success": false}))
	_, err = f.Submit(context.Background(), fullSample())
	require.Error(t, err)
	assert.Equal(t, GenericErrorMessage, RenderPrediction(f.State()).Error)

	mt.RegisterResponder(http.MethodPost, "http://agrisense.test"+apiclient.PathPredict,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"success": true, "prediction_id": 42, "predicted_crop": "rice", "fertilizer_recommendation": "Urea",
		}))
	_, err = f.Submit(context.Background(), fullSample())
	require.NoError(t, err)
	v := RenderPrediction(f.State())
	assert.Equal(t, "Rice", v.Crop)
	assert.Equal(t, "Prediction ID: 42", v.PredictionID)
	assert.Equal(t, 3, mt.GetTotalCallCount())
}
