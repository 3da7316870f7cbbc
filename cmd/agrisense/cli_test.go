package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-agrisense/apiclient"
	"go-agrisense/dao"
	"go-agrisense/flows"
	"go-agrisense/middleware"
	"go-agrisense/models"
	"go-agrisense/routes"
	"go-agrisense/session"
)

type harness struct {
	mem     *dao.Memory
	srv     *httptest.Server
	baseURL string
	tokens  *session.FileTokenStore
	last    *app // 最近一次 run 创建的依赖
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := dao.NewMemory()
	srv := httptest.NewServer(routes.SetupRouter(routes.Dependencies{
		Users:       mem.Users,
		Profiles:    mem.Profiles,
		Predictions: mem.Predictions,
		Detections:  mem.Detections,
		Tokens:      middleware.NewTokenIssuer("cli-test-secret", time.Hour),
	}))
	t.Cleanup(srv.Close)
	return &harness{
		mem:     mem,
		srv:     srv,
		baseURL: srv.URL,
		tokens:  session.NewFileTokenStore(filepath.Join(t.TempDir(), "session.yaml")),
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	h.last = nil
	cmd, cleanup := newRootCmd(func(_ string, _ bool, out io.Writer) (*app, error) {
		client := apiclient.New(apiclient.Config{BaseURL: h.baseURL, Timeout: 5 * time.Second})
		h.last = newApp(client, h.tokens, zap.NewNop(), out)
		return h.last, nil
	})
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	cleanup()
	return buf.String(), err
}

var predictArgs = []string{
	"predict",
	"--nitrogen", "90", "--phosphorus", "42", "--potassium", "43",
	"--temperature", "20.8", "--humidity", "82", "--ph", "6.5", "--rainfall", "202.9",
}

func TestProtectedCommandsRedirectWhenSignedOut(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "dashboard")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "agrisense login")
	assert.NotContains(t, out, "Welcome")

	out, err = h.run(t, predictArgs...)
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "redirect to /login")
	assert.NotContains(t, out, "Prediction ID")

	preds, err := h.mem.Predictions.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestUnreachableServiceKeepsSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "register", "--username", "amina", "--password", "secret1")
	require.NoError(t, err)
	saved, err := h.tokens.Load()
	require.NoError(t, err)
	require.NotEmpty(t, saved)

	h.srv.Close()

	out, err := h.run(t, "dashboard")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, flows.GenericErrorMessage)
	assert.NotContains(t, out, "redirect to /login")

	out, err = h.run(t, "whoami")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, flows.GenericErrorMessage)

	tok, err := h.tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, tok)
}

func TestRejectedTokenIsDiscarded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.Save("not-a-jwt"))

	out, err := h.run(t, "dashboard")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "redirect to /login")

	tok, err := h.tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestAppClosedWhenCommandFails(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "login", "--username", "ghost", "--password", "nope")
	require.ErrorIs(t, err, errReported)
	require.NotNil(t, h.last)
	assert.True(t, h.last.closed)

	_, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.True(t, h.last.closed)
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "register", "--username", "amina", "--password", "secret1", "--first-name", "Amina")
	require.NoError(t, err)
	assert.Contains(t, out, "Amina")

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "username: amina")

	out, err = h.run(t, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Amina!")
	assert.Contains(t, out, "No crop predictions yet. Start by making a prediction!")
	assert.Contains(t, out, "No disease detections yet. Upload a plant image to get started!")

	out, err = h.run(t, predictArgs...)
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction ID: 1")
	assert.Contains(t, out, "Recommended Fertilizer")

	h.mem.Detections.Add(models.DiseaseDetection{
		UserID: 1, Image: "leaf.jpg", PlantType: "tomato", DetectedDisease: "Early Blight", ConfidenceScore: 0.873,
	})
	out, err = h.run(t, "open", "/")
	require.NoError(t, err)
	assert.Contains(t, out, "Early Blight")
	assert.Contains(t, out, "87%")
	assert.NotContains(t, out, "No crop predictions yet")

	out, err = h.run(t, "profile", "set", "--location", "Kano", "--farm-size", "12.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Kano")

	out, err = h.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	tok, err := h.tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestPredictMissingField(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "register", "--username", "amina", "--password", "secret1")
	require.NoError(t, err)

	out, err := h.run(t, "predict", "--nitrogen", "90")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "please fill in all fields")
	assert.Contains(t, out, "rainfall")
}

func TestPredictServiceRejection(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "register", "--username", "amina", "--password", "secret1")
	require.NoError(t, err)

	args := append([]string{}, predictArgs...)
	args[len(args)-3] = "15" // --ph
	out, err := h.run(t, args...)
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "ph must be between 0 and 14")
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "login", "--username", "ghost", "--password", "nope")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "invalid username or password")
}

func TestOpenUnknownRoute(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "open", "/disease-detection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown route")
}

func TestOpenCropPredictionShowsForm(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "register", "--username", "amina", "--password", "secret1")
	require.NoError(t, err)

	out, err := h.run(t, "open", "crop-prediction")
	require.NoError(t, err)
	assert.Contains(t, out, "Annual Rainfall (mm)")
}

func TestRecords(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "register", "--username", "amina", "--password", "secret1")
	require.NoError(t, err)
	_, err = h.run(t, predictArgs...)
	require.NoError(t, err)

	out, err := h.run(t, "records")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "page 1 of 1, 1 records")

	out, err = h.run(t, "records", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction ID: 1")
	assert.Contains(t, out, "Annual Rainfall (mm)")

	out, err = h.run(t, "records", "99")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "prediction not found")
}
