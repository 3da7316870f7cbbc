package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenID(t *testing.T) {
	a, err := NewTokenID()
	require.NoError(t, err)
	b, err := NewTokenID()
	require.NoError(t, err)

	assert.True(t, ValidateTokenID(a))
	assert.NotEqual(t, a, b)
	assert.False(t, ValidateTokenID("short"))
	assert.False(t, ValidateTokenID("!!!!!!!!!!!!!!!!!!!!!"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Rice", Capitalize("rice"))
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Éclair", Capitalize("éclair"))
}

func TestBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequest(c, "invalid input")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "invalid input", body.Error)
}
