package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestSuccess(t *testing.T) {
	c, w := newCtx()
	Success(c, 0, map[string]int{"n": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"n": float64(1)}, body["data"])
	_, hasErr := body["error"]
	assert.False(t, hasErr)
}

func TestSuccess_NilDataKept(t *testing.T) {
	c, w := newCtx()
	Success[any](c, http.StatusCreated, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
}

func TestError(t *testing.T) {
	c, w := newCtx()
	Error(c, http.StatusGone, CodeNotEligible, "restore window has passed", nil)

	assert.Equal(t, http.StatusGone, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_ELIGIBLE","message":"restore window has passed"}}`, w.Body.String())
}

func TestAbort_WithDetails(t *testing.T) {
	c, w := newCtx()
	Abort(c, http.StatusBadRequest, CodeBadRequest, "invalid request", map[string]string{"email": "is required"})

	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"success":false,"error":{"code":"BAD_REQUEST","message":"invalid request","details":{"email":"is required"}}}`, w.Body.String())
}
