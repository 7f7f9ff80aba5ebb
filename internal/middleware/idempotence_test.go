package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotenceRouter(t *testing.T) (*gin.Engine, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	var hits int32
	r := gin.New()
	r.Use(Idempotence(rdb))
	handler := func(c *gin.Context) {
		atomic.AddInt32(&hits, 1)
		c.JSON(http.StatusOK, gin.H{"hits": atomic.LoadInt32(&hits)})
	}
	r.POST("/api/v1/views/question/:id", handler)
	r.POST("/api/v1/reports", handler)
	r.POST("/api/v1/auth/login", handler)
	return r, &hits
}

func postIdentical(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token-1")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotenceAllowsRepeatViews(t *testing.T) {
	r, hits := newIdempotenceRouter(t)

	first := postIdentical(r, "/api/v1/views/question/q1", "")
	second := postIdentical(r, "/api/v1/views/question/q1", "")

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestIdempotenceBlocksDuplicatePost(t *testing.T) {
	r, hits := newIdempotenceRouter(t)

	first := postIdentical(r, "/api/v1/reports", `{"reason_id":"r1"}`)
	second := postIdentical(r, "/api/v1/reports", `{"reason_id":"r1"}`)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestIdempotenceDistinctBodiesPass(t *testing.T) {
	r, hits := newIdempotenceRouter(t)

	first := postIdentical(r, "/api/v1/reports", `{"reason_id":"r1"}`)
	second := postIdentical(r, "/api/v1/reports", `{"reason_id":"r2"}`)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestIdempotenceSkipsLogin(t *testing.T) {
	r, hits := newIdempotenceRouter(t)

	for i := 0; i < 2; i++ {
		w := postIdentical(r, "/api/v1/auth/login", `{"login":"jo","password":"pw"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}
