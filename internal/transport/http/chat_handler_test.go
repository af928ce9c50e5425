package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openlang/backend/internal/chat"
	"openlang/backend/internal/config"
	"openlang/backend/internal/monitoring"
)

func sseChunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": content}}},
	})
	return "data: " + string(b) + "\n\n"
}

func newChatRouter(t *testing.T, gateway http.HandlerFunc) (*gin.Engine, *monitoring.Metrics) {
	t.Helper()

	var client *chat.Client
	if gateway != nil {
		srv := httptest.NewServer(gateway)
		t.Cleanup(srv.Close)
		client = chat.NewClient(config.ChatConfig{
			APIKey:   "sk-test",
			Endpoint: srv.URL + "/v1/chat/completions",
			Model:    "test-model",
			Timeout:  5 * time.Second,
		}, srv.Client())
	}

	metrics := monitoring.NewMetrics()
	router := NewRouter(RouterDependencies{
		Config:  testConfig(),
		Chat:    client,
		Metrics: metrics,
		Logger:  zap.NewNop(),
	})
	return router, metrics
}

func postChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatHandler_StreamsUnmodified(t *testing.T) {
	upstream := sseChunk("Pricing depends on the deployment. ") + sseChunk("INQUIRY_") + sseChunk("NEEDED") + "data: [DONE]\n\n"

	router, metrics := newChatRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range strings.SplitAfter(upstream, "\n\n") {
			fmt.Fprint(w, part)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	})

	w := postChat(router, `{"messages":[{"role":"user","content":"How much does VoicERA cost?"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, upstream, w.Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChatRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChatInquiryHints))
}

func TestChatHandler_PlainAnswer(t *testing.T) {
	router, metrics := newChatRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("VoicERA is open source.")+"data: [DONE]\n\n")
	})

	w := postChat(router, `{"messages":[{"role":"user","content":"What is VoicERA?"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ChatInquiryHints))
}

func TestChatHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int // 网关返回的状态码，0 表示未配置网关
		body     string
		wantCode int
		wantMsg  string
		result   string
	}{
		{"未配置", 0, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusInternalServerError, MsgChatNotConfigured, "not_configured"},
		{"网关限流", http.StatusTooManyRequests, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusTooManyRequests, MsgChatRateLimited, "rate_limited"},
		{"额度耗尽", http.StatusPaymentRequired, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusPaymentRequired, MsgChatCreditsExceeded, "payment_required"},
		{"网关故障", http.StatusBadGateway, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusInternalServerError, MsgChatUnavailable, "upstream_error"},
		{"空对话", http.StatusOK, `{"messages":[]}`, http.StatusBadRequest, "invalid conversation", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gateway http.HandlerFunc
			if tt.status != 0 {
				gateway = func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "upstream says no", tt.status)
				}
			}
			router, metrics := newChatRouter(t, gateway)

			w := postChat(router, tt.body)
			require.Equal(t, tt.wantCode, w.Code)
			msg := decodeError(t, w)
			assert.Contains(t, msg, tt.wantMsg)
			assert.NotContains(t, msg, "upstream says no")
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChatRequestsTotal.WithLabelValues(tt.result)))
		})
	}
}

func TestChatHandler_InvalidJSON(t *testing.T) {
	router, _ := newChatRouter(t, nil)

	w := postChat(router, `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgInvalidJSON, decodeError(t, w))
}
