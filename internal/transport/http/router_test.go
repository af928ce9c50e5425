package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openlang/backend/internal/config"
	"openlang/backend/internal/domain"
	"openlang/backend/internal/health"
	"openlang/backend/internal/mailer"
	"openlang/backend/internal/monitoring"
	"openlang/backend/internal/ratelimit"
	"openlang/backend/internal/storage"
	"openlang/backend/internal/storage/memory"
	"openlang/backend/internal/submission"
)

const operatorAddress = "team@openlang.org"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []*mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mailer.Message(nil), s.sent...)
}

type failingStore struct{}

func (failingStore) Insert(context.Context, domain.Record) error {
	return errors.New(`pq: relation "voicera_interest_leads" does not exist`)
}
func (failingStore) Health() error { return nil }
func (failingStore) Close() error  { return nil }

type testServer struct {
	router  *gin.Engine
	store   *memory.Store
	sender  *recordingSender
	metrics *monitoring.Metrics
}

func testConfig() *config.Config {
	return &config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
		},
	}
}

func newTestServer(t *testing.T, store storage.Store) *testServer {
	t.Helper()

	sender := &recordingSender{}
	metrics := monitoring.NewMetrics()
	dispatcher := mailer.NewDispatcher(sender, mail.Address{Name: "OpenLang", Address: "noreply@openlang.org"}, operatorAddress, zap.NewNop())
	limiter := ratelimit.NewMemoryLimiter(ratelimit.DefaultMax, ratelimit.DefaultWindow)
	t.Cleanup(func() { _ = limiter.Close() })

	var services []*submission.Service
	for _, form := range submission.Forms() {
		services = append(services, submission.NewService(form, store, limiter, dispatcher, metrics, zap.NewNop()))
	}

	hc := health.NewHealthChecker(zap.NewNop(), "test")
	hc.AddDependency("store", store)

	ts := &testServer{
		router: NewRouter(RouterDependencies{
			Config:   testConfig(),
			Services: services,
			Health:   hc,
			Metrics:  metrics,
			Logger:   zap.NewNop(),
		}),
		sender:  sender,
		metrics: metrics,
	}
	if mem, ok := store.(*memory.Store); ok {
		ts.store = mem
	}
	return ts
}

func (ts *testServer) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestRouter_VoiceraInterestEndToEnd(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())

	w := ts.post("/api/voicera-interest",
		`{"email":"a@b.com","full_name":"Jane Doe","organization_name":"Acme","use_case":"voice IVR"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.EmailSent)
	assert.Equal(t, submission.VoiceraInterestForm().SuccessMessage, resp.Message)

	records := ts.store.Records("voicera_interest_leads")
	require.Len(t, records, 1)
	lead := records[0].(*domain.InterestLead)
	assert.Equal(t, "VoicERA Website", lead.Source)
	require.NotNil(t, lead.FullName)
	assert.Equal(t, "Jane Doe", *lead.FullName)

	sent := ts.sender.messages()
	require.Len(t, sent, 2)
	byRecipient := map[string]*mailer.Message{}
	for _, msg := range sent {
		require.Len(t, msg.To, 1)
		byRecipient[msg.To[0]] = msg
	}
	require.Contains(t, byRecipient, "a@b.com")
	require.Contains(t, byRecipient, operatorAddress)
	assert.Equal(t, "a@b.com", byRecipient[operatorAddress].ReplyTo)
}

func TestRouter_RejectsInvalidEmail(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())

	w := ts.post("/api/voicera-interest", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, strings.ToLower(decodeError(t, w)), "email")

	assert.Equal(t, 0, ts.store.Count("voicera_interest_leads"))
	assert.Empty(t, ts.sender.messages())
}

func TestRouter_BadRequests(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"非法 JSON", "/api/contact", `{"email":`, MsgInvalidJSON},
		{"JSON 数组", "/api/contact", `[1,2,3]`, MsgInvalidJSON},
		{"缺少必填字段", "/api/contact", `{"email":"a@b.com"}`, "Missing required fields: name, message"},
		{"分类不在枚举内", "/api/inquiry", `{"email":"a@b.com","category":"Sales","question":"hi"}`, "Invalid category"},
		{"字段类型错误", "/api/panel-registration", `{"email":"a@b.com","full_name":42}`, "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.post(tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), tt.want)
		})
	}

	assert.Empty(t, ts.sender.messages())
}

func TestRouter_RateLimit(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())
	body := `{"email":"repeat@example.com","name":"Ravi","message":"Hello"}`

	for i := 0; i < ratelimit.DefaultMax; i++ {
		require.Equal(t, http.StatusOK, ts.post("/api/contact", body).Code, "submission %d", i+1)
	}

	w := ts.post("/api/contact", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, MsgRateLimited, decodeError(t, w))
	assert.Equal(t, ratelimit.DefaultMax, ts.store.Count("contact_submissions"))

	// 同一邮箱在其他表单上单独计数
	assert.Equal(t, http.StatusOK, ts.post("/api/voicera-interest", `{"email":"repeat@example.com"}`).Code)
}

func TestRouter_PersistenceFailure(t *testing.T) {
	ts := newTestServer(t, failingStore{})

	w := ts.post("/api/voicera-interest", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgPersistenceFailed, decodeError(t, w))
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Empty(t, ts.sender.messages())
}

func TestRouter_CORS(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())

	t.Run("预检请求", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://openlang.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type,apikey")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, allowed, "content-type")
		assert.Contains(t, allowed, "x-client-info")
		assert.Equal(t, 0, ts.store.Count("contact_submissions"))
	})

	t.Run("实际请求", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/voicera-interest", strings.NewReader(`{"email":"cors@example.com"}`))
		req.Header.Set("Origin", "https://openlang.example")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRouter_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())

	big := `{"email":"a@b.com","name":"x","message":"` + strings.Repeat("a", 70*1024) + `"}`
	w := ts.post("/api/contact", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, ts.store.Count("contact_submissions"))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, memory.NewStore())
	require.Equal(t, http.StatusOK, ts.post("/api/voicera-interest", `{"email":"a@b.com"}`).Code)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	var report health.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, health.StatusHealthy, report.Status)

	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusOK, get("/health/ready").Code)

	w = get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openlang_submissions_total")
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.SubmissionsTotal.WithLabelValues(submission.FormVoicera, monitoring.OutcomeAccepted)))

	w = get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgNotFound, decodeError(t, w))
}
