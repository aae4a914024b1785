package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/copenny/penny-web/internal/backend"
	"github.com/copenny/penny-web/internal/chat"
	"github.com/copenny/penny-web/internal/domain"
	"github.com/copenny/penny-web/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	assets "github.com/copenny/penny-web/web"
)

// fakeBackend records every call so tests can assert which backend
// operations fired and in what order.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	loginResult  *backend.AuthResult
	loginErr     error
	registerErr  error
	planErr      error
	tier         string
	tierErr      error
	chatResult   *backend.ChatResult
	chatErr      error
	status       *domain.PersonalizationStatus
	statusErr    error
	uploadResult *backend.UploadResult
	uploadErr    error
	trainResult  *backend.TrainResult
	trainErr     error
	deleteErr    error
	alerts       []domain.Alert
	alertsErr    error
	clearErr     error
	summary      *domain.Summary
	summaryErr   error
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) callIndex(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == name {
			return i
		}
	}
	return -1
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) Login(context.Context, string, string) (*backend.AuthResult, error) {
	f.record("Login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	return &backend.AuthResult{UserID: "u-1", Name: "Asha"}, nil
}

func (f *fakeBackend) Register(context.Context, string, string, string) (*backend.AuthResult, error) {
	f.record("Register")
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &backend.AuthResult{UserID: "u-1"}, nil
}

func (f *fakeBackend) SelectPlan(context.Context, string, string) error {
	f.record("SelectPlan")
	return f.planErr
}

func (f *fakeBackend) SubscriptionStatus(context.Context, string) (string, error) {
	f.record("SubscriptionStatus")
	return f.tier, f.tierErr
}

func (f *fakeBackend) Chat(context.Context, backend.ChatRequest) (*backend.ChatResult, error) {
	f.record("Chat")
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.chatResult != nil {
		return f.chatResult, nil
	}
	return &backend.ChatResult{Status: backend.ChatStatusSuccess, Answer: "ok"}, nil
}

func (f *fakeBackend) PersonalizationStatus(context.Context, string) (*domain.PersonalizationStatus, error) {
	f.record("PersonalizationStatus")
	return f.status, f.statusErr
}

func (f *fakeBackend) Upload(_ context.Context, _, _ string, file io.Reader, _ bool) (*backend.UploadResult, error) {
	f.record("Upload")
	_, _ = io.Copy(io.Discard, file)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadResult != nil {
		return f.uploadResult, nil
	}
	return &backend.UploadResult{Message: "uploaded"}, nil
}

func (f *fakeBackend) Train(context.Context, string) (*backend.TrainResult, error) {
	f.record("Train")
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	if f.trainResult != nil {
		return f.trainResult, nil
	}
	return &backend.TrainResult{TestAccuracy: 0.9}, nil
}

func (f *fakeBackend) DeleteData(context.Context, string) error {
	f.record("DeleteData")
	return f.deleteErr
}

func (f *fakeBackend) AlertHistory(context.Context, string) ([]domain.Alert, error) {
	f.record("AlertHistory")
	return f.alerts, f.alertsErr
}

func (f *fakeBackend) ClearAlerts(context.Context, string) error {
	f.record("ClearAlerts")
	return f.clearErr
}

func (f *fakeBackend) Summary(context.Context, string) (*domain.Summary, error) {
	f.record("Summary")
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

// fakeRepo is a minimal in-memory store for handler tests.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeRepo) GetSession(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	dup := *s
	return &dup, nil
}

func (r *fakeRepo) UpsertSession(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *s
	r.sessions[s.SessionID] = &dup
	return nil
}

func (r *fakeRepo) ClearAuth(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Authenticated = false
		s.UserID, s.UserName, s.UserEmail, s.Tier = "", "", "", ""
	}
	return nil
}

func (r *fakeRepo) SetDarkTheme(_ context.Context, id string, dark bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.DarkTheme = dark
	}
	return nil
}

func (r *fakeRepo) SetTier(_ context.Context, id, tier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Tier = tier
	}
	return nil
}

func (r *fakeRepo) TouchSession(_ context.Context, id string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastSeenAt = lastSeen
	}
	return nil
}

func (r *fakeRepo) GetExpiredSessions(context.Context, time.Duration) ([]string, error) {
	return nil, nil
}

func (r *fakeRepo) DeleteSessions(context.Context, []string) (int64, error) { return 0, nil }
func (r *fakeRepo) Ping(context.Context) error                             { return nil }
func (r *fakeRepo) Close() error                                           { return nil }

type testEnv struct {
	handler     *Handler
	repo        *fakeRepo
	backend     *fakeBackend
	transcripts *chat.TranscriptManager
	sess        *domain.Session
	router      chi.Router
}

func authedSession() *domain.Session {
	return &domain.Session{
		SessionID:     "sess_test",
		Authenticated: true,
		UserID:        "u-1",
		UserName:      "Asha",
		UserEmail:     "asha@example.com",
		Tier:          "free",
	}
}

// newTestEnv wires the handler behind the real route table with the given
// session pre-injected, standing in for the cookie middleware.
func newTestEnv(t *testing.T, sess *domain.Session) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:        newFakeRepo(),
		backend:     &fakeBackend{},
		transcripts: chat.NewTranscriptManager(),
		sess:        sess,
	}
	if sess != nil {
		if err := env.repo.UpsertSession(context.Background(), sess); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
	env.handler = NewHandler(env.repo, env.backend, env.transcripts, assets.Templates(), nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if env.sess != nil {
				req = req.WithContext(session.WithSession(req.Context(), env.sess))
			}
			next.ServeHTTP(w, req)
		})
	})
	env.handler.RegisterRoutes(r)
	env.router = r
	return env
}

func (env *testEnv) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(method, target string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return env.do(method, target, bytes.NewReader(body), "application/json")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func csvForm(t *testing.T, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range extra {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestDashboardUnauthenticatedRedirectsWithoutBackendCalls(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})

	rec := env.do(http.MethodGet, "/dashboard", nil, "")
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect location = %q, want /", loc)
	}
	if n := env.backend.totalCalls(); n != 0 {
		t.Errorf("guard must block before any backend call, got %d calls: %v", n, env.backend.calls)
	}
}

func TestLandingAuthenticatedRedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("redirect location = %q, want /dashboard", loc)
	}
}

func TestDashboardRenders(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodGet, "/dashboard?tab=chat", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "AI Advisor") {
		t.Error("active tab title missing from page")
	}
	if !strings.Contains(body, "Asha") {
		t.Error("user name missing from page")
	}
}

func TestLoginRejectsInvalidEmailWithoutBackendCall(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})

	rec := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "not-an-email", "password": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "valid email") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if env.backend.callCount("Login") != 0 {
		t.Error("invalid credentials must not reach the backend")
	}
}

func TestLoginPersistsIdentity(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})

	rec := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "asha@example.com", "password": "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Next != "/dashboard" {
		t.Errorf("response = %+v", resp)
	}

	stored, _ := env.repo.GetSession(context.Background(), "sess_test")
	if stored == nil || !stored.Authenticated || stored.UserID != "u-1" || stored.UserEmail != "asha@example.com" {
		t.Errorf("identity not persisted: %+v", stored)
	}
}

func TestLoginBackendErrorSurfacedVerbatim(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})
	env.backend.loginErr = &backend.APIError{Endpoint: "/auth/login", Message: "invalid credentials"}

	rec := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "asha@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid credentials") {
		t.Errorf("backend message dropped: %q", rec.Body.String())
	}
}

func TestLoginTransportErrorMentionsBackendPort(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})
	env.backend.loginErr = errors.New("connection refused")

	rec := env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "asha@example.com", "password": "x",
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "port 8080") {
		t.Errorf("connectivity hint missing: %q", rec.Body.String())
	}
}

func TestRegisterDirectsToPlanSelection(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})

	rec := env.doJSON(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "new@example.com", "password": "x", "name": "New User",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	decodeBody(t, rec, &resp)
	if resp.Next != "plans" {
		t.Errorf("next = %q, want plans", resp.Next)
	}
	if resp.Name != "New User" {
		t.Errorf("name = %q, registration name should fill in when the backend omits it", resp.Name)
	}
}

func TestLogoutClearsAuthAndTranscript(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.transcripts.Append("sess_test", domain.ChatMessage{Sender: domain.SenderUser, Text: "hi"})

	rec := env.do(http.MethodPost, "/api/auth/logout", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	stored, _ := env.repo.GetSession(context.Background(), "sess_test")
	if stored.Authenticated || stored.UserID != "" {
		t.Errorf("auth not cleared: %+v", stored)
	}
	if env.transcripts.Len("sess_test") != 0 {
		t.Error("transcript should be dropped at logout")
	}
}

func TestSelectPlanPersistsTier(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.doJSON(http.MethodPost, "/api/plans/select", map[string]string{"tier": "pro"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.backend.callCount("SelectPlan") != 1 {
		t.Error("plan selection should hit the backend once")
	}

	stored, _ := env.repo.GetSession(context.Background(), "sess_test")
	if stored.Tier != "pro" {
		t.Errorf("tier = %q, want pro", stored.Tier)
	}
}

func TestSelectPlanMissingTierRejected(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.doJSON(http.MethodPost, "/api/plans/select", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.backend.callCount("SelectPlan") != 0 {
		t.Error("missing tier must not reach the backend")
	}
}

func TestChatEmptyMessageRejectedWithoutSideEffects(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.doJSON(http.MethodPost, "/api/chat", map[string]string{"message": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.backend.callCount("Chat") != 0 {
		t.Error("empty message must not reach the backend")
	}
	if env.transcripts.Len("sess_test") != 0 {
		t.Error("empty message must not be appended to the transcript")
	}
}

func TestChatLimitReachedDecoratesAnswer(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.chatResult = &backend.ChatResult{Status: backend.ChatStatusLimitReached, Answer: "X"}
	env.backend.tier = "free"

	rec := env.doJSON(http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatFlowResponse
	decodeBody(t, rec, &resp)
	if len(resp.Messages) != 2 {
		t.Fatalf("expected user+bot pair, got %d messages", len(resp.Messages))
	}
	if resp.Messages[1].Text != "X 🚀" {
		t.Errorf("bot text = %q, want %q", resp.Messages[1].Text, "X 🚀")
	}
	if env.backend.callCount("SubscriptionStatus") != 1 {
		t.Error("every exchange must refresh the subscription badge")
	}
}

func TestChatBackendErrorFallsBackToGenericReply(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.chatErr = &backend.APIError{Endpoint: "/chat", Message: "model unavailable"}

	rec := env.doJSON(http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp chatFlowResponse
	decodeBody(t, rec, &resp)
	if resp.Messages[1].Text == "" || strings.Contains(resp.Messages[1].Text, "model unavailable") {
		t.Errorf("backend chat failures should render the generic fallback, got %q", resp.Messages[1].Text)
	}
	if env.transcripts.Len("sess_test") != 2 {
		t.Error("both sides of the exchange should land in the transcript")
	}
}

func TestChatTransportErrorSurfacesInTranscript(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.chatErr = errors.New("dial tcp: connection refused")

	rec := env.doJSON(http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp chatFlowResponse
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.Messages[1].Text, "connection refused") {
		t.Errorf("transport error text dropped: %q", resp.Messages[1].Text)
	}
}

func TestChatConcurrentSendsAllLand(t *testing.T) {
	env := newTestEnv(t, authedSession())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := env.doJSON(http.MethodPost, "/api/chat", map[string]string{"message": "ping"})
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
		}()
	}
	wg.Wait()

	// Completion order is unspecified; nothing may be lost.
	if got := env.transcripts.Len("sess_test"); got != 8 {
		t.Errorf("transcript length = %d, want 8", got)
	}
}

func TestUploadWithoutFileRejected(t *testing.T) {
	env := newTestEnv(t, authedSession())

	body, contentType := csvForm(t, "", "", nil)
	rec := env.do(http.MethodPost, "/api/personalization/upload", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "choose a CSV file") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if env.backend.callCount("Upload") != 0 {
		t.Error("missing file must not reach the backend")
	}
}

func TestUploadSuccessRefreshCascade(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.summary = &domain.Summary{HasData: true, Balance: decimal.NewFromInt(100)}
	env.backend.status = &domain.PersonalizationStatus{HasData: true, TotalTransactions: 10}
	env.backend.tier = "free"

	body, contentType := csvForm(t, "tx.csv", "date,amount\n", map[string]string{"overwrite": "true"})
	rec := env.do(http.MethodPost, "/api/personalization/upload", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	for _, name := range []string{"Upload", "Summary", "AlertHistory", "PersonalizationStatus", "SubscriptionStatus"} {
		if env.backend.callCount(name) != 1 {
			t.Errorf("%s fired %d times, want exactly once", name, env.backend.callCount(name))
		}
	}
	if env.backend.callIndex("Summary") > env.backend.callIndex("AlertHistory") {
		t.Errorf("summary must refresh before alerts, got order %v", env.backend.calls)
	}

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Summary == nil || resp.Alerts == nil {
		t.Errorf("refreshed panels missing from response: %+v", resp)
	}
}

func TestUploadLimitErrorShowsUpgrade(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.uploadErr = &backend.APIError{Endpoint: "/upload", Message: "Plan limit reached"}

	body, contentType := csvForm(t, "tx.csv", "x", nil)
	rec := env.do(http.MethodPost, "/api/personalization/upload", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if !resp.ShowUpgrade {
		t.Error("limit errors must raise the upgrade prompt")
	}
	if resp.Error != "Plan limit reached" {
		t.Errorf("error = %q", resp.Error)
	}
	if env.backend.callCount("Summary")+env.backend.callCount("AlertHistory") != 0 {
		t.Error("failed upload must not trigger the refresh cascade")
	}
}

func TestUploadOtherErrorNoUpgradePrompt(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.uploadErr = &backend.APIError{Endpoint: "/upload", Message: "Malformed CSV on line 3"}

	body, contentType := csvForm(t, "tx.csv", "x", nil)
	rec := env.do(http.MethodPost, "/api/personalization/upload", body, contentType)

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if resp.ShowUpgrade {
		t.Error("non-limit errors must not raise the upgrade prompt")
	}
}

func TestUploadStatusPollFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.statusErr = errors.New("status poll down")

	body, contentType := csvForm(t, "tx.csv", "x", nil)
	rec := env.do(http.MethodPost, "/api/personalization/upload", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Error("upload should still succeed when the status poll fails")
	}
	if resp.Status != nil {
		t.Error("failed status poll must not fabricate a status view")
	}
}

func TestTrainReportsAccuracy(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.trainResult = &backend.TrainResult{TestAccuracy: 0.874}

	rec := env.do(http.MethodPost, "/api/personalization/train", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp trainResponse
	decodeBody(t, rec, &resp)
	if resp.Accuracy != "87%" {
		t.Errorf("accuracy = %q, want 87%%", resp.Accuracy)
	}
	if env.backend.callCount("Summary") != 1 {
		t.Error("training should refresh the summary")
	}
}

func TestTrainBackendErrorKeepsFlowAlive(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.trainErr = &backend.APIError{Endpoint: "/train", Message: "not enough data"}

	rec := env.do(http.MethodPost, "/api/personalization/train", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp trainResponse
	decodeBody(t, rec, &resp)
	if resp.Success || resp.Error != "not enough data" {
		t.Errorf("response = %+v", resp)
	}
}

func TestDeleteDataWithoutConfirmationMakesNoBackendCall(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodDelete, "/api/personalization/data", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.backend.callCount("DeleteData") != 0 {
		t.Error("unconfirmed delete must not reach the backend")
	}
}

func TestDeleteDataConfirmedRefreshesPanels(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodDelete, "/api/personalization/data?confirm=true", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.backend.callCount("DeleteData") != 1 {
		t.Error("confirmed delete should fire exactly once")
	}

	var resp deleteResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Summary == nil || resp.Alerts == nil {
		t.Errorf("refreshed panels missing: %+v", resp)
	}
	if resp.Summary.Balance != "₹ --" {
		t.Errorf("summary after delete should show placeholders, got %q", resp.Summary.Balance)
	}
}

func TestClearAlertsWithoutConfirmationMakesNoBackendCall(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodDelete, "/api/alerts", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.backend.callCount("ClearAlerts") != 0 {
		t.Error("unconfirmed clear must not reach the backend")
	}
}

func TestClearAlertsRefetchesList(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodDelete, "/api/alerts?confirm=true", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.backend.callCount("AlertHistory") != 1 {
		t.Error("clearing must re-fetch the list instead of assuming it is empty")
	}
	if !strings.Contains(rec.Body.String(), "caught up") {
		t.Errorf("empty-state message missing: %q", rec.Body.String())
	}
}

func TestAlertsUnauthenticatedGets401(t *testing.T) {
	env := newTestEnv(t, &domain.Session{SessionID: "sess_test"})

	rec := env.do(http.MethodGet, "/api/alerts", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if env.backend.totalCalls() != 0 {
		t.Error("guard must block before any backend call")
	}
}

func TestSubscriptionRefreshPersistsChangedTier(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.tier = "pro"

	rec := env.do(http.MethodGet, "/api/subscription", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp subscriptionResponse
	decodeBody(t, rec, &resp)
	if resp.Tier != "pro" || resp.BadgeLabel != "Pro" || resp.BadgeColor != "amber" {
		t.Errorf("badge = %+v", resp)
	}

	stored, _ := env.repo.GetSession(context.Background(), "sess_test")
	if stored.Tier != "pro" {
		t.Errorf("refreshed tier not persisted: %q", stored.Tier)
	}
}

func TestSubscriptionRefreshFailureKeepsKnownTier(t *testing.T) {
	env := newTestEnv(t, authedSession())
	env.backend.tierErr = errors.New("backend down")

	rec := env.do(http.MethodGet, "/api/subscription", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp subscriptionResponse
	decodeBody(t, rec, &resp)
	if resp.Tier != "free" {
		t.Errorf("tier = %q, refresh failure should keep the session's tier", resp.Tier)
	}
}

func TestToggleThemeTwiceRestoresOriginal(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodPost, "/api/theme/toggle", nil, "")
	var resp themeResponse
	decodeBody(t, rec, &resp)
	if !resp.DarkTheme {
		t.Error("first toggle should enable dark theme")
	}

	rec = env.do(http.MethodPost, "/api/theme/toggle", nil, "")
	decodeBody(t, rec, &resp)
	if resp.DarkTheme {
		t.Error("second toggle should restore light theme")
	}

	stored, _ := env.repo.GetSession(context.Background(), "sess_test")
	if stored.DarkTheme {
		t.Error("restored theme not persisted")
	}
}

func TestSummaryEndpointRendersPlaceholdersWithoutData(t *testing.T) {
	env := newTestEnv(t, authedSession())

	rec := env.do(http.MethodGet, "/api/summary", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "₹ --") {
		t.Errorf("placeholder missing: %q", rec.Body.String())
	}
}
