package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"careerflow/internal/account"
	"careerflow/internal/auth"
	"careerflow/internal/database"
	"careerflow/internal/generator"
	"careerflow/internal/payment"
	"careerflow/internal/session"
)

type fakeAccounts struct {
	accounts map[string]*database.Account

	deducts int
	refunds int

	findErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: map[string]*database.Account{}}
}

func (s *fakeAccounts) put(email, planType string, credits int, expiry time.Time) {
	s.accounts[account.NormalizeEmail(email)] = &database.Account{
		Email:      account.NormalizeEmail(email),
		PlanType:   planType,
		Credits:    credits,
		ExpiryDate: expiry,
	}
}

func (s *fakeAccounts) FindByEmail(_ context.Context, email string) (*database.Account, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	acct, ok := s.accounts[account.NormalizeEmail(email)]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *fakeAccounts) Upsert(_ context.Context, email, planType string, credits, daysValid int) (*database.Account, error) {
	normalized := account.NormalizeEmail(email)
	acct := &database.Account{
		Email:      normalized,
		PlanType:   planType,
		Credits:    credits,
		ExpiryDate: time.Now().AddDate(0, 0, daysValid),
	}
	s.accounts[normalized] = acct
	cp := *acct
	return &cp, nil
}

func (s *fakeAccounts) DeductCredit(_ context.Context, email string) error {
	acct, ok := s.accounts[account.NormalizeEmail(email)]
	if !ok || acct.Credits <= 0 {
		return account.ErrInsufficientCredits
	}
	acct.Credits--
	s.deducts++
	return nil
}

func (s *fakeAccounts) RefundCredit(_ context.Context, email string) error {
	acct, ok := s.accounts[account.NormalizeEmail(email)]
	if !ok {
		return account.ErrNotFound
	}
	acct.Credits++
	s.refunds++
	return nil
}

type fakeSessions struct {
	sessions map[string]*session.Session
	samples  map[string]string
	deleted  []string
	nextID   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: map[string]*session.Session{},
		samples:  map[string]string{},
	}
}

func (s *fakeSessions) Create(_ context.Context, sess *session.Session) error {
	s.nextID++
	sess.ID = "sess-" + strconv.Itoa(s.nextID)
	sess.CreatedAt = time.Now().UTC()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessions) Save(_ context.Context, sess *session.Session) error {
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *fakeSessions) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func sampleKey(sessionID, category, region, style string) string {
	return sessionID + "|" + category + "|" + region + "|" + style
}

func (s *fakeSessions) GetSample(_ context.Context, sessionID, category, region, style string) (string, error) {
	text, ok := s.samples[sampleKey(sessionID, category, region, style)]
	if !ok {
		return "", session.ErrNotFound
	}
	return text, nil
}

func (s *fakeSessions) PutSample(_ context.Context, sessionID, category, region, style, text string) error {
	s.samples[sampleKey(sessionID, category, region, style)] = text
	return nil
}

type fakeGenerator struct {
	calls       int
	sampleCalls int

	text string
	err  error
}

func (g *fakeGenerator) Generate(_ context.Context, req generator.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if req.Category == generator.DemoCategory {
		return generator.DemoPlaceholder, nil
	}
	return g.text, nil
}

func (g *fakeGenerator) GenerateSample(_ context.Context, _, _, _ string) (string, error) {
	g.sampleCalls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeChecker struct {
	status  payment.Status
	err     error
	tracked []string
}

func (f *fakeChecker) CheckTracking(_ context.Context, trackingID string) (payment.Status, error) {
	f.tracked = append(f.tracked, trackingID)
	if f.err != nil {
		return "", f.err
	}
	return f.status, nil
}

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	svc, err := auth.NewAuthService("test-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func newJSONContext(t *testing.T, method, target string, payload any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}
