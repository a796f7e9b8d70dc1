package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"careerflow/internal/api/middleware"
	"careerflow/internal/database"
	"careerflow/internal/docx"
	"careerflow/internal/errcode"
	"careerflow/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGenerateHandler(accounts *fakeAccounts, sessions *fakeSessions, gen *fakeGenerator) *GenerateHandler {
	return NewGenerateHandler(accounts, sessions, gen, discardLogger(), "")
}

func generatePayload() map[string]any {
	return map[string]any{
		"category":          "Tech",
		"region":            "USA",
		"style":             "Modern",
		"candidate_history": "Backend engineer, 5 years at Acme.",
	}
}

func seedSession(t *testing.T, sessions *fakeSessions, sess *session.Session) *session.Session {
	t.Helper()
	if err := sessions.Create(t.Context(), sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sess
}

func TestGenerate_RejectsUnknownOptions(t *testing.T) {
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(newFakeAccounts(), sessions, gen)
	sess := seedSession(t, sessions, &session.Session{})

	payload := generatePayload()
	payload["region"] = "Atlantis"

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", payload)
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times for invalid input", gen.calls)
	}
}

func TestGenerate_RequiresHistoryBeforeSpending(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanSingle, 3, time.Now().Add(24*time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	payload := generatePayload()
	payload["candidate_history"] = "   "

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", payload)
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if accounts.deducts != 0 {
		t.Fatal("credit deducted before validation passed")
	}
	if gen.calls != 0 {
		t.Fatal("generator called without candidate history")
	}
}

func TestGenerate_DemoCategoryOnlyForDemoSessions(t *testing.T) {
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(newFakeAccounts(), sessions, gen)
	sess := seedSession(t, sessions, &session.Session{})

	payload := generatePayload()
	payload["category"] = "DEMO"

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", payload)
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGenerate_FreeTierCountsUses(t *testing.T) {
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "guest resume"}
	h := newGenerateHandler(newFakeAccounts(), sessions, gen)
	sess := seedSession(t, sessions, &session.Session{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["resume"] != "guest resume" {
		t.Fatalf("unexpected resume %q", body["resume"])
	}
	if left, ok := body["free_uses_left"].(float64); !ok || int(left) != session.MaxFreeUses-1 {
		t.Fatalf("expected free_uses_left=%d got %v", session.MaxFreeUses-1, body["free_uses_left"])
	}

	saved, err := sessions.Get(t.Context(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if saved.FreeUses != 1 {
		t.Fatalf("expected 1 recorded use got %d", saved.FreeUses)
	}
	if saved.Document != "guest resume" {
		t.Fatalf("document not kept on session: %q", saved.Document)
	}

	var found bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == freeUsesCookieName && ck.Value == "1" {
			found = true
		}
	}
	if !found {
		t.Fatal("usage cookie not refreshed")
	}
}

func TestGenerate_FreeTierLimit(t *testing.T) {
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(newFakeAccounts(), sessions, gen)
	sess := seedSession(t, sessions, &session.Session{FreeUses: session.MaxFreeUses})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if code, _ := body["code"].(float64); int(code) != errcode.FreeLimitReached {
		t.Fatalf("expected code %d got %v", errcode.FreeLimitReached, body["code"])
	}
	if gen.calls != 0 {
		t.Fatal("generator called past the free limit")
	}
}

func TestGenerate_DeductsCreditBeforeCalling(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanSingle, 0, time.Now().Add(24*time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if code, _ := body["code"].(float64); int(code) != errcode.InsufficientCredits {
		t.Fatalf("expected code %d got %v", errcode.InsufficientCredits, body["code"])
	}
	if gen.calls != 0 {
		t.Fatal("generator called with no credits")
	}
}

func TestGenerate_ReportsRemainingCredits(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanSingle, 3, time.Now().Add(24*time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "paid resume"}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if remaining, _ := body["credits_remaining"].(float64); int(remaining) != 2 {
		t.Fatalf("expected 2 remaining credits got %v", body["credits_remaining"])
	}
	if accounts.deducts != 1 {
		t.Fatalf("expected 1 deduction got %d", accounts.deducts)
	}
}

func TestGenerate_RefundsOnUpstreamFailure(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanSingle, 1, time.Now().Add(24*time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d body=%s", w.Code, w.Body.String())
	}
	if accounts.refunds != 1 {
		t.Fatalf("expected 1 refund got %d", accounts.refunds)
	}
	acct, err := accounts.FindByEmail(t.Context(), "ann@example.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if acct.Credits != 1 {
		t.Fatalf("expected credit restored, got %d", acct.Credits)
	}
}

func TestGenerate_UnmeteredPlanKeepsCredits(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanProMonthly, 9999, time.Now().Add(720*time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "pro resume"}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if accounts.deducts != 0 {
		t.Fatal("credits deducted on an unmetered plan")
	}
	if _, present := decodeBody(t, w)["credits_remaining"]; present {
		t.Fatal("credits_remaining reported for an unmetered plan")
	}
}

func TestGenerate_ExpiredPlanClearsSession(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.put("ann@example.com", database.PlanTrialMonthly, 9999, time.Now().Add(-time.Hour))
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "resume"}
	h := newGenerateHandler(accounts, sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Email: "ann@example.com"})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", generatePayload())
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if code, _ := body["code"].(float64); int(code) != errcode.PlanExpired {
		t.Fatalf("expected code %d got %v", errcode.PlanExpired, body["code"])
	}
	if len(sessions.deleted) != 1 || sessions.deleted[0] != sess.ID {
		t.Fatalf("expired session not cleared: %v", sessions.deleted)
	}
	if gen.calls != 0 {
		t.Fatal("generator called on an expired plan")
	}
}

func TestGenerate_DemoSampleCached(t *testing.T) {
	sessions := newFakeSessions()
	gen := &fakeGenerator{text: "sample resume"}
	h := newGenerateHandler(newFakeAccounts(), sessions, gen)
	sess := seedSession(t, sessions, &session.Session{Demo: true})

	payload := map[string]any{"category": "Tech", "region": "USA", "style": "Modern"}

	c, w := newJSONContext(t, http.MethodPost, "/v1/resume/generate", payload)
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)
	if w.Code != http.StatusOK {
		t.Fatalf("first call: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if gen.sampleCalls != 1 {
		t.Fatalf("expected 1 sample generation got %d", gen.sampleCalls)
	}

	c, w = newJSONContext(t, http.MethodPost, "/v1/resume/generate", payload)
	middleware.SetSessionInContext(c, sess)
	h.Generate(c)
	if w.Code != http.StatusOK {
		t.Fatalf("second call: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if gen.sampleCalls != 1 {
		t.Fatalf("cache miss on repeat pick: %d sample generations", gen.sampleCalls)
	}
	body := decodeBody(t, w)
	if cached, _ := body["cached"].(bool); !cached {
		t.Fatal("repeat pick not flagged as cached")
	}
	if body["resume"] != "sample resume" {
		t.Fatalf("unexpected cached resume %q", body["resume"])
	}
}

func TestDownload_NoDocument(t *testing.T) {
	sessions := newFakeSessions()
	h := newGenerateHandler(newFakeAccounts(), sessions, &fakeGenerator{})
	sess := seedSession(t, sessions, &session.Session{})

	c, w := newJSONContext(t, http.MethodGet, "/v1/resume/download", nil)
	middleware.SetSessionInContext(c, sess)
	h.Download(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDownload_StreamsAttachment(t *testing.T) {
	sessions := newFakeSessions()
	h := newGenerateHandler(newFakeAccounts(), sessions, &fakeGenerator{})
	sess := seedSession(t, sessions, &session.Session{
		Document:       "JANE DOE\nBackend engineer.",
		DocumentRegion: "USA",
	})

	c, w := newJSONContext(t, http.MethodGet, "/v1/resume/download", nil)
	middleware.SetSessionInContext(c, sess)
	h.Download(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != docx.MIMEType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="CareerFlow_USA.docx"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty document body")
	}
}
