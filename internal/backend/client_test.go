package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ironsheep/omr-scan/internal/results"
)

func testPayload() EvaluatePayload {
	return EvaluatePayload{
		AnswerKey: []results.AnswerKeyEntry{
			{QuestionNumber: 1, CorrectOption: "B"},
		},
		StudentAnswers: []results.StudentAnswerEntry{
			{QuestionNumber: 1, SelectedOption: "B", CenterX: 260, CenterY: 400, Confidence: 0.98},
		},
	}
}

func TestEvaluate(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"score": 4, "total": 4}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1/examiner", "secret-token")
	resp, err := c.Evaluate(context.Background(), "6655aabb", testPayload())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if gotPath != "/api/v1/examiner/exam/evaluate/6655aabb" {
		t.Errorf("path: got %s", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("authorization: got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type: got %q", gotContentType)
	}
	if _, ok := gotBody["answerKey"]; !ok {
		t.Error("request body missing answerKey")
	}
	if _, ok := gotBody["studentAnswers"]; !ok {
		t.Error("request body missing studentAnswers")
	}
	if !strings.Contains(string(resp), `"score": 4`) {
		t.Errorf("response: got %s", resp)
	}
}

func TestEvaluate_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("authorization should be absent, got %q", auth)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, err := c.Evaluate(context.Background(), "abc", testPayload()); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
}

func TestEvaluate_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "unknown submission"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Evaluate(context.Background(), "missing", testPayload())
	if err == nil {
		t.Fatal("Evaluate should fail on non-2xx status")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error should be a *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", statusErr.StatusCode)
	}
	if !strings.Contains(string(statusErr.Body), "unknown submission") {
		t.Errorf("body not preserved: got %s", statusErr.Body)
	}
}

func TestEvaluate_EmptySubmissionID(t *testing.T) {
	c := New("http://localhost:1", "")
	if _, err := c.Evaluate(context.Background(), "", testPayload()); err == nil {
		t.Error("Evaluate should reject an empty submission id")
	}
}

func TestEvaluate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, "")
	if _, err := c.Evaluate(ctx, "abc", testPayload()); err == nil {
		t.Error("Evaluate should fail with a cancelled context")
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := New("", "")
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("base url: got %s, want %s", c.BaseURL, DefaultBaseURL)
	}
}
