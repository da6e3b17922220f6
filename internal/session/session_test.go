package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/log"
)

func newTestStore(max int) *Store {
	return NewStore(max, time.Minute, log.New(log.Config{Output: io.Discard}))
}

func TestEnsureIssuesAndReusesCookie(t *testing.T) {
	s := newTestStore(10)

	rec := httptest.NewRecorder()
	id := s.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if id == "" {
		t.Fatal("expected a session id")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != id {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if got := s.Ensure(rec, req); got != id {
		t.Errorf("Ensure = %q, want existing %q", got, id)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing session should not be reissued")
	}
}

func TestIDRejectsForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "../../etc/passwd"})
	if got := ID(req); got != "" {
		t.Errorf("ID = %q, want empty", got)
	}
}

func TestPutReplacesUpload(t *testing.T) {
	s := newTestStore(10)
	first := &core.Dataset{Hash: "a"}
	second := &core.Dataset{Hash: "b"}

	s.Put("s1", first)
	s.Put("s1", second)

	got, ok := s.Dataset("s1")
	if !ok || got.Hash != "b" {
		t.Fatalf("Dataset = %+v, %v", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	s.Clear("s1")
	if _, ok := s.Dataset("s1"); ok {
		t.Error("cleared session still holds a dataset")
	}
}

func TestStoreIsBounded(t *testing.T) {
	s := newTestStore(2)
	for _, id := range []string{"a", "b", "c"} {
		s.Put(id, &core.Dataset{Hash: id})
	}
	if _, ok := s.Dataset("a"); ok {
		t.Error("oldest session should have been evicted")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestUploadSurvivesWhileAccessed(t *testing.T) {
	const ttl = 400 * time.Millisecond
	s := NewStore(10, ttl, log.New(log.Config{Output: io.Discard}))
	s.Put("active", &core.Dataset{Hash: "a"})
	s.Put("idle", &core.Dataset{Hash: "b"})

	deadline := time.Now().Add(2 * ttl)
	for time.Now().Before(deadline) {
		time.Sleep(ttl / 4)
		if _, ok := s.Dataset("active"); !ok {
			t.Fatal("upload dropped while the session kept using it")
		}
	}

	if _, ok := s.Dataset("idle"); ok {
		t.Error("idle upload should have expired")
	}

	time.Sleep(ttl + ttl/2)
	if _, ok := s.Dataset("active"); ok {
		t.Error("upload should expire after ttl without access")
	}
}
