//go:build unit || e2e

package paymenttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// StubProcessor is an in-process payment processor for tests. It issues
// sequential intent refs, remembers every intent it opened and lets a test
// flip an intent's status or force failures before driving the next call.
type StubProcessor struct {
	mu          sync.Mutex
	server      *httptest.Server
	nextIntent  int
	statuses    map[string]string
	refundCalls map[string]int
	failOpens   int
	failRefunds int
}

func NewStubProcessor() *StubProcessor {
	s := &StubProcessor{
		statuses:    make(map[string]string),
		refundCalls: make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *StubProcessor) URL() string { return s.server.URL }

func (s *StubProcessor) Close() { s.server.Close() }

// SetStatus marks an existing intent as succeeded, failed or pending.
func (s *StubProcessor) SetStatus(ref, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[ref] = status
}

// FailNextOpens makes the next n intent creations answer 503.
func (s *StubProcessor) FailNextOpens(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOpens = n
}

// FailNextRefunds makes the next n refund calls answer 503.
func (s *StubProcessor) FailNextRefunds(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefunds = n
}

func (s *StubProcessor) RefundCalls(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refundCalls[ref]
}

func (s *StubProcessor) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/intents":
		if s.failOpens > 0 {
			s.failOpens--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		s.nextIntent++
		ref := fmt.Sprintf("pi_stub_%04d", s.nextIntent)
		s.statuses[ref] = "pending"
		writeJSON(w, http.StatusOK, map[string]string{"id": ref, "status": "pending"})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/refund"):
		ref := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/intents/"), "/refund")
		if _, ok := s.statuses[ref]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.refundCalls[ref]++
		if s.failRefunds > 0 {
			s.failRefunds--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		s.statuses[ref] = "refunded"
		writeJSON(w, http.StatusOK, map[string]string{"id": ref, "status": "refunded"})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/intents/"):
		ref := strings.TrimPrefix(r.URL.Path, "/v1/intents/")
		status, ok := s.statuses[ref]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": ref, "status": status})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
