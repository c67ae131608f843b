// Package apitest provides an in-memory dataset API for tests.
//
// The server speaks the same two endpoints as the real backend, keeps the rows it
// accepted, records every batch request, and can be told to fail specific calls.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/rshade/datasetctl/internal/dataset"
)

// Server is a fake dataset backend.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	rows        []dataset.Row
	nextID      int64
	batches     [][]dataset.Row
	listCalls   []dataset.PageRequest
	failBatches map[int]int
	listStatus  int
	listGate    chan struct{}
	batchGate   chan struct{}
}

// NewServer starts a fake backend seeded with rows and closes it when the test ends.
func NewServer(tb testing.TB, rows ...dataset.Row) *Server {
	tb.Helper()

	s := &Server{failBatches: make(map[int]int), nextID: 1}
	for _, r := range rows {
		s.store(r)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/datasets", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/datasets/batch", s.handleBatch).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	tb.Cleanup(s.Close)
	return s
}

// FailBatch makes the n-th batch request (0-based) answer with status.
func (s *Server) FailBatch(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatches[n] = status
}

// FailList makes every list request answer with status. Zero restores normal behavior.
func (s *Server) FailList(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = status
}

// HoldList blocks list requests until the returned function is called.
func (s *Server) HoldList() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.listGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// HoldBatch blocks batch requests, after they are recorded, until the returned
// function is called.
func (s *Server) HoldBatch() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.batchGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Batches returns a copy of every batch body received, including failed ones.
func (s *Server) Batches() [][]dataset.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]dataset.Row, len(s.batches))
	for i, b := range s.batches {
		out[i] = dataset.CloneRows(b)
	}
	return out
}

// BatchSizes returns the row count of every batch received.
func (s *Server) BatchSizes() []int {
	batches := s.Batches()
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = len(b)
	}
	return sizes
}

// ListCalls returns the page requests received so far.
func (s *Server) ListCalls() []dataset.PageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dataset.PageRequest, len(s.listCalls))
	copy(out, s.listCalls)
	return out
}

// Rows returns the stored rows.
func (s *Server) Rows() []dataset.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dataset.CloneRows(s.rows)
}

func (s *Server) store(r dataset.Row) {
	id := s.nextID
	s.nextID++
	r.ID = &id
	r.Key = ""
	s.rows = append(s.rows, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dataset.PageRequest{Page: 0, Size: 10, Search: q.Get("search")}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		req.Size = n
	}

	s.mu.Lock()
	s.listCalls = append(s.listCalls, req)
	gate := s.listGate
	status := s.listStatus
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	s.mu.Lock()
	page := s.page(req)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (s *Server) page(req dataset.PageRequest) dataset.Page {
	matched := s.rows
	if req.Search != "" {
		term := strings.ToLower(req.Search)
		matched = nil
		for _, row := range s.rows {
			if strings.Contains(strings.ToLower(row.Name), term) ||
				strings.Contains(strings.ToLower(row.Description), term) {
				matched = append(matched, row)
			}
		}
	}

	total := len(matched)
	totalPages := (total + req.Size - 1) / req.Size
	start := min(req.Page*req.Size, total)
	end := min(start+req.Size, total)

	content := dataset.CloneRows(matched[start:end])
	if content == nil {
		content = []dataset.Row{}
	}

	return dataset.Page{
		Content:       content,
		TotalPages:    totalPages,
		TotalElements: int64(total),
		Number:        req.Page,
		Size:          req.Size,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
	}
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var rows []dataset.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	call := len(s.batches)
	s.batches = append(s.batches, rows)
	gate := s.batchGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failBatches[call]; ok {
		http.Error(w, http.StatusText(status), status)
		return
	}

	for _, row := range rows {
		s.store(row)
	}
	w.WriteHeader(http.StatusOK)
}
