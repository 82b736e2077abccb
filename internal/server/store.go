package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/qmeta/internal/report"
)

// Summary is the list view of a stored report.
type Summary struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Layers      int       `json:"layers"`
	MaxCut      float64   `json:"max_cut"`
	Ratio       float64   `json:"approximation_ratio"`
	LSTMFinal   float64   `json:"lstm_final_cost"`
	RandomFinal float64   `json:"random_final_cost"`
}

func summarize(r *report.Report) Summary {
	return Summary{
		ID:          r.ID,
		RunID:       r.RunID,
		CreatedAt:   r.CreatedAt,
		Nodes:       r.Graph.Nodes,
		Edges:       len(r.Graph.Edges),
		Layers:      r.Layers,
		MaxCut:      r.MaxCut,
		Ratio:       r.Ratio,
		LSTMFinal:   lastOrZero(r.FineTune.LSTM.Costs),
		RandomFinal: lastOrZero(r.FineTune.Random.Costs),
	}
}

func lastOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

// ReportStore keeps reports in memory in insertion order.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]*report.Report
	order   []string
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string]*report.Report),
	}
}

// Add stores r, assigning a fresh id when it has none. Adding an id that
// is already present replaces the earlier report.
func (s *ReportStore) Add(r *report.Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil report")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if _, err := uuid.Parse(r.ID); err != nil {
		return "", fmt.Errorf("report id %q: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = r
	return r.ID, nil
}

func (s *ReportStore) Get(id string) (*report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// List returns summaries, newest first.
func (s *ReportStore) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, summarize(s.reports[s.order[i]]))
	}
	return out
}

func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Preload adds every report saved in dir and returns how many were added.
func (s *ReportStore) Preload(dir string) (int, error) {
	reports, err := report.LoadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, r := range reports {
		if _, err := s.Add(r); err != nil {
			return 0, err
		}
	}
	return len(reports), nil
}
