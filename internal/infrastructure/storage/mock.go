package storage

import (
	"sync"
	"time"

	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu       sync.Mutex
	runs     map[int64]*ReconciliationRun
	outcomes map[int64][]TransactionOutcome
	mappings []categorizer.Mapping
	nextID   int64

	// Hooks for test assertions
	StartRunCalled     bool
	CompleteRunCalled  bool
	FailRunCalled      bool
	SaveOutcomesCalled bool
	LastFailedMessage  string

	// Error injection for testing error paths
	StartRunErr     error
	CompleteRunErr  error
	SaveOutcomesErr error
	LoadMappingsErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:     make(map[int64]*ReconciliationRun),
		outcomes: make(map[int64][]TransactionOutcome),
		nextID:   1,
	}
}

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) StartRun(run *ReconciliationRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}

	id := m.nextID
	m.nextID++
	stored := *run
	stored.ID = id
	if stored.StartedAt.IsZero() {
		stored.StartedAt = time.Now().UTC()
	}
	if stored.Status == "" {
		stored.Status = RunStatusRunning
	}
	m.runs[id] = &stored
	run.ID = id
	return id, nil
}

func (m *MockRepository) CompleteRun(runID int64, matched, missing int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	if run, ok := m.runs[runID]; ok {
		now := time.Now().UTC()
		run.CompletedAt = &now
		run.MatchedCount = matched
		run.MissingCount = missing
		run.Status = RunStatusCompleted
	}
	return nil
}

func (m *MockRepository) FailRun(runID int64, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalled = true
	m.LastFailedMessage = errorMessage
	if run, ok := m.runs[runID]; ok {
		now := time.Now().UTC()
		run.CompletedAt = &now
		run.Status = RunStatusFailed
		run.ErrorMessage = errorMessage
	}
	return nil
}

func (m *MockRepository) GetRun(runID int64) (*ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (m *MockRepository) GetRunByJobID(jobID string) (*ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.runs {
		if run.JobID == jobID {
			copied := *run
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListRuns(limit int) ([]ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	runs := make([]ReconciliationRun, 0, len(m.runs))
	// Newest first by ID
	for id := m.nextID - 1; id >= 1 && len(runs) < limit; id-- {
		if run, ok := m.runs[id]; ok {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (m *MockRepository) SaveOutcomes(runID int64, outcomes []TransactionOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveOutcomesCalled = true
	if m.SaveOutcomesErr != nil {
		return m.SaveOutcomesErr
	}
	m.outcomes[runID] = append(m.outcomes[runID], outcomes...)
	return nil
}

func (m *MockRepository) ListOutcomes(runID int64) ([]TransactionOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]TransactionOutcome(nil), m.outcomes[runID]...), nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{CategoryBreakdown: make(map[string]int)}
	for _, run := range m.runs {
		if run.Status != RunStatusCompleted {
			continue
		}
		stats.TotalRuns++
		stats.TotalBankTransactions += run.BankCount
		stats.TotalMatched += run.MatchedCount
		stats.TotalMissing += run.MissingCount
	}
	if stats.TotalBankTransactions > 0 {
		stats.MatchRate = float64(stats.TotalMatched) / float64(stats.TotalBankTransactions)
	}
	for _, outcomes := range m.outcomes {
		for _, o := range outcomes {
			if o.Status == OutcomeMissing && o.CategoryName != "" {
				stats.CategoryBreakdown[o.CategoryName]++
			}
		}
	}
	return stats, nil
}

func (m *MockRepository) LoadMappings() ([]categorizer.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadMappingsErr != nil {
		return nil, m.LoadMappingsErr
	}
	return append([]categorizer.Mapping(nil), m.mappings...), nil
}

func (m *MockRepository) ReplaceMappings(mappings []categorizer.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mappings = append([]categorizer.Mapping(nil), mappings...)
	return nil
}
