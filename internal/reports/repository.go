package reports

import (
	"context"
	"sort"
	"sync"
)

// Repository defines storage for finalized reports.
type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, orgID, id string) (*Report, error)
	ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Report, error)
}

// InMemoryRepository keeps reports in process memory for development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{reports: make(map[string]*Report)}
}

func (r *InMemoryRepository) Create(_ context.Context, report *Report) error {
	cp := copyReport(report)
	r.mu.Lock()
	r.reports[cp.ID] = cp
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, orgID, id string) (*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok || report.OrgID != orgID {
		return nil, ErrReportNotFound
	}
	return copyReport(report), nil
}

func (r *InMemoryRepository) ListByOrg(_ context.Context, orgID string, filter ListFilter) ([]*Report, error) {
	r.mu.RLock()
	var matched []*Report
	for _, report := range r.reports {
		if report.OrgID == orgID {
			matched = append(matched, copyReport(report))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*Report{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func copyReport(r *Report) *Report {
	cp := *r
	if r.Fields != nil {
		cp.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			cp.Fields[k] = v
		}
	}
	if r.MissingFields != nil {
		cp.MissingFields = append([]string(nil), r.MissingFields...)
	}
	return &cp
}
