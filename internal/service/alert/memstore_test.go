package alert

import (
	"context"
	"sort"
	"sync"

	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// memStore is the in-memory Store used by service tests. It mirrors the
// Postgres client's contract: newest-first ordering with an id tiebreak,
// strict delete, duplicate-id rejection.
type memStore struct {
	mu     sync.Mutex
	alerts map[int64]*alert.Alert

	failWith error // when set, every call fails with this error
}

func newMemStore() *memStore {
	return &memStore{alerts: make(map[int64]*alert.Alert)}
}

func (m *memStore) InsertAlert(_ context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.alerts[a.ID]; ok {
		return apierrors.ErrDuplicateID
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *memStore) GetAlert(_ context.Context, id int64) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, apierrors.NotFoundf("id %d", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListAlerts(_ context.Context, state alert.ReadState, page, pageSize int) (alert.Alerts, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	out := make(alert.Alerts, 0)
	for _, a := range m.alerts {
		switch state {
		case alert.ReadStateUnread:
			if a.Read {
				continue
			}
		case alert.ReadStateRead:
			if !a.Read {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := len(out)
	if pageSize > 0 {
		lo := (page - 1) * pageSize
		if lo < 0 {
			lo = 0
		}
		if lo > total {
			lo = total
		}
		hi := lo + pageSize
		if hi > total {
			hi = total
		}
		out = out[lo:hi]
	}
	return out, total, nil
}

func (m *memStore) MarkRead(_ context.Context, id int64) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, apierrors.NotFoundf("id %d", id)
	}
	a.Read = true
	cp := *a
	return &cp, nil
}

func (m *memStore) MarkAllRead(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, a := range m.alerts {
		if !a.Read {
			a.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteAlert(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.alerts[id]; !ok {
		return apierrors.NotFoundf("id %d", id)
	}
	delete(m.alerts, id)
	return nil
}

func (m *memStore) CountUnread(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, a := range m.alerts {
		if !a.Read {
			n++
		}
	}
	return n, nil
}
