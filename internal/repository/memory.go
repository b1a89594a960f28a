package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"TipsSync/internal/interfaces"
	"TipsSync/internal/model"
)

// MemoryStore 进程内存储（database.driver=memory），用于本地调试与测试
type MemoryStore struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	nextID uint64
	tips   []model.Tip
	runs   []model.IngestionRun
	fame   []model.FameTip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Tips 以 TipStore 视图暴露
func (s *MemoryStore) Tips() interfaces.TipStore { return &memoryTipStore{s: s} }

// TipQueries 以 TipQueryRepository 视图暴露
func (s *MemoryStore) TipQueries() TipQueryRepository { return &memoryTipStore{s: s} }

// Runs 以 IngestionRunRepository 视图暴露
func (s *MemoryStore) Runs() IngestionRunRepository { return &memoryRunRepository{s: s} }

// Fame 以 FameRepository 视图暴露
func (s *MemoryStore) Fame() FameRepository { return &memoryFameRepository{s: s} }

// AddFame 写入精选数据（内存模式下没有其他写入途径）
func (s *MemoryStore) AddFame(tips ...model.FameTip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tips {
		s.nextID++
		t.ID = s.nextID
		if t.Matokeo == "" {
			t.Matokeo = "-:-"
		}
		s.fame = append(s.fame, t)
	}
}

type memoryTipStore struct {
	s *MemoryStore
}

func (m *memoryTipStore) CountByDate(ctx context.Context, date string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var n int64
	for i := range m.s.tips {
		if m.s.tips[i].Date == date {
			n++
		}
	}
	return n, nil
}

func (m *memoryTipStore) DeleteByDate(ctx context.Context, date string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	kept := m.s.tips[:0]
	var removed int64
	for _, t := range m.s.tips {
		if t.Date == date {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.s.tips = kept
	return removed, nil
}

func (m *memoryTipStore) InsertMany(ctx context.Context, tips []*model.Tip) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := time.Now()
	for _, t := range tips {
		m.s.nextID++
		t.ID = m.s.nextID
		if t.Status == "" {
			t.Status = model.StatusPending
		}
		t.CreatedAt, t.UpdatedAt = now, now
		m.s.tips = append(m.s.tips, *t)
	}
	return len(tips), nil
}

// Transaction 事务之间串行；fn 出错或 panic 时恢复快照
func (m *memoryTipStore) Transaction(ctx context.Context, fn func(store interfaces.TipStore) error) (err error) {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	m.s.mu.RLock()
	snapshot := append([]model.Tip(nil), m.s.tips...)
	m.s.mu.RUnlock()

	restore := func() {
		m.s.mu.Lock()
		m.s.tips = snapshot
		m.s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := fn(m); err != nil {
		restore()
		return err
	}
	return nil
}

func (m *memoryTipStore) ListTips(ctx context.Context, filter TipFilter) ([]*model.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*model.Tip{}
	for i := range m.s.tips {
		t := m.s.tips[i]
		if t.Date != filter.Date {
			continue
		}
		if filter.Premium != nil && t.IsPremium != *filter.Premium {
			continue
		}
		out = append(out, &t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryRunRepository struct {
	s *MemoryStore
}

func (m *memoryRunRepository) Create(ctx context.Context, run *model.IngestionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextID++
	run.ID = m.s.nextID
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	m.s.runs = append(m.s.runs, *run)
	return nil
}

func (m *memoryRunRepository) ListRecent(ctx context.Context, limit int) ([]*model.IngestionRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*model.IngestionRun{}
	for i := len(m.s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.s.runs[i]
		out = append(out, &r)
	}
	return out, nil
}

type memoryFameRepository struct {
	s *MemoryStore
}

func (m *memoryFameRepository) ListByDay(ctx context.Context, siku string) ([]*model.FameTip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*model.FameTip{}
	for i := range m.s.fame {
		if m.s.fame[i].Siku == siku {
			t := m.s.fame[i]
			out = append(out, &t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}
