// Package lock 按日期串行化入库，同一日期同一时刻只允许一个写入者
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout 在等待时间内未能获得锁
var ErrLockTimeout = errors.New("获取日期锁超时")

// LocalLocker 进程内按日期加锁
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock 阻塞直到获得 date 的锁或 ctx 结束
func (l *LocalLocker) Lock(ctx context.Context, date string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[date]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[date] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(date, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(date, s)
		})
	}, nil
}

func (l *LocalLocker) release(date string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, date)
	}
}
