package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"TipsSync/internal/config"
	"TipsSync/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu    sync.Mutex
	dates []string
	srcs  []string
}

func (p *recordingProcessor) ProcessTipsForDate(_ context.Context, date, html, source string) *service.IngestResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dates = append(p.dates, date)
	p.srcs = append(p.srcs, source)
	return &service.IngestResult{Success: true, Saved: 3}
}

func TestRunOnceTargetsTomorrowInZone(t *testing.T) {
	p := &recordingProcessor{}
	s, err := New(&config.ScheduleConfig{Cron: "30 6 * * *", Timezone: "Africa/Nairobi"}, p, logrus.New())
	require.NoError(t, err)

	// 22:30 UTC 已是内罗毕次日 01:30
	s.now = func() time.Time { return time.Date(2025, 1, 14, 22, 30, 0, 0, time.UTC) }
	res := s.RunOnce()

	assert.True(t, res.Success)
	assert.Equal(t, []string{"2025-01-16"}, p.dates)
	assert.Equal(t, []string{service.SourceSchedule}, p.srcs)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&config.ScheduleConfig{Cron: "30 6 * * *", Timezone: "Invalid/Zone"}, &recordingProcessor{}, logrus.New())
	assert.Error(t, err)

	_, err = New(&config.ScheduleConfig{Cron: "every day"}, &recordingProcessor{}, logrus.New())
	assert.Error(t, err)
}

func TestStartComputesNextRun(t *testing.T) {
	s, err := New(&config.ScheduleConfig{Cron: "30 6 * * *"}, &recordingProcessor{}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", s.location.String())

	s.Start()
	defer s.Stop()

	next := s.Next().In(s.location)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 30, next.Minute())
}
