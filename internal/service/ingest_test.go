package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TipsSync/internal/adapter/bettingtipsters"
	"TipsSync/internal/classifier"
	"TipsSync/internal/config"
	"TipsSync/internal/interfaces"
	"TipsSync/internal/lock"
	"TipsSync/internal/model"
	"TipsSync/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDate = "2025-01-15"

type stubFetcher struct {
	page  string
	calls int
}

func (f *stubFetcher) FetchPage(_ context.Context, _ string, html string) string {
	f.calls++
	if html != "" {
		return html
	}
	return f.page
}

type stubExtractor struct {
	rows  []model.RawRow
	panic bool
}

func (e *stubExtractor) Layout() string { return model.LayoutHeaderRows }

func (e *stubExtractor) Extract(html string) []model.RawRow {
	if e.panic {
		panic("unexpected markup")
	}
	if html == "" {
		return []model.RawRow{}
	}
	return e.rows
}

type fixture struct {
	svc       *IngestService
	store     *repository.MemoryStore
	extractor *stubExtractor
	fetcher   *stubFetcher
}

func newFixture(t *testing.T, policy classifier.ReplacementPolicy, tips interfaces.TipStore) *fixture {
	t.Helper()
	rs, err := classifier.Builtin(classifier.DefaultRuleset)
	require.NoError(t, err)
	rs.Policy = policy

	store := repository.NewMemoryStore()
	if tips == nil {
		tips = store.Tips()
	}
	f := &fixture{
		store:     store,
		extractor: &stubExtractor{},
		fetcher:   &stubFetcher{page: "<html></html>"},
	}
	f.svc = NewIngestService(
		f.fetcher,
		f.extractor,
		classifier.New(rs),
		NewReconciler(tips, rs.Policy, logrus.New()),
		lock.NewLocalLocker(),
		store.Runs(),
		logrus.New(),
	)
	return f
}

func odds(home, draw, away float64) *model.OddsTriple {
	return &model.OddsTriple{Home: &home, Draw: &draw, Away: &away}
}

func row(kickoff, score string) model.RawRow {
	return model.RawRow{
		KickoffTime:    kickoff,
		League:         "England - Premier League",
		HomeTeam:       "Arsenal",
		AwayTeam:       "Chelsea",
		PredictedScore: score,
		Odds:           odds(1.55, 3.9, 5.75),
	}
}

func listTips(t *testing.T, store *repository.MemoryStore) []*model.Tip {
	t.Helper()
	tips, err := store.TipQueries().ListTips(context.Background(), repository.TipFilter{Date: testDate})
	require.NoError(t, err)
	return tips
}

func TestProcessShiftsKickoffAndRefines(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.rows = []model.RawRow{row("09:00", "2:0")}

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Saved)
	require.NotNil(t, res.FreeTips)
	assert.Equal(t, 1, *res.FreeTips)
	assert.Equal(t, 0, *res.PremiumTips)
	assert.Equal(t, int64(0), *res.Cleared)

	tips := listTips(t, f.store)
	require.Len(t, tips, 1)
	assert.Equal(t, "Arsenal vs Chelsea", tips[0].Match)
	assert.Equal(t, "Home Win", tips[0].Tip)
	assert.Equal(t, "1.55", *tips[0].Odds)
	assert.False(t, tips[0].IsPremium)
	assert.Equal(t, "12:00", tips[0].Time)
	assert.Equal(t, model.StatusPending, tips[0].Status)
}

func TestProcessPublishHourBoundary(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.rows = []model.RawRow{
		row("08:59", "2:0"), // 11:59 排除
		row("09:00", "0:0"), // 12:00 保留
		row("21:00", "3:0"), // 00:00 跨日排除
		row("20:59", "0:3"), // 23:59 保留
	}

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 2, res.Saved)

	tips := listTips(t, f.store)
	require.Len(t, tips, 2)
	assert.Equal(t, "12:00", tips[0].Time)
	assert.Equal(t, "Under 3.5", tips[0].Tip)
	assert.True(t, tips[0].IsPremium)
	assert.Equal(t, "23:59", tips[1].Time)
	assert.Equal(t, "Away Win", tips[1].Tip)
	assert.Equal(t, "5.75", *tips[1].Odds)
}

func TestProcessNotEqualIsIdempotent(t *testing.T) {
	f := newFixture(t, classifier.PolicyNotEqual, nil)
	f.extractor.rows = []model.RawRow{row("15:00", "2:0"), row("16:00", "0:0")}

	first := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	require.True(t, first.Success, first.Message)

	second := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.False(t, second.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.Saved)
	assert.Equal(t, 2, second.Processed)
	assert.Equal(t, "No update needed. Existing tips: 2, Scraped tips: 2", second.Message)
	assert.Len(t, listTips(t, f.store), 2)
}

func TestProcessStrictlyGreaterNeverShrinks(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.rows = []model.RawRow{row("15:00", "2:0"), row("16:00", "0:0")}
	require.True(t, f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork).Success)

	f.extractor.rows = []model.RawRow{row("15:00", "2:0")}
	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.True(t, res.Skipped)
	assert.Len(t, listTips(t, f.store), 2)

	f.extractor.rows = []model.RawRow{row("15:00", "2:0"), row("16:00", "0:0"), row("17:00", "3:0")}
	res = f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int64(2), *res.Cleared)
	assert.Len(t, listTips(t, f.store), 3)
}

func TestProcessNoRows(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.fetcher.page = ""

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.False(t, res.Success)
	assert.Equal(t, "No tips found to process", res.Message)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Saved)
}

func TestProcessNoValidTips(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.rows = []model.RawRow{row("08:00", "2:0"), row("15:00", "7:x"), row("15:00", "2:2")}
	// 2:2 免费 Over 2.5，两边赔率都高于阈值 -> 丢弃
	f.extractor.rows[2].Odds = odds(2.1, 3.3, 3.4)

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.False(t, res.Success)
	assert.Equal(t, "No valid tips to save after processing", res.Message)
	assert.Equal(t, 3, res.Processed)
	assert.Empty(t, listTips(t, f.store))
}

func TestProcessInvalidDate(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	for _, date := range []string{"", "15-01-2025", "2025-13-01", "2025-01-15T00:00:00Z"} {
		res := f.svc.ProcessTipsForDate(context.Background(), date, "", SourceUpload)
		assert.False(t, res.Success, date)
		assert.True(t, strings.HasPrefix(res.Message, "Error processing tips: "), date)
		assert.NotEmpty(t, res.Error, date)
	}
	assert.Zero(t, f.fetcher.calls)
}

func TestProcessStorageFailure(t *testing.T) {
	mem := repository.NewMemoryStore()
	_, err := mem.Tips().InsertMany(context.Background(), candidates(testDate, 1))
	require.NoError(t, err)

	f := newFixture(t, classifier.PolicyStrictlyGreater, &failingStore{TipStore: mem.Tips(), err: errors.New("connection reset")})
	f.extractor.rows = []model.RawRow{row("15:00", "2:0"), row("16:00", "0:0")}

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Saved)
	assert.Contains(t, res.Error, "connection reset")
	assert.True(t, strings.HasPrefix(res.Message, "Error processing tips: "))

	count, err := mem.Tips().CountByDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProcessRecoversFromPanic(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.panic = true

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
	assert.False(t, res.Success)
	assert.Equal(t, "unexpected markup", res.Error)
}

func TestProcessRecordsRun(t *testing.T) {
	f := newFixture(t, classifier.PolicyStrictlyGreater, nil)
	f.extractor.rows = []model.RawRow{row("15:00", "2:0"), row("16:00", "1:1")}

	res := f.svc.ProcessTipsForDate(context.Background(), testDate, "<html>uploaded</html>", SourceUpload)
	require.True(t, res.Success, res.Message)
	assert.NotEmpty(t, res.RunID)

	runs, err := f.store.Runs().ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunUUID)
	assert.Equal(t, SourceUpload, runs[0].Source)
	assert.Equal(t, classifier.DefaultRuleset, runs[0].Ruleset)
	assert.Equal(t, 1, runs[0].Saved)

	var stats classifier.ClassificationStats
	require.NoError(t, json.Unmarshal(runs[0].Stats, &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Unclassified)
}

func TestProcessUploadedPageEndToEnd(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("uploaded page must not hit the network")
	}))
	defer proxy.Close()

	rs, err := classifier.Builtin(classifier.DefaultRuleset)
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	svc := NewIngestService(
		bettingtipsters.NewFetcher(&config.ScraperConfig{ProxyURL: proxy.URL, TargetURL: "https://example.org/?date=%s"}, logrus.New()),
		bettingtipsters.NewHeaderRowsExtractor(logrus.New()),
		classifier.New(rs),
		NewReconciler(store.Tips(), rs.Policy, logrus.New()),
		lock.NewLocalLocker(),
		store.Runs(),
		logrus.New(),
	)

	page := `<table><tbody>
<tr><td colspan="2"><h4>England - Premier League</h4></td></tr>
<tr><td>09:00</td><td>Arsenal - Chelsea</td><td>1.55</td><td>3.90</td><td>5.75</td><td><strong>2:0</strong></td></tr>
<tr><td>10:30</td><td>Everton - Fulham</td><td>2.40</td><td>3.10</td><td>2.90</td><td><strong>2:0</strong></td></tr>
<tr><td>21:00</td><td>Spurs - Leeds</td><td>1.40</td><td>4.50</td><td>7.00</td><td><strong>0:0</strong></td></tr>
</tbody></table>`

	res := svc.ProcessTipsForDate(context.Background(), testDate, page, SourceUpload)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Saved)

	tips := listTips(t, store)
	require.Len(t, tips, 2)
	assert.Equal(t, "Home Win", tips[0].Tip)
	assert.Equal(t, "1.55", *tips[0].Odds)
	assert.Equal(t, "1X", tips[1].Tip)
	assert.Equal(t, "1.74", *tips[1].Odds)
	assert.Equal(t, "13:30", tips[1].Time)
}

func TestProcessFreeOverWithoutPricesIsDropped(t *testing.T) {
	page := func(home, draw, away string) string {
		return `<table><tbody>
<tr><td colspan="2"><h4>Germany - Bundesliga</h4></td></tr>
<tr><td>15:00</td><td>Mainz - Bochum</td><td>` + home + `</td><td>` + draw + `</td><td>` + away + `</td><td><strong>2:2</strong></td></tr>
</tbody></table>`
	}

	cases := []struct {
		name  string
		html  string
		saved int
	}{
		{"all sides blank", page("-", "-", "-"), 0},
		{"draw only", page("", "3.10", ""), 0},
		{"short home price", page("1.50", "3.10", ""), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := classifier.Builtin(classifier.DefaultRuleset)
			require.NoError(t, err)
			store := repository.NewMemoryStore()
			svc := NewIngestService(
				&stubFetcher{},
				bettingtipsters.NewHeaderRowsExtractor(logrus.New()),
				classifier.New(rs),
				NewReconciler(store.Tips(), rs.Policy, logrus.New()),
				lock.NewLocalLocker(),
				store.Runs(),
				logrus.New(),
			)

			res := svc.ProcessTipsForDate(context.Background(), testDate, tc.html, SourceUpload)
			assert.Equal(t, 1, res.Processed)
			assert.Equal(t, tc.saved, res.Saved)
			if tc.saved == 0 {
				assert.False(t, res.Success)
				assert.Equal(t, "No valid tips to save after processing", res.Message)
				return
			}
			require.True(t, res.Success, res.Message)
			tips := listTips(t, store)
			require.Len(t, tips, 1)
			assert.Equal(t, "Over 2.5", tips[0].Tip)
			assert.Equal(t, "18:00", tips[0].Time)
		})
	}
}

// slowCountStore 拉长计数与替换之间的窗口，让并发入库真正重叠
type slowCountStore struct {
	interfaces.TipStore
	delay time.Duration
}

func (s *slowCountStore) CountByDate(ctx context.Context, date string) (int64, error) {
	n, err := s.TipStore.CountByDate(ctx, date)
	time.Sleep(s.delay)
	return n, err
}

func teamRows(home string, n int) []model.RawRow {
	rows := make([]model.RawRow, 0, n)
	for i := 0; i < n; i++ {
		r := row("15:00", "2:0")
		r.HomeTeam = home
		rows = append(rows, r)
	}
	return rows
}

func TestConcurrentIngestSameDateStoresOneSet(t *testing.T) {
	lockers := map[string]func(t *testing.T) interfaces.DateLocker{
		"local": func(t *testing.T) interfaces.DateLocker { return lock.NewLocalLocker() },
		"redis": func(t *testing.T) interfaces.DateLocker {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return lock.NewRedisLocker(client, &config.RedisConfig{LockTTL: time.Minute, LockWait: 10 * time.Second}, logrus.New())
		},
	}

	for name, newLocker := range lockers {
		t.Run(name, func(t *testing.T) {
			rs, err := classifier.Builtin(classifier.DefaultRuleset)
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				store := repository.NewMemoryStore()
				tips := &slowCountStore{TipStore: store.Tips(), delay: 30 * time.Millisecond}
				locker := newLocker(t)
				newService := func(rows []model.RawRow) *IngestService {
					return NewIngestService(
						&stubFetcher{page: "<html></html>"},
						&stubExtractor{rows: rows},
						classifier.New(rs),
						NewReconciler(tips, classifier.PolicyStrictlyGreater, logrus.New()),
						locker,
						store.Runs(),
						logrus.New(),
					)
				}
				small := newService(teamRows("Arsenal", 2))
				large := newService(teamRows("Everton", 3))

				var wg sync.WaitGroup
				for _, svc := range []*IngestService{small, large} {
					wg.Add(1)
					go func(svc *IngestService) {
						defer wg.Done()
						res := svc.ProcessTipsForDate(context.Background(), testDate, "", SourceNetwork)
						assert.Empty(t, res.Error)
					}(svc)
				}
				wg.Wait()

				// 无论谁先拿到锁，最终都只剩较大的那一组
				stored := listTips(t, store)
				require.Len(t, stored, 3)
				for _, tip := range stored {
					assert.Equal(t, "Everton vs Chelsea", tip.Match)
				}
			}
		})
	}
}
