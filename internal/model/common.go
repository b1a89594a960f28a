package model

// Tier 访问等级
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Market 玩法标签（前端直接展示）
type Market string

const (
	MarketHomeWin    Market = "Home Win"
	MarketAwayWin    Market = "Away Win"
	MarketHomeOrDraw Market = "1X"
	MarketDrawOrAway Market = "X2"
	MarketOver25     Market = "Over 2.5"
	MarketUnder35    Market = "Under 3.5"
	MarketBTTS       Market = "Both Teams to Score"
)

// Tip 状态
const (
	StatusPending = "pending"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// NoOddsAvailable 无可用赔率时的占位符
const NoOddsAvailable = "--"

// ValidMarket 判断是否为已知玩法
func ValidMarket(m Market) bool {
	switch m {
	case MarketHomeWin, MarketAwayWin, MarketHomeOrDraw, MarketDrawOrAway, MarketOver25, MarketUnder35, MarketBTTS:
		return true
	}
	return false
}

// ClassifiedOutcome 单行比分的分类结果
type ClassifiedOutcome struct {
	Market      Market
	Tier        Tier
	RefinedOdds string
}

// IsPremium 是否付费玩法
func (o ClassifiedOutcome) IsPremium() bool {
	return o.Tier == TierPremium
}

// 抽取版式（与抓取站点的页面结构对应）
const (
	LayoutHeaderRows        = "header-rows"
	LayoutCorrectScoreTable = "correct-score-table"
)
