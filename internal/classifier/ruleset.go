package classifier

import (
	"fmt"
	"regexp"
	"strconv"

	"TipsSync/internal/config"
	"TipsSync/internal/model"

	"github.com/shopspring/decimal"
)

// ReplacementPolicy 决定是否用新抓取的候选集替换某日已入库的 tips
type ReplacementPolicy string

const (
	// PolicyStrictlyGreater 候选数严格大于已有数才替换（只增不减）
	PolicyStrictlyGreater ReplacementPolicy = "strictly-greater"
	// PolicyNotEqual 数量不一致即替换（始终与源站同步）
	PolicyNotEqual ReplacementPolicy = "not-equal"
)

// ShouldReplace 按策略判断是否替换
func (p ReplacementPolicy) ShouldReplace(candidates int, existing int64) bool {
	switch p {
	case PolicyNotEqual:
		return int64(candidates) != existing
	default:
		return int64(candidates) > existing
	}
}

// Valid 是否为已知策略
func (p ReplacementPolicy) Valid() bool {
	return p == PolicyStrictlyGreater || p == PolicyNotEqual
}

// DefaultRuleset 未指定时使用的规则集
const DefaultRuleset = "bettingtipsters-v3"

// Ruleset 一套版本化的分类配置：规则表、开赛时间偏移、替换策略、赔率阈值
type Ruleset struct {
	Name                string
	Layout              string
	KickoffOffsetHours  int
	MinPublishHour      int
	Policy              ReplacementPolicy
	FreeOverGoals       int // 总进球恰好等于该值 -> 免费 Over 2.5
	PremiumOverGoals    int // 总进球 >= 该值 -> 付费 Over 2.5
	OddsThreshold       decimal.Decimal
	DoubleChanceFactor  decimal.Decimal
	DoubleChanceDivisor decimal.Decimal
	MissingOdds         decimal.Decimal // 缺失赔率的兜底值，保证不会满足阈值
	Free                map[string]model.Market
	Premium             map[string]model.Market
}

// Table 返回指定等级的静态规则表
func (r *Ruleset) Table(tier model.Tier) map[string]model.Market {
	if tier == model.TierPremium {
		return r.Premium
	}
	return r.Free
}

var scorePattern = regexp.MustCompile(`^\d+:\d+$`)

// Validate 校验规则集
func (r *Ruleset) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("规则集名称不能为空")
	}
	if r.Layout != model.LayoutHeaderRows && r.Layout != model.LayoutCorrectScoreTable {
		return fmt.Errorf("规则集%s: 未知版式 %q", r.Name, r.Layout)
	}
	if !r.Policy.Valid() {
		return fmt.Errorf("规则集%s: 未知替换策略 %q", r.Name, r.Policy)
	}
	if r.MinPublishHour < 0 || r.MinPublishHour > 23 {
		return fmt.Errorf("规则集%s: 发布起始小时越界 %d", r.Name, r.MinPublishHour)
	}
	if r.FreeOverGoals <= 0 || r.PremiumOverGoals <= 0 {
		return fmt.Errorf("规则集%s: Over 2.5 进球阈值必须为正数", r.Name)
	}
	if r.DoubleChanceDivisor.IsZero() {
		return fmt.Errorf("规则集%s: 双重机会除数不能为0", r.Name)
	}
	for _, tier := range []model.Tier{model.TierFree, model.TierPremium} {
		for score, market := range r.Table(tier) {
			if !scorePattern.MatchString(score) {
				return fmt.Errorf("规则集%s: %s 表中比分格式错误 %q", r.Name, tier, score)
			}
			if !model.ValidMarket(market) {
				return fmt.Errorf("规则集%s: %s 表中未知玩法 %q", r.Name, tier, market)
			}
		}
	}
	return nil
}

// Clone 深拷贝，便于按配置覆盖字段
func (r *Ruleset) Clone() *Ruleset {
	c := *r
	c.Free = make(map[string]model.Market, len(r.Free))
	for k, v := range r.Free {
		c.Free[k] = v
	}
	c.Premium = make(map[string]model.Market, len(r.Premium))
	for k, v := range r.Premium {
		c.Premium[k] = v
	}
	return &c
}

var kickoffPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// AdjustKickoff 开赛时间加上偏移（按 24 小时取模），返回调整后的 HH:MM 与小时
func (r *Ruleset) AdjustKickoff(kickoff string) (string, int, bool) {
	m := kickoffPattern.FindStringSubmatch(kickoff)
	if m == nil {
		return "", 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return "", 0, false
	}
	adjusted := ((hours+r.KickoffOffsetHours)%24 + 24) % 24
	return fmt.Sprintf("%02d:%02d", adjusted, minutes), adjusted, true
}

// Publishable 调整后的小时是否在发布时段内（只发下午/晚上的比赛）
func (r *Ruleset) Publishable(adjustedHour int) bool {
	return adjustedHour >= r.MinPublishHour
}

func table(groups map[model.Market][]string) map[string]model.Market {
	t := make(map[string]model.Market)
	for market, scores := range groups {
		for _, s := range scores {
			t[s] = market
		}
	}
	return t
}

func baseRuleset(name, layout string, offset int, policy ReplacementPolicy) *Ruleset {
	return &Ruleset{
		Name:                name,
		Layout:              layout,
		KickoffOffsetHours:  offset,
		MinPublishHour:      12,
		Policy:              policy,
		FreeOverGoals:       4,
		PremiumOverGoals:    5,
		OddsThreshold:       decimal.RequireFromString("1.61"),
		DoubleChanceFactor:  decimal.RequireFromString("1.45"),
		DoubleChanceDivisor: decimal.RequireFromString("2.00"),
		MissingOdds:         decimal.NewFromInt(999),
	}
}

// builtins 历次改版保留下来的内置规则集；v3 为当前生效版本
func builtins() map[string]*Ruleset {
	v1 := baseRuleset("bettingtipsters-v1", model.LayoutHeaderRows, 3, PolicyStrictlyGreater)
	v1.Free = table(map[model.Market][]string{
		model.MarketHomeWin: {"2:0"},
		model.MarketAwayWin: {"0:2"},
	})
	v1.Premium = table(map[model.Market][]string{
		model.MarketHomeWin: {"3:0"},
		model.MarketAwayWin: {"0:3"},
		model.MarketUnder35: {"0:0"},
	})

	v2 := baseRuleset("bettingtipsters-v2", model.LayoutCorrectScoreTable, 1, PolicyNotEqual)
	v2.Free = table(map[model.Market][]string{
		model.MarketHomeWin: {"2:0", "2:1"},
		model.MarketAwayWin: {"0:2", "1:2"},
		model.MarketUnder35: {"1:0", "0:1", "1:1"},
	})
	v2.Premium = table(map[model.Market][]string{
		model.MarketHomeWin:    {"3:0", "3:1"},
		model.MarketAwayWin:    {"0:3", "1:3"},
		model.MarketHomeOrDraw: {"2:0"},
		model.MarketDrawOrAway: {"0:2"},
		model.MarketUnder35:    {"0:0"},
	})

	v3 := baseRuleset(DefaultRuleset, model.LayoutHeaderRows, 3, PolicyStrictlyGreater)
	v3.Free = table(map[model.Market][]string{
		model.MarketHomeWin: {"2:0"},
		model.MarketAwayWin: {"0:2"},
		model.MarketUnder35: {"1:0", "0:1"},
		model.MarketBTTS:    {"2:2", "1:2"},
	})
	v3.Premium = table(map[model.Market][]string{
		model.MarketHomeWin: {"3:0", "4:0"},
		model.MarketAwayWin: {"0:3", "0:4"},
		model.MarketUnder35: {"0:0"},
		model.MarketBTTS:    {"2:3", "2:4"},
	})

	return map[string]*Ruleset{v1.Name: v1, v2.Name: v2, v3.Name: v3}
}

// Builtin 按名称获取内置规则集（返回副本）
func Builtin(name string) (*Ruleset, error) {
	rs, ok := builtins()[name]
	if !ok {
		return nil, fmt.Errorf("未知规则集: %s", name)
	}
	return rs.Clone(), nil
}

// Resolve 按流程配置选出生效的规则集：先找配置文件中声明的，再找内置的，最后应用流程级覆盖
func Resolve(cfg *config.Config) (*Ruleset, error) {
	name := cfg.Pipeline.Ruleset
	if name == "" {
		name = DefaultRuleset
	}

	var rs *Ruleset
	for i := range cfg.Rulesets {
		if cfg.Rulesets[i].Name == name {
			built, err := FromConfig(&cfg.Rulesets[i])
			if err != nil {
				return nil, err
			}
			rs = built
			break
		}
	}
	if rs == nil {
		built, err := Builtin(name)
		if err != nil {
			return nil, err
		}
		rs = built
	}

	if cfg.Pipeline.OffsetHours != nil {
		rs.KickoffOffsetHours = *cfg.Pipeline.OffsetHours
	}
	if cfg.Pipeline.Policy != "" {
		rs.Policy = ReplacementPolicy(cfg.Pipeline.Policy)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// FromConfig 由配置文件中的规则集声明构造规则集；声明了 base 时在其基础上覆盖
func FromConfig(rc *config.RulesetConfig) (*Ruleset, error) {
	var rs *Ruleset
	if rc.Base != "" {
		base, err := Builtin(rc.Base)
		if err != nil {
			return nil, fmt.Errorf("规则集%s: %w", rc.Name, err)
		}
		rs = base
	} else {
		rs = baseRuleset(rc.Name, model.LayoutHeaderRows, 3, PolicyStrictlyGreater)
		rs.Free = map[string]model.Market{}
		rs.Premium = map[string]model.Market{}
	}
	rs.Name = rc.Name

	if rc.Layout != "" {
		rs.Layout = rc.Layout
	}
	if rc.OffsetHours != nil {
		rs.KickoffOffsetHours = *rc.OffsetHours
	}
	if rc.MinPublishHour != nil {
		rs.MinPublishHour = *rc.MinPublishHour
	}
	if rc.Policy != "" {
		rs.Policy = ReplacementPolicy(rc.Policy)
	}
	if rc.FreeOverGoals != nil {
		rs.FreeOverGoals = *rc.FreeOverGoals
	}
	if rc.PremiumOverGoals != nil {
		rs.PremiumOverGoals = *rc.PremiumOverGoals
	}
	if rc.OddsThreshold != nil {
		rs.OddsThreshold = decimal.NewFromFloat(*rc.OddsThreshold)
	}
	// 声明了表则整表替换，不与 base 合并
	if len(rc.Free) > 0 {
		rs.Free = entries(rc.Free)
	}
	if len(rc.Premium) > 0 {
		rs.Premium = entries(rc.Premium)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func entries(list []config.RuleEntry) map[string]model.Market {
	t := make(map[string]model.Market, len(list))
	for _, e := range list {
		t[e.Score] = model.Market(e.Market)
	}
	return t
}
