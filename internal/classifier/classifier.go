package classifier

import (
	"strconv"
	"strings"

	"TipsSync/internal/model"
)

// Classifier 把原站的波胆比分映射成玩法 + 免费/付费等级
type Classifier struct {
	rs *Ruleset
}

func New(rs *Ruleset) *Classifier {
	return &Classifier{rs: rs}
}

// Ruleset 当前使用的规则集
func (c *Classifier) Ruleset() *Ruleset {
	return c.rs
}

// Classify 对单个比分按指定等级分类。
// 先走进球数规则（只作用于本等级），再查本等级的静态表；都不命中返回 false
func (c *Classifier) Classify(score string, tier model.Tier) (model.ClassifiedOutcome, bool) {
	score = strings.TrimSpace(score)
	if score == "" {
		return model.ClassifiedOutcome{}, false
	}

	if home, away, ok := parseScore(score); ok {
		total := home + away
		switch {
		case tier == model.TierPremium && total >= c.rs.PremiumOverGoals:
			return outcome(model.MarketOver25, tier), true
		case tier == model.TierFree && total == c.rs.FreeOverGoals:
			return outcome(model.MarketOver25, tier), true
		}
	}

	if market, ok := c.rs.Table(tier)[score]; ok {
		return outcome(market, tier), true
	}
	return model.ClassifiedOutcome{}, false
}

// ClassifyRow 对一行数据同时尝试免费和付费两档，并按赔率细化；
// 结果可能为 0、1 或 2 条
func (c *Classifier) ClassifyRow(row model.RawRow) []model.ClassifiedOutcome {
	var outcomes []model.ClassifiedOutcome
	for _, tier := range []model.Tier{model.TierFree, model.TierPremium} {
		out, ok := c.Classify(row.PredictedScore, tier)
		if !ok {
			continue
		}
		refined, keep := c.refine(out, row)
		if !keep {
			continue
		}
		outcomes = append(outcomes, refined)
	}
	return outcomes
}

func outcome(market model.Market, tier model.Tier) model.ClassifiedOutcome {
	return model.ClassifiedOutcome{
		Market:      market,
		Tier:        tier,
		RefinedOdds: model.NoOddsAvailable,
	}
}

// parseScore 解析 "home:away"，两边必须是非负整数
func parseScore(score string) (int, int, bool) {
	parts := strings.Split(score, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || home < 0 {
		return 0, 0, false
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || away < 0 {
		return 0, 0, false
	}
	return home, away, true
}
