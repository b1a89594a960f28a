package classifier

import (
	"TipsSync/internal/model"

	"github.com/shopspring/decimal"
)

// refine 按结构化赔率细化分类结果，返回 false 表示该结果应丢弃。
// 没有赔率三元组（单值赔率版式）时不做细化，赔率为占位符；三元组中缺失的一边按缺失赔率计
func (c *Classifier) refine(out model.ClassifiedOutcome, row model.RawRow) (model.ClassifiedOutcome, bool) {
	out.RefinedOdds = model.NoOddsAvailable
	if row.Odds == nil {
		return out, true
	}
	odds := row.Odds

	switch {
	case out.Market == model.MarketHomeWin && out.Tier == model.TierFree:
		return c.refineWin(out, odds.Home, model.MarketHomeOrDraw), true
	case out.Market == model.MarketAwayWin && out.Tier == model.TierFree:
		return c.refineWin(out, odds.Away, model.MarketDrawOrAway), true
	case out.Market == model.MarketHomeWin && out.Tier == model.TierPremium:
		if odds.Home != nil {
			out.RefinedOdds = decimal.NewFromFloat(*odds.Home).StringFixed(2)
		}
		return out, true
	case out.Market == model.MarketAwayWin && out.Tier == model.TierPremium:
		if odds.Away != nil {
			out.RefinedOdds = decimal.NewFromFloat(*odds.Away).StringFixed(2)
		}
		return out, true
	case out.Market == model.MarketOver25 && out.Tier == model.TierFree:
		// 主客任一方赔率 <= 阈值才保留
		lowest := decimal.Min(c.sideOrMissing(odds.Home), c.sideOrMissing(odds.Away))
		return out, lowest.LessThanOrEqual(c.rs.OddsThreshold)
	}
	return out, true
}

// refineWin 免费胜负：赔率够低保留原玩法，否则降级为双重机会并折算赔率
func (c *Classifier) refineWin(out model.ClassifiedOutcome, side *float64, fallback model.Market) model.ClassifiedOutcome {
	if side == nil {
		return out
	}
	odds := decimal.NewFromFloat(*side)
	if odds.LessThanOrEqual(c.rs.OddsThreshold) {
		out.RefinedOdds = odds.StringFixed(2)
		return out
	}
	out.Market = fallback
	out.RefinedOdds = odds.Mul(c.rs.DoubleChanceFactor).Div(c.rs.DoubleChanceDivisor).StringFixed(2)
	return out
}

func (c *Classifier) sideOrMissing(side *float64) decimal.Decimal {
	if side == nil {
		return c.rs.MissingOdds
	}
	return decimal.NewFromFloat(*side)
}
