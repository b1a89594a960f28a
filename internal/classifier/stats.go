package classifier

import "TipsSync/internal/model"

// TierStats 单个等级的统计
type TierStats struct {
	Count int            `json:"count"`
	Types map[string]int `json:"types"`
}

// ClassificationStats 一批比分的分类统计（诊断用，无副作用）
type ClassificationStats struct {
	Total        int       `json:"total"`
	Free         TierStats `json:"free"`
	Premium      TierStats `json:"premium"`
	Unclassified int       `json:"unclassified"`
}

// Stats 统计一批比分的分类结果；同一比分可能同时计入免费和付费
func (c *Classifier) Stats(scores []string) ClassificationStats {
	stats := ClassificationStats{
		Total:   len(scores),
		Free:    TierStats{Types: map[string]int{}},
		Premium: TierStats{Types: map[string]int{}},
	}

	for _, score := range scores {
		matched := false
		if out, ok := c.Classify(score, model.TierFree); ok {
			stats.Free.Count++
			stats.Free.Types[string(out.Market)]++
			matched = true
		}
		if out, ok := c.Classify(score, model.TierPremium); ok {
			stats.Premium.Count++
			stats.Premium.Types[string(out.Market)]++
			matched = true
		}
		if !matched {
			stats.Unclassified++
		}
	}
	return stats
}
