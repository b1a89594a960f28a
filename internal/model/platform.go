package model

// OddsTriple 主/平/客三项赔率，缺失项为 nil
type OddsTriple struct {
	Home *float64
	Draw *float64
	Away *float64
}

// RawRow 抓取页面得到的一行原始数据（不落库，抽取后立即交给分类器）
type RawRow struct {
	KickoffTime    string      // 原站开赛时间 HH:MM（无日期）
	League         string      // 继承自最近一个联赛标题行
	HomeTeam       string      // 主队
	AwayTeam       string      // 客队
	PredictedScore string      // 原站波胆预测，如 "2:0"，可能为空或格式错误
	Odds           *OddsTriple // 结构化赔率（header-rows 版式）
	SingleOdds     *float64    // 单值赔率（correct-score-table 版式）
}

// MatchTitle 入库用的对阵标题
func (r RawRow) MatchTitle() string {
	return r.HomeTeam + " vs " + r.AwayTeam
}
