package bettingtipsters

import (
	"TipsSync/internal/interfaces"
	"TipsSync/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// HeaderRowsExtractor 联赛以跨列标题行分隔的版式：
// 时间 | 主队 - 客队 | 主胜赔率 | 平局赔率 | 客胜赔率 | 预测比分
type HeaderRowsExtractor struct {
	logger *logrus.Logger
}

func NewHeaderRowsExtractor(logger *logrus.Logger) interfaces.TableExtractor {
	return &HeaderRowsExtractor{logger: logger}
}

func (e *HeaderRowsExtractor) Layout() string {
	return model.LayoutHeaderRows
}

func (e *HeaderRowsExtractor) Extract(html string) (rows []model.RawRow) {
	rows = []model.RawRow{}
	defer guard(e.logger, e.Layout(), &rows)

	doc, ok := parseDocument(html)
	if !ok {
		return rows
	}

	currentLeague := ""
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td, th")
		if league, ok := leagueHeading(cells); ok {
			currentLeague = league
			return
		}
		if tr.ChildrenFiltered("th").Length() > 0 {
			return
		}

		tds := tr.ChildrenFiltered("td")
		if tds.Length() < 5 || currentLeague == "" {
			return
		}

		kick := kickoff(tds.Eq(0).Text())
		home, away, ok := splitTeams(cleanText(tds.Eq(1).Text()))
		if kick == "" || !ok {
			return
		}

		row := model.RawRow{
			KickoffTime:    kick,
			League:         currentLeague,
			HomeTeam:       home,
			AwayTeam:       away,
			PredictedScore: tipText(tds.Eq(5)),
			// 本版式始终带赔率三元组，缺失项留空由分类器按缺失处理
			Odds: &model.OddsTriple{
				Home: parseOdd(tds.Eq(2).Text()),
				Draw: parseOdd(tds.Eq(3).Text()),
				Away: parseOdd(tds.Eq(4).Text()),
			},
		}
		rows = append(rows, row)
	})

	e.logger.WithFields(logrus.Fields{
		"layout": e.Layout(),
		"rows":   len(rows),
	}).Debug("页面抽取完成")
	return rows
}

// leagueHeading 跨列单元格内含 h1-h6 的行是联赛标题
func leagueHeading(cells *goquery.Selection) (string, bool) {
	if cells.Length() == 0 || !isColspanHeader(cells) {
		return "", false
	}
	heading := cells.First().Find("h1, h2, h3, h4, h5, h6")
	if heading.Length() == 0 {
		return "", false
	}
	return cleanText(heading.First().Text()), true
}

// tipText 优先取 <strong> 内的比分
func tipText(cell *goquery.Selection) string {
	if cell.Length() == 0 {
		return ""
	}
	if strong := cleanText(cell.Find("strong").Text()); strong != "" {
		return normalizeScore(strong)
	}
	return normalizeScore(cell.Text())
}
