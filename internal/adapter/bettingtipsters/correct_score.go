package bettingtipsters

import (
	"regexp"
	"strings"

	"TipsSync/internal/interfaces"
	"TipsSync/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var (
	correctScoreHeader = regexp.MustCompile(`(?i)correct[\s\-]*score`)
	subHeaderPattern   = regexp.MustCompile(`(?i)^(correct[\s\-]*score|odds?|tips?|prediction)$`)
)

// 列下标，-1 表示未识别
type columns struct {
	time, match, score, odds int
}

// CorrectScoreExtractor "Correct Score" 表格版式：
// 时间 | 主队<br>客队 | 比分 | 单一赔率，联赛以跨列行分隔
type CorrectScoreExtractor struct {
	logger *logrus.Logger
}

func NewCorrectScoreExtractor(logger *logrus.Logger) interfaces.TableExtractor {
	return &CorrectScoreExtractor{logger: logger}
}

func (e *CorrectScoreExtractor) Layout() string {
	return model.LayoutCorrectScoreTable
}

func (e *CorrectScoreExtractor) Extract(html string) (rows []model.RawRow) {
	rows = []model.RawRow{}
	defer guard(e.logger, e.Layout(), &rows)

	doc, ok := parseDocument(html)
	if !ok {
		return rows
	}

	table, header := findCorrectScoreTable(doc)
	if table == nil {
		e.logger.WithField("layout", e.Layout()).Warn("页面中未找到比分表格")
		return rows
	}
	cols := resolveColumns(header)

	currentLeague := ""
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if header != nil && tr.IsSelection(header) {
			return
		}
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return
		}
		if isColspanHeader(cells) || cells.Length() == 1 {
			if league := cleanText(cells.First().Text()); league != "" && !correctScoreHeader.MatchString(league) {
				currentLeague = league
			}
			return
		}
		if isSubHeader(cells) || currentLeague == "" {
			return
		}

		kick := kickoff(cellText(cells, cols.time))
		home, away, ok := teamsFromCell(cells, cols.match)
		if kick == "" || !ok {
			return
		}

		row := model.RawRow{
			KickoffTime:    kick,
			League:         currentLeague,
			HomeTeam:       home,
			AwayTeam:       away,
			PredictedScore: normalizeScore(cellText(cells, cols.score)),
		}
		if cols.odds >= 0 {
			row.SingleOdds = parseOdd(cellText(cells, cols.odds))
		}
		rows = append(rows, row)
	})

	e.logger.WithFields(logrus.Fields{
		"layout": e.Layout(),
		"rows":   len(rows),
	}).Debug("页面抽取完成")
	return rows
}

// findCorrectScoreTable 返回表头含 "correct score" 的最内层表格及其表头行
func findCorrectScoreTable(doc *goquery.Document) (*goquery.Selection, *goquery.Selection) {
	var table, header *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if t.Find("table").Length() > 0 {
			return true
		}
		t.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cells := tr.ChildrenFiltered("td, th")
			if cells.Length() < 2 {
				return true
			}
			found := false
			cells.EachWithBreak(func(_ int, c *goquery.Selection) bool {
				found = correctScoreHeader.MatchString(cleanText(c.Text()))
				return !found
			})
			if found {
				header = tr
			}
			return !found
		})
		if header != nil {
			table = t
		}
		return table == nil
	})
	return table, header
}

// resolveColumns 根据表头文字定位各列，识别不到时按位置回退
func resolveColumns(header *goquery.Selection) columns {
	cols := columns{time: -1, match: -1, score: -1, odds: -1}
	if header != nil {
		header.ChildrenFiltered("td, th").Each(func(i int, c *goquery.Selection) {
			text := strings.ToLower(cleanText(c.Text()))
			switch {
			case cols.score < 0 && correctScoreHeader.MatchString(text):
				cols.score = i
			case cols.time < 0 && (strings.Contains(text, "time") || strings.Contains(text, "kick")):
				cols.time = i
			case cols.match < 0 && (strings.Contains(text, "match") || strings.Contains(text, "teams") || strings.Contains(text, "fixture")):
				cols.match = i
			case cols.odds < 0 && strings.Contains(text, "odd"):
				cols.odds = i
			}
		})
	}
	if cols.time < 0 {
		cols.time = 0
	}
	if cols.match < 0 {
		cols.match = 1
	}
	if cols.score < 0 {
		cols.score = 2
	}
	if cols.odds < 0 && header == nil {
		cols.odds = 3
	}
	return cols
}

// isSubHeader 表格中途重复出现的表头行
func isSubHeader(cells *goquery.Selection) bool {
	for i := 1; i <= 2 && i < cells.Length(); i++ {
		if subHeaderPattern.MatchString(cleanText(cells.Eq(i).Text())) {
			return true
		}
	}
	return false
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx < 0 || idx >= cells.Length() {
		return ""
	}
	return cells.Eq(idx).Text()
}

// teamsFromCell 主客队可能分两行显示，也可能写成 "A - B"
func teamsFromCell(cells *goquery.Selection, idx int) (string, string, bool) {
	if idx < 0 || idx >= cells.Length() {
		return "", "", false
	}
	cell := cells.Eq(idx)
	var parts []string
	for _, frag := range textFragments(cell) {
		if frag == "-" || strings.EqualFold(frag, "vs") || strings.EqualFold(frag, "v") {
			continue
		}
		parts = append(parts, frag)
	}
	if len(parts) >= 2 {
		if home, away, ok := splitTeams(parts[0]); ok {
			return home, away, true
		}
		return parts[0], parts[1], true
	}
	return splitTeams(cleanText(cell.Text()))
}
