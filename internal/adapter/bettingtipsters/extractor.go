package bettingtipsters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"TipsSync/internal/adapter"
	"TipsSync/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(model.LayoutHeaderRows, NewHeaderRowsExtractor)
	adapter.Register(model.LayoutCorrectScoreTable, NewCorrectScoreExtractor)
}

var (
	kickoffPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	scorePattern   = regexp.MustCompile(`^(\d+)\s*[:\-]\s*(\d+)$`)
	vsPattern      = regexp.MustCompile(`(?i)\s+(?:-|vs\.?|v)\s+`)
)

// parseDocument 空页面或解析失败返回 false
func parseDocument(html string) (*goquery.Document, bool) {
	if strings.TrimSpace(html) == "" {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	return doc, true
}

// guard 抽取过程中的 panic 转为空结果
func guard(logger *logrus.Logger, layout string, rows *[]model.RawRow) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"layout": layout,
			"panic":  fmt.Sprint(r),
		}).Error("页面抽取异常，返回空结果")
		*rows = []model.RawRow{}
	}
}

// cleanText 合并空白（含 &nbsp;）
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// kickoff 取单元格中第一个合法的 HH:MM，统一为两位小时
func kickoff(text string) string {
	for _, m := range kickoffPattern.FindAllStringSubmatch(text, -1) {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h <= 23 && mm <= 59 {
			return fmt.Sprintf("%02d:%02d", h, mm)
		}
	}
	return ""
}

// parseOdd 无法解析或非正数视为缺失
func parseOdd(text string) *float64 {
	text = strings.ReplaceAll(cleanText(text), ",", ".")
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// normalizeScore "2 - 0" / "2:0" -> "2:0"；其他文本原样返回，交给分类器判定
func normalizeScore(text string) string {
	text = cleanText(text)
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		return m[1] + ":" + m[2]
	}
	return text
}

// splitTeams 按 " - " / " vs " 拆分主客队，必须恰好两队
func splitTeams(match string) (string, string, bool) {
	parts := vsPattern.Split(match, -1)
	if len(parts) != 2 {
		return "", "", false
	}
	home, away := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}

// textFragments 按文本节点切分单元格（<br> 分行的球队名）
func textFragments(s *goquery.Selection) []string {
	var out []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := cleanText(c.Text()); t != "" {
				out = append(out, t)
			}
			return
		}
		out = append(out, textFragments(c)...)
	})
	return out
}

// isColspanHeader 首个单元格跨列的行
func isColspanHeader(cells *goquery.Selection) bool {
	colspan, ok := cells.First().Attr("colspan")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(colspan))
	return err == nil && n > 1
}
