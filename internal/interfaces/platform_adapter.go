package interfaces

import (
	"context"

	"TipsSync/internal/model"
)

// PageFetcher 获取某日的原站页面。html 非空时直接使用，不发网络请求；
// 返回空字符串表示无数据（失败已在内部记录日志）
type PageFetcher interface {
	FetchPage(ctx context.Context, date string, html string) string
}

// TableExtractor 把页面解析为有序的原始行；格式错误的页面返回空切片
type TableExtractor interface {
	Layout() string
	Extract(html string) []model.RawRow
}

// TipStore 按日期整体替换 tips 的存储接口
type TipStore interface {
	CountByDate(ctx context.Context, date string) (int64, error)
	DeleteByDate(ctx context.Context, date string) (int64, error)
	InsertMany(ctx context.Context, tips []*model.Tip) (int, error)
	// Transaction 在同一事务内执行 fn，fn 返回错误则回滚
	Transaction(ctx context.Context, fn func(store TipStore) error) error
}

// DateLocker 同一日期的入库必须串行，返回的 unlock 必须调用
type DateLocker interface {
	Lock(ctx context.Context, date string) (unlock func(), err error)
}
