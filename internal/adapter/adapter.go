// internal/adapter/adapter.go
package adapter

import (
	"fmt"
	"sort"

	"TipsSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 抽取器工厂函数签名
type Factory func(logger *logrus.Logger) interfaces.TableExtractor

// ========== 全局工厂函数注册表（按页面版式） ==========
var factoryRegistry = make(map[string]Factory)

// Register 供抽取器 init 函数调用，注册工厂函数
func Register(layout string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("版式%s的工厂函数不能为nil", layout))
	}
	if _, exists := factoryRegistry[layout]; exists {
		logrus.Warnf("版式%s的抽取器已注册，将覆盖原有实现", layout)
	}
	factoryRegistry[layout] = factory
}

// GetFactory 获取指定版式的工厂函数
func GetFactory(layout string) (Factory, bool) {
	factory, ok := factoryRegistry[layout]
	return factory, ok
}

// ListLayouts 列出所有已注册的版式（已排序）
func ListLayouts() []string {
	layouts := make([]string, 0, len(factoryRegistry))
	for l := range factoryRegistry {
		layouts = append(layouts, l)
	}
	sort.Strings(layouts)
	return layouts
}

// NewExtractor 按版式创建抽取器实例
func NewExtractor(layout string, logger *logrus.Logger) (interfaces.TableExtractor, error) {
	factory, ok := GetFactory(layout)
	if !ok {
		return nil, fmt.Errorf("版式%s未注册抽取器（已注册：%v）", layout, ListLayouts())
	}
	ext := factory(logger)
	if ext == nil {
		return nil, fmt.Errorf("版式%s的工厂函数返回nil", layout)
	}
	if ext.Layout() != layout {
		return nil, fmt.Errorf("抽取器版式%s与注册版式%s不匹配", ext.Layout(), layout)
	}
	logger.WithField("layout", layout).Info("抽取器初始化成功")
	return ext, nil
}
