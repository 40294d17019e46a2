package feature

import "github.com/samber/lo"

// LogisticLabelScale 是分类式基线使用的标签放大倍数：难度值乘以 1000 后取整作为类别。
const LogisticLabelScale = 1000

// ScaleLabels 把连续难度值放大后截断为整数标签。
func ScaleLabels(diffs []float64, factor float64) []int {
	return lo.Map(diffs, func(d float64, _ int) int {
		return int(d * factor)
	})
}
