// Package eval 计算难度预测的评估指标：Pearson 相关系数（PCC）与一致度（DOA）。
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/diffkit/core"
)

// InvalidResult 是无可比较样本对时返回的哨兵值。
const InvalidResult = -1.0

// Pearson 计算预测值与真实值的 Pearson 相关系数。
// 结果为 NaN/Inf 时（如任一序列方差为 0、样本数不足 2）仍返回该值，
// 同时返回 core.ErrUndefinedCorrelation，由调用方决定如何上报。
func Pearson(truth, pred []float64) (float64, error) {
	if len(truth) != len(pred) {
		return math.NaN(), core.ErrLengthMismatch.Wrap(fmt.Sprintf("truth %d, pred %d", len(truth), len(pred)), nil)
	}
	if len(truth) < 2 {
		return math.NaN(), core.ErrUndefinedCorrelation.Wrap(fmt.Sprintf("n=%d", len(truth)), nil)
	}
	pcc := stat.Correlation(pred, truth, nil)
	if math.IsNaN(pcc) || math.IsInf(pcc, 0) {
		return pcc, core.ErrUndefinedCorrelation
	}
	return pcc, nil
}

// DOA 计算一致度（Degree of Agreement）。
//
// 对所有 i<j 的样本对：
//   - 真实值与预测值同向严格有序（同大或同小）：计为正确，n++
//   - 真实值相等且预测值也相等：跳过，不计入 n
//   - 其余情况（含真实值相等但预测值不等）：只 n++
//
// 返回 doa = correct / n。n 为 0 时返回 InvalidResult 与 core.ErrNoComparablePairs。
// 时间复杂度 O(N²)。
func DOA(truth, pred []float64) (doa float64, correct, n int, err error) {
	if len(truth) != len(pred) {
		return InvalidResult, 0, 0, core.ErrLengthMismatch.Wrap(fmt.Sprintf("truth %d, pred %d", len(truth), len(pred)), nil)
	}

	for i := 0; i < len(truth)-1; i++ {
		ti, pi := truth[i], pred[i]
		for j := i + 1; j < len(truth); j++ {
			tj, pj := truth[j], pred[j]
			switch {
			case ti > tj && pi > pj:
				correct++
			case ti == tj && pi == pj:
				continue
			case ti < tj && pi < pj:
				correct++
			}
			n++
		}
	}

	if n == 0 {
		return InvalidResult, 0, 0, core.ErrNoComparablePairs
	}
	return float64(correct) / float64(n), correct, n, nil
}
