// Package diffkit 是一个题目难度预测工具包。
//
// 设计要点：
// - 两条独立的数值路径共用同一份语料格式（content/question/option 三段 token + diff）
// - 卷积难度网络（model.Network）：词向量 → 两层卷积池化 → 全连接 → Sigmoid
// - 词袋特征 + 线性基线（feature.BOWBuilder, model.LinearModel）
// - 评估（eval）：Pearson 相关系数（PCC）与排序一致度（DOA）
// - 词典与产物可落到 memory / redis / sqlite（store.Open）
package diffkit

import (
	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/eval"
	"github.com/rushteam/diffkit/model"
)

// 轻量 facade：便于用户直接 import "diffkit" 使用核心抽象。
type Example = core.Example
type Scorer = model.Scorer
type Result = eval.Result

// Evaluate 计算 PCC 与 DOA，见 eval.Evaluate。
func Evaluate(truth, pred []float64) (Result, error) {
	return eval.Evaluate(truth, pred)
}
