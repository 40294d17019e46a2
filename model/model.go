package model

import "github.com/rushteam/diffkit/core"

// Scorer 是难度预测的最小抽象：输入一批样本，输出每条样本 (0,1) 内的难度分。
// 具体实现可以是卷积网络（NetworkScorer）或词袋线性基线（LinearScorer）。
type Scorer interface {
	Name() string
	Score(examples []core.Example) ([]float64, error)
}
