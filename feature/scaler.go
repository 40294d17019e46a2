package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ZScoreScaler 按列做 Z-score 标准化：z = (x - μ) / σ。
// 在训练集上 Fit，训练集和测试集使用同一组 μ/σ；σ 为 0 的列只做中心化。
type ZScoreScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitZScore 统计每一列的均值与（总体）标准差。
func FitZScore(x *mat.Dense) *ZScoreScaler {
	_, cols := x.Dims()
	s := &ZScoreScaler{Mean: make([]float64, cols), Std: make([]float64, cols)}
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Std[j] = math.Sqrt(variance)
	}
	return s
}

// Transform 返回标准化后的新矩阵，不修改输入。
func (s *ZScoreScaler) Transform(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		v -= s.Mean[j]
		if s.Std[j] > 0 {
			v /= s.Std[j]
		}
		return v
	}, x)
	return out
}

// TransformVec 标准化单个向量，返回新切片。
func (s *ZScoreScaler) TransformVec(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		v -= s.Mean[j]
		if s.Std[j] > 0 {
			v /= s.Std[j]
		}
		out[j] = v
	}
	return out
}
