package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/feature"
)

// LinearModel 是词袋特征上的线性难度基线。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 输出 P 在 (0, 1) 之间，与网络的难度分同一量纲，可直接用 PCC/DOA 比较。
// Scaler 非空时，特征先按训练集的列均值/标准差标准化。
type LinearModel struct {
	Bias    float64               `json:"bias"`
	Weights []float64             `json:"weights"`
	Scaler  *feature.ZScoreScaler `json:"scaler,omitempty"`
}

// LinearConfig 是线性基线的训练参数。
type LinearConfig struct {
	Epochs       int     `yaml:"epochs" json:"epochs"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	L2           float64 `yaml:"l2" json:"l2"`
	// Standardize 为 true 时先对词袋特征做列 Z-score
	Standardize bool `yaml:"standardize" json:"standardize"`
}

// DefaultLinearConfig 返回默认训练参数。
func DefaultLinearConfig() LinearConfig {
	return LinearConfig{Epochs: 200, LearningRate: 0.5, L2: 0, Standardize: true}
}

func (m *LinearModel) Name() string { return "linear" }

// Predict 对单个稠密特征向量打分。
func (m *LinearModel) Predict(x []float64) (float64, error) {
	if err := m.checkScaler(); err != nil {
		return 0, err
	}
	if len(x) != len(m.Weights) {
		return 0, shapeErr("feature width %d, want %d", len(x), len(m.Weights))
	}
	if m.Scaler != nil {
		x = m.Scaler.TransformVec(x)
	}
	return sigmoid(m.Bias + floats.Dot(m.Weights, x)), nil
}

// checkScaler 要求标准化参数与权重等宽。
func (m *LinearModel) checkScaler() error {
	if m.Scaler == nil {
		return nil
	}
	if len(m.Scaler.Mean) != len(m.Weights) || len(m.Scaler.Std) != len(m.Weights) {
		return shapeErr("scaler has mean %d std %d, want %d",
			len(m.Scaler.Mean), len(m.Scaler.Std), len(m.Weights))
	}
	return nil
}

// PredictMatrix 对矩阵每一行打分。
func (m *LinearModel) PredictMatrix(x *mat.Dense) ([]float64, error) {
	if err := m.checkScaler(); err != nil {
		return nil, err
	}
	rows, cols := x.Dims()
	if cols != len(m.Weights) {
		return nil, shapeErr("feature width %d, want %d", cols, len(m.Weights))
	}
	if m.Scaler != nil {
		x = m.Scaler.Transform(x)
	}
	z := mat.NewVecDense(rows, nil)
	z.MulVec(x, mat.NewVecDense(cols, m.Weights))
	out := make([]float64, rows)
	for i := range out {
		out[i] = sigmoid(m.Bias + z.AtVec(i))
	}
	return out, nil
}

// Loss 返回 mean((y - P)²) + λ·½‖w‖²。
func (m *LinearModel) Loss(x *mat.Dense, y []float64, l2 float64) (float64, error) {
	pred, err := m.PredictMatrix(x)
	if err != nil {
		return 0, err
	}
	var se float64
	for i, p := range pred {
		d := y[i] - p
		se += d * d
	}
	return se/float64(len(y)) + l2*sumSquares(m.Weights), nil
}

// FitLinear 以全批量梯度下降最小化与网络相同的目标：平方误差 + L2。
// 权重从 0 开始，结果确定。返回模型与每轮的损失。
// cfg.Standardize 为 true 时在 x 上拟合 Z-score 并保存在模型中，预测时自动应用。
func FitLinear(x *mat.Dense, y []float64, cfg LinearConfig) (*LinearModel, []float64, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, nil, shapeErr("x has %d rows, y has %d", rows, len(y))
	}
	if cfg.Epochs <= 0 || cfg.LearningRate <= 0 {
		return nil, nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: invalid linear config %+v", cfg))
	}

	m := &LinearModel{Weights: make([]float64, cols)}
	if cfg.Standardize {
		m.Scaler = feature.FitZScore(x)
		x = m.Scaler.Transform(x)
	}
	w := mat.NewVecDense(cols, m.Weights)
	z := mat.NewVecDense(rows, nil)
	g := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)
	history := make([]float64, 0, cfg.Epochs)
	scale := 2 / float64(rows)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		z.MulVec(x, w)
		var se, gb float64
		for i := 0; i < rows; i++ {
			p := sigmoid(m.Bias + z.AtVec(i))
			d := p - y[i]
			se += d * d
			gi := scale * d * p * (1 - p)
			g.SetVec(i, gi)
			gb += gi
		}
		history = append(history, se/float64(rows)+cfg.L2*sumSquares(m.Weights))

		grad.MulVec(x.T(), g)
		if cfg.L2 > 0 {
			grad.AddScaledVec(grad, cfg.L2, w)
		}
		w.AddScaledVec(w, -cfg.LearningRate, grad)
		m.Bias -= cfg.LearningRate * gb

		if math.IsNaN(m.Bias) {
			return nil, history, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
				fmt.Sprintf("model: linear fit diverged at epoch %d", epoch))
		}
	}
	return m, history, nil
}

// LoadLinearModel 从 JSON 文件读取 {"bias": ..., "weights": [...]}。
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.checkScaler(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// SaveLinearModel 把模型写成 JSON 文件。
func SaveLinearModel(path string, m *LinearModel) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
