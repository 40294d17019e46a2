package model

import (
	"fmt"

	"github.com/rushteam/diffkit/core"
)

// 词向量初始化方式，仅在提供预训练词向量时生效。
const (
	EmbeddingFrozen    = 0 // 预训练词向量，不参与训练
	EmbeddingTrainable = 1 // 预训练词向量，参与训练
)

// NetworkConfig 是卷积难度预测网络的超参数。
type NetworkConfig struct {
	// SequenceLength 是 content/question/option 三段输入的定长
	SequenceLength [3]int `yaml:"sequence_length" json:"sequence_length"`

	VocabSize     int `yaml:"vocab_size" json:"vocab_size"`
	EmbeddingSize int `yaml:"embedding_size" json:"embedding_size"`

	// EmbeddingType 见 EmbeddingFrozen / EmbeddingTrainable；无预训练词向量时忽略，随机初始化且可训练
	EmbeddingType int `yaml:"embedding_type" json:"embedding_type"`

	// FilterSizes 是两层卷积沿序列方向的核高度
	FilterSizes [2]int `yaml:"filter_sizes" json:"filter_sizes"`
	// NumFilters 是两层卷积的输出通道数
	NumFilters [2]int `yaml:"num_filters" json:"num_filters"`
	// PoolingSize 是第一层池化窗口/步长，第二层窗口由它推导
	PoolingSize int `yaml:"pooling_size" json:"pooling_size"`

	FCHiddenSize int     `yaml:"fc_hidden_size" json:"fc_hidden_size"`
	L2RegLambda  float64 `yaml:"l2_reg_lambda" json:"l2_reg_lambda"`

	// Seed 决定所有参数初始化与 dropout 的随机序列
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultNetworkConfig 返回默认超参数；VocabSize 需由词典决定。
func DefaultNetworkConfig() NetworkConfig {
	d := core.DefaultNetworkDefaults{}
	return NetworkConfig{
		SequenceLength: d.DefaultSequenceLength(),
		EmbeddingSize:  d.DefaultEmbeddingSize(),
		FilterSizes:    d.DefaultFilterSizes(),
		NumFilters:     d.DefaultNumFilters(),
		PoolingSize:    d.DefaultPoolingSize(),
		FCHiddenSize:   d.DefaultFCHiddenSize(),
		Seed:           1,
	}
}

// TotalLength 返回三段拼接后的序列长度 L。
func (c NetworkConfig) TotalLength() int {
	return c.SequenceLength[0] + c.SequenceLength[1] + c.SequenceLength[2]
}

// Shapes 是由超参数推导出的各层尺寸。
type Shapes struct {
	L     int // 拼接后序列长度
	Conv1 int // 第一层卷积输出长度 L + f0 - 1
	Pool1 int // 第一层池化输出长度
	Conv2 int // 第二层卷积输出长度 Pool1 + f1 - 1
	Pool2 int // 第二层池化窗口 ceil((L + f1 - 1) / pooling)
}

// Shapes 校验超参数并推导各层尺寸；第二层池化后必须恰好剩一个位置。
func (c NetworkConfig) Shapes() (Shapes, error) {
	for k, n := range c.SequenceLength {
		if n < 0 {
			return Shapes{}, shapeErr("sequence_length[%d] = %d", k, n)
		}
	}
	switch {
	case c.VocabSize <= 0:
		return Shapes{}, shapeErr("vocab_size = %d", c.VocabSize)
	case c.EmbeddingSize <= 0:
		return Shapes{}, shapeErr("embedding_size = %d", c.EmbeddingSize)
	case c.FilterSizes[0] <= 0 || c.FilterSizes[1] <= 0:
		return Shapes{}, shapeErr("filter_sizes = %v", c.FilterSizes)
	case c.NumFilters[0] <= 0 || c.NumFilters[1] <= 0:
		return Shapes{}, shapeErr("num_filters = %v", c.NumFilters)
	case c.PoolingSize <= 0:
		return Shapes{}, shapeErr("pooling_size = %d", c.PoolingSize)
	case c.FCHiddenSize <= 0:
		return Shapes{}, shapeErr("fc_hidden_size = %d", c.FCHiddenSize)
	case c.L2RegLambda < 0:
		return Shapes{}, shapeErr("l2_reg_lambda = %v", c.L2RegLambda)
	}

	s := Shapes{L: c.TotalLength()}
	if s.L == 0 {
		return Shapes{}, shapeErr("total sequence length is 0")
	}
	f0, f1, p := c.FilterSizes[0], c.FilterSizes[1], c.PoolingSize

	s.Conv1 = s.L + f0 - 1
	s.Pool1 = s.Conv1 / p
	if s.Pool1 < 1 {
		return Shapes{}, shapeErr("conv1 length %d shorter than pooling_size %d", s.Conv1, p)
	}

	s.Conv2 = s.Pool1 + f1 - 1
	s.Pool2 = (s.L + f1 - 1 + p - 1) / p
	if s.Conv2 < s.Pool2 || s.Conv2/s.Pool2 != 1 {
		return Shapes{}, shapeErr("conv2 length %d does not pool to one position with window %d", s.Conv2, s.Pool2)
	}
	return s, nil
}

func shapeErr(format string, args ...interface{}) error {
	return core.ErrShape.Wrap(fmt.Sprintf(format, args...), nil)
}
