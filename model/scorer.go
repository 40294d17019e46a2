package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/pkg/conv"
)

// DefaultBatchSize 是推理时每次前向计算的样本数。
const DefaultBatchSize = 64

// NetworkScorer 用卷积网络在推理模式（不做 dropout）下打分。
type NetworkScorer struct {
	Net       *Network
	Encoder   *feature.SequenceEncoder
	BatchSize int
}

// NewNetworkScorer 使用网络配置中的序列长度构建编码器。
func NewNetworkScorer(net *Network, dict *feature.Dictionary) *NetworkScorer {
	return &NetworkScorer{
		Net:       net,
		Encoder:   feature.NewSequenceEncoder(dict, net.Config.SequenceLength),
		BatchSize: DefaultBatchSize,
	}
}

func (s *NetworkScorer) Name() string { return s.Net.Name() }

// Score 分批编码并前向计算，返回与输入同序的难度分。
func (s *NetworkScorer) Score(examples []core.Example) ([]float64, error) {
	size := s.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([]float64, 0, len(examples))
	for start := 0; start < len(examples); start += size {
		end := min(start+size, len(examples))
		batch, err := s.Encoder.EncodeBatch(examples[start:end])
		if err != nil {
			return nil, err
		}
		res, err := s.Net.Forward(&Input{Fields: batch.Fields}, 1, false)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Flat()...)
	}
	return out, nil
}

// Predict 对单条样本打分。
func (s *NetworkScorer) Predict(ex *core.Example) (float64, error) {
	scores, err := s.Score([]core.Example{*ex})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// LinearScorer 先抽取词袋向量，再用线性基线打分。
type LinearScorer struct {
	Model *LinearModel
	BOW   *feature.BOWBuilder
}

func (s *LinearScorer) Name() string { return s.Model.Name() }

func (s *LinearScorer) Score(examples []core.Example) ([]float64, error) {
	if len(examples) == 0 {
		return []float64{}, nil
	}
	width := s.BOW.Dict.Len()
	if width == 0 {
		return nil, shapeErr("empty dictionary")
	}
	data := make([]float64, 0, len(examples)*width)
	for i := range examples {
		vec, err := s.BOW.Build(&examples[i])
		if err != nil {
			return nil, err
		}
		data = append(data, conv.IntsToFloat64(vec)...)
	}
	return s.Model.PredictMatrix(mat.NewDense(len(examples), width, data))
}
