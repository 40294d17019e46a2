package feature

import (
	"fmt"

	"github.com/rushteam/diffkit/core"
)

// SequenceEncoder 把样本的三段 token 转换为定长下标序列，作为网络输入。
// 超长截断、不足用 PadIndex 右侧补齐。
type SequenceEncoder struct {
	Dict     *Dictionary
	Lengths  [3]int
	PadIndex int
}

func NewSequenceEncoder(dict *Dictionary, lengths [3]int) *SequenceEncoder {
	return &SequenceEncoder{Dict: dict, Lengths: lengths}
}

// Encode 返回 content/question/option 三段定长下标序列。
func (e *SequenceEncoder) Encode(ex *core.Example) ([3][]int, error) {
	var out [3][]int
	for k, field := range ex.Fields() {
		seq := make([]int, e.Lengths[k])
		for i := range seq {
			seq[i] = e.PadIndex
		}
		for i := 0; i < len(field) && i < len(seq); i++ {
			idx, err := e.Dict.Index(field[i])
			if err != nil {
				return out, fmt.Errorf("example %s: %w", ex.ID, err)
			}
			seq[i] = idx
		}
		out[k] = seq
	}
	return out, nil
}

// Batch 是一批网络输入：三段下标矩阵 [batch][len_k] 与标签 [batch][1]。
type Batch struct {
	IDs    []string
	Fields [3][][]int
	Labels [][]float64
}

// Size 返回批大小。
func (b *Batch) Size() int { return len(b.Labels) }

// EncodeBatch 编码一批样本。
func (e *SequenceEncoder) EncodeBatch(examples []core.Example) (*Batch, error) {
	b := &Batch{
		IDs:    make([]string, 0, len(examples)),
		Labels: make([][]float64, 0, len(examples)),
	}
	for k := range b.Fields {
		b.Fields[k] = make([][]int, 0, len(examples))
	}
	for i := range examples {
		seqs, err := e.Encode(&examples[i])
		if err != nil {
			return nil, err
		}
		for k := range seqs {
			b.Fields[k] = append(b.Fields[k], seqs[k])
		}
		b.IDs = append(b.IDs, examples[i].ID)
		b.Labels = append(b.Labels, []float64{examples[i].Diff})
	}
	return b, nil
}
