package model

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/pkg/conv"
)

// Embedding 是 token 下标 -> 稠密向量 的查找表。
//
// 来源：
//   - 随机初始化（[-1, 1] 均匀分布），参与训练
//   - 外部预训练词向量（如 word2vec），可冻结或参与训练
type Embedding struct {
	// Table 是 vocab_size × embedding_size 的矩阵，第 i 行是下标 i 的向量
	Table *mat.Dense

	// Trainable 为 false 时不计入 L2 正则，也不应被优化器更新
	Trainable bool
}

// Lookup 返回第 idx 行（引用底层存储，调用方不应修改）。
func (e *Embedding) Lookup(idx int) []float64 {
	return e.Table.RawRowView(idx)
}

// Dims 返回 (vocab_size, embedding_size)。
func (e *Embedding) Dims() (int, int) {
	return e.Table.Dims()
}

// LoadPretrained 按词典顺序把 token -> 向量 映射排成 vocab × dim 矩阵。
// 词典中缺少向量的 token 保持零向量；向量维度不一致时报错。
func LoadPretrained(vectors map[string][]float64, dict *feature.Dictionary) (*mat.Dense, error) {
	dim := 0
	for word, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("inconsistent vector dimension: word %s has dimension %d, expected %d", word, len(vec), dim)
		}
	}
	if dim == 0 {
		return nil, fmt.Errorf("no valid vectors found")
	}
	if dict.Len() == 0 {
		return nil, fmt.Errorf("empty dictionary")
	}

	table := mat.NewDense(dict.Len(), dim, nil)
	for i := 0; i < dict.Len(); i++ {
		if vec, ok := vectors[dict.Token(i)]; ok {
			table.SetRow(i, vec)
		}
	}
	return table, nil
}

// ParseWordVectors 从 map 解析词向量（用于 JSON/YAML 解析结果），非数值元素被跳过。
func ParseWordVectors(data map[string]interface{}) (map[string][]float64, error) {
	vectors := make(map[string][]float64, len(data))
	for word, raw := range data {
		items, ok := raw.([]interface{})
		if !ok {
			continue
		}
		vec := conv.ConvertSlice(items, conv.ToFloat64)
		if len(vec) > 0 {
			vectors[word] = vec
		}
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no valid vectors found")
	}
	return vectors, nil
}

// LoadWordVectorsFile 读取 {"word": [0.1, ...], ...} 形式的 JSON 词向量文件。
func LoadWordVectorsFile(path string) (map[string][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word vectors: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse word vectors %s: %w", path, err)
	}
	return ParseWordVectors(raw)
}
