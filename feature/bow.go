package feature

import (
	"github.com/rushteam/diffkit/core"
)

// BOWBuilder 把样本转换为定长词袋计数向量。
//
// 向量长度等于词表大小 V，第 i 维是下标为 i 的 token 在
// content + question + option 中出现的次数（重复计数）。
// 遇到词典外的 token 直接失败，不做 OOV 兜底。
type BOWBuilder struct {
	Dict *Dictionary
}

func NewBOWBuilder(dict *Dictionary) *BOWBuilder {
	return &BOWBuilder{Dict: dict}
}

// Build 返回样本的词袋向量。
func (b *BOWBuilder) Build(ex *core.Example) ([]int, error) {
	feature := make([]int, b.Dict.Len())
	for _, tok := range ex.Tokens() {
		idx, err := b.Dict.Index(tok)
		if err != nil {
			return nil, err
		}
		feature[idx]++
	}
	return feature, nil
}

// BuildRecord 返回可直接写入特征文件的一行。
func (b *BOWBuilder) BuildRecord(ex *core.Example) (*core.FeatureRecord, error) {
	feature, err := b.Build(ex)
	if err != nil {
		return nil, err
	}
	return &core.FeatureRecord{ID: ex.ID, Feature: feature, Diff: ex.Diff}, nil
}
