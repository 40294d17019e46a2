package core

import "encoding/json"

// Example 是语料中的一条样本：篇章（content）、题干（question）、选项（option）与难度标签。
// 三段文本都是已分词的 token 列表，Diff 是连续的难度值。
type Example struct {
	ID       string   `json:"id"`
	Content  []string `json:"content"`
	Question []string `json:"question"`
	Option   []string `json:"pos_text"`
	Diff     float64  `json:"diff"`
}

// Tokens 按 content + question + option 的顺序拼接三段 token。
func (e *Example) Tokens() []string {
	out := make([]string, 0, len(e.Content)+len(e.Question)+len(e.Option))
	out = append(out, e.Content...)
	out = append(out, e.Question...)
	out = append(out, e.Option...)
	return out
}

// Fields 返回三段 token，顺序与网络输入一致。
func (e *Example) Fields() [3][]string {
	return [3][]string{e.Content, e.Question, e.Option}
}

// UnmarshalJSON 兼容 "option" 与 "pos_text" 两种选项字段名，pos_text 优先。
func (e *Example) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Content  []string        `json:"content"`
		Question []string        `json:"question"`
		PosText  []string        `json:"pos_text"`
		Option   []string        `json:"option"`
		Diff     float64         `json:"diff"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = rawID(raw.ID)
	e.Content = raw.Content
	e.Question = raw.Question
	e.Option = raw.PosText
	if e.Option == nil {
		e.Option = raw.Option
	}
	e.Diff = raw.Diff
	return nil
}

// FeatureRecord 是特征文件的一行：词袋计数向量 + 难度标签。
type FeatureRecord struct {
	ID      string  `json:"id"`
	Feature []int   `json:"feature"`
	Diff    float64 `json:"diff"`
}

// UnmarshalJSON 兼容数字或字符串形式的 id。
func (r *FeatureRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Feature []int           `json:"feature"`
		Diff    float64         `json:"diff"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = rawID(raw.ID)
	r.Feature = raw.Feature
	r.Diff = raw.Diff
	return nil
}

// rawID 语料里的 id 可能是字符串也可能是数字，统一转成字符串。
func rawID(b json.RawMessage) string {
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return string(b)
}
