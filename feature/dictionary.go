package feature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rushteam/diffkit/core"
)

// ExampleIterator 顺序产出样本，结束时返回 io.EOF。
// dataset.Reader 实现此接口。
type ExampleIterator interface {
	Next() (*core.Example, error)
}

// Dictionary 是 token -> 下标 的词典。
//
// 约束：
//   - 下标从 0 开始连续分配，按语料中首次出现的顺序
//   - 构建完成后只读；训练集和测试集的特征抽取共用同一份词典
type Dictionary struct {
	index  map[string]int
	tokens []string
}

// BuildDictionary 顺序扫描一遍语料，为每个新 token 分配下一个下标。
// 语料读取失败时立即返回错误。
func BuildDictionary(it ExampleIterator) (*Dictionary, error) {
	d := &Dictionary{index: make(map[string]int)}
	for {
		ex, err := it.Next()
		if errors.Is(err, io.EOF) {
			return d, nil
		}
		if err != nil {
			return nil, fmt.Errorf("build dictionary: %w", err)
		}
		d.add(ex.Tokens())
	}
}

// BuildDictionaryFromExamples 是 BuildDictionary 的切片版本。
func BuildDictionaryFromExamples(examples []core.Example) *Dictionary {
	d := &Dictionary{index: make(map[string]int)}
	for i := range examples {
		d.add(examples[i].Tokens())
	}
	return d
}

func (d *Dictionary) add(tokens []string) {
	for _, tok := range tokens {
		if _, ok := d.index[tok]; ok {
			continue
		}
		d.index[tok] = len(d.tokens)
		d.tokens = append(d.tokens, tok)
	}
}

// NewDictionaryFromMap 从已持久化的 token -> 下标 映射恢复词典，并校验下标为 0..V-1。
func NewDictionaryFromMap(m map[string]int) (*Dictionary, error) {
	d := &Dictionary{
		index:  make(map[string]int, len(m)),
		tokens: make([]string, len(m)),
	}
	seen := make([]bool, len(m))
	for tok, idx := range m {
		if idx < 0 || idx >= len(m) {
			return nil, core.NewDomainError(core.ModuleDict, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dict: index %d of token %q out of range [0,%d)", idx, tok, len(m)))
		}
		if seen[idx] {
			return nil, core.NewDomainError(core.ModuleDict, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dict: duplicate index %d", idx))
		}
		seen[idx] = true
		d.index[tok] = idx
		d.tokens[idx] = tok
	}
	return d, nil
}

// Validate 校验下标恰好覆盖 0..V-1。
func (d *Dictionary) Validate() error {
	if len(d.index) != len(d.tokens) {
		return core.NewDomainError(core.ModuleDict, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dict: %d tokens but %d indices", len(d.index), len(d.tokens)))
	}
	for i, tok := range d.tokens {
		if d.index[tok] != i {
			return core.NewDomainError(core.ModuleDict, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dict: token %q at %d has index %d", tok, i, d.index[tok]))
		}
	}
	return nil
}

// Len 返回词表大小 V。
func (d *Dictionary) Len() int { return len(d.tokens) }

// Index 返回 token 的下标；不在词典中时返回 core.ErrTokenNotInDict。
func (d *Dictionary) Index(token string) (int, error) {
	idx, ok := d.index[token]
	if !ok {
		return 0, core.ErrTokenNotInDict.Wrap(strconv.Quote(token), nil)
	}
	return idx, nil
}

// Token 返回下标对应的 token，越界时返回空串。
func (d *Dictionary) Token(i int) string {
	if i < 0 || i >= len(d.tokens) {
		return ""
	}
	return d.tokens[i]
}

// Map 返回 token -> 下标 的副本。
func (d *Dictionary) Map() map[string]int {
	out := make(map[string]int, len(d.index))
	for k, v := range d.index {
		out[k] = v
	}
	return out
}

func (d *Dictionary) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.index)
}

func (d *Dictionary) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	restored, err := NewDictionaryFromMap(m)
	if err != nil {
		return err
	}
	*d = *restored
	return nil
}

// SaveDictionaryFile 把词典写成 JSON 文件。
func SaveDictionaryFile(path string, d *Dictionary) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dictionary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dictionary: %w", err)
	}
	return nil
}

// LoadDictionaryFile 从 JSON 文件读取词典；文件不存在是致命错误。
func LoadDictionaryFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var d Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	return &d, nil
}

// SaveDictionary 把词典写入存储。
// 后端实现了 core.KeyValueStore 时先按 token 逐字段写入临时 Hash，再整体改名覆盖 key，
// 写入失败时原词典保持不变；否则整体写成一个 JSON 值。
func SaveDictionary(ctx context.Context, s core.Store, key string, d *Dictionary) error {
	if kv, ok := s.(core.KeyValueStore); ok {
		if d.Len() == 0 {
			return kv.Delete(ctx, key)
		}
		fields := make(map[string][]byte, d.Len())
		for tok, idx := range d.index {
			fields[tok] = []byte(strconv.Itoa(idx))
		}
		staging := key + ":staging"
		if err := kv.Delete(ctx, staging); err != nil {
			return fmt.Errorf("reset dictionary %s: %w", staging, err)
		}
		if err := kv.HMSet(ctx, staging, fields); err != nil {
			_ = kv.Delete(ctx, staging)
			return fmt.Errorf("write dictionary %s: %w", key, err)
		}
		if err := kv.RenameHash(ctx, staging, key); err != nil {
			return fmt.Errorf("publish dictionary %s: %w", key, err)
		}
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

// LoadDictionary 从存储读取词典；key 不存在时返回 core.ErrStoreNotFound。
func LoadDictionary(ctx context.Context, s core.Store, key string) (*Dictionary, error) {
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		data, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		var d Dictionary
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse dictionary %s: %w", key, err)
		}
		return &d, nil
	}

	fields, err := kv.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, core.ErrStoreNotFound.Wrap(key, nil)
	}
	m := make(map[string]int, len(fields))
	for tok, raw := range fields {
		idx, err := strconv.Atoi(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse index of token %q: %w", tok, err)
		}
		m[tok] = idx
	}
	return NewDictionaryFromMap(m)
}

// DictionaryLoader 词典加载器接口，支持从不同来源加载（本地文件、存储后端）。
type DictionaryLoader interface {
	Load(ctx context.Context, source string) (*Dictionary, error)
}

// FileDictionaryLoader 本地文件词典加载器
type FileDictionaryLoader struct{}

func (FileDictionaryLoader) Load(ctx context.Context, path string) (*Dictionary, error) {
	return LoadDictionaryFile(path)
}

// StoreDictionaryLoader 存储后端词典加载器，source 为存储 key。
type StoreDictionaryLoader struct {
	Store core.Store
}

func (l StoreDictionaryLoader) Load(ctx context.Context, key string) (*Dictionary, error) {
	return LoadDictionary(ctx, l.Store, key)
}
