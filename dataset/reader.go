// Package dataset 读写 JSON-lines 语料与特征文件。
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/pkg/dsl"
)

// MaxLineCapacity 是单行 JSON 的最大缓冲（1MB）。长篇章样本可能超过 bufio 默认的 64KB。
const MaxLineCapacity = 1024 * 1024

// Reader 从 io.Reader 顺序读取样本，每行一个 JSON 对象，空行跳过。
// 实现 feature.ExampleIterator。
type Reader struct {
	scanner *bufio.Scanner
	filter  *dsl.Program
	lineNum int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineCapacity)
	return &Reader{scanner: scanner}
}

// WithFilter 只产出满足表达式的样本；nil 表示不过滤。
func (r *Reader) WithFilter(p *dsl.Program) *Reader {
	r.filter = p
	return r
}

// Next 返回下一条样本，读完返回 io.EOF。
func (r *Reader) Next() (*core.Example, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ex core.Example
		if err := json.Unmarshal(line, &ex); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", r.lineNum, err)
		}
		if r.filter != nil {
			ok, err := r.filter.Match(&ex)
			if err != nil {
				return nil, fmt.Errorf("filter line %d: %w", r.lineNum, err)
			}
			if !ok {
				continue
			}
		}
		return &ex, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", r.lineNum+1, err)
	}
	return nil, io.EOF
}

// ReadAll 读取剩余全部样本。
func (r *Reader) ReadAll() ([]core.Example, error) {
	var out []core.Example
	for {
		ex, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *ex)
	}
}

// ReadExamples 读取整个语料文件。文件不存在是致命错误。
func ReadExamples(path string, filter *dsl.Program) ([]core.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	examples, err := NewReader(f).WithFilter(filter).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

// ReadFeatureRecords 读取整个特征文件。
func ReadFeatureRecords(path string) ([]core.FeatureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feature file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineCapacity)

	var records []core.FeatureRecord
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec core.FeatureRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%s: parsing line %d: %w", path, lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading feature file: %w", err)
	}
	return records, nil
}
