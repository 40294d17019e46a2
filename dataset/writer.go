package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rushteam/diffkit/core"
)

// Writer 逐行写 JSON 对象，非 ASCII 字符原样输出。
type Writer struct {
	bw  *bufio.Writer
	enc *json.Encoder
	n   int
}

func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Writer{bw: bw, enc: enc}
}

// Write 写入一行；json.Encoder 会在末尾补换行。
func (w *Writer) Write(v interface{}) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("writing record %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Count 返回已写入的行数。
func (w *Writer) Count() int { return w.n }

// Flush 把缓冲写出。
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// WriteFeatureRecords 把特征记录逐行写入 w。
func WriteFeatureRecords(w io.Writer, records []core.FeatureRecord) error {
	fw := NewWriter(w)
	for i := range records {
		if err := fw.Write(&records[i]); err != nil {
			return err
		}
	}
	return fw.Flush()
}
