package dataset

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/pkg/dsl"
)

const corpusJSON = `{"id": 1, "content": ["the", "cat"], "question": ["who"], "pos_text": ["cat"], "diff": 0.5}

{"id": "q2", "content": ["a", "dog"], "question": ["what"], "option": ["dog"], "diff": 0.2}
{"id": "q3", "content": ["猫"], "question": [], "pos_text": ["狗"], "diff": 0.9}
`

func TestReader_Next(t *testing.T) {
	r := NewReader(strings.NewReader(corpusJSON))

	examples, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(examples) != 3 {
		t.Fatalf("ReadAll() returned %d examples, want 3", len(examples))
	}
	if examples[0].ID != "1" {
		t.Errorf("numeric id = %q, want \"1\"", examples[0].ID)
	}
	if got := examples[1].Option; len(got) != 1 || got[0] != "dog" {
		t.Errorf("option alias = %v, want [dog]", got)
	}
	if got := examples[0].Tokens(); strings.Join(got, " ") != "the cat who cat" {
		t.Errorf("Tokens() = %v", got)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestReader_ParseErrorHasLineNumber(t *testing.T) {
	r := NewReader(strings.NewReader("{\"id\":\"a\",\"diff\":0.1}\n{broken\n"))
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next() error = %v", err)
	}
	_, err := r.Next()
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("Next() error = %v, want line 2", err)
	}
}

func TestReader_WithFilter(t *testing.T) {
	p, err := dsl.Compile("example.diff >= 0.5")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	examples, err := NewReader(strings.NewReader(corpusJSON)).WithFilter(p).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(examples) != 2 || examples[0].ID != "1" || examples[1].ID != "q3" {
		t.Errorf("filtered = %+v", examples)
	}
}

func TestReadExamples_MissingFile(t *testing.T) {
	_, err := ReadExamples(filepath.Join(t.TempDir(), "missing.json"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadExamples(missing) error = %v, want not-exist", err)
	}
}

func TestWriter_FeatureRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	records := []core.FeatureRecord{
		{ID: "猫1", Feature: []int{1, 0, 2}, Diff: 0.5},
		{ID: "2", Feature: []int{0, 1, 0}, Diff: 0.25},
	}
	for i := range records {
		if err := w.Write(&records[i]); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	if lines[0] != `{"id":"猫1","feature":[1,0,2],"diff":0.5}` {
		t.Errorf("line 0 = %s", lines[0])
	}

	path := filepath.Join(t.TempDir(), "bow.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFeatureRecords(path)
	if err != nil {
		t.Fatalf("ReadFeatureRecords() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "猫1" || got[1].Feature[1] != 1 {
		t.Errorf("ReadFeatureRecords() = %+v", got)
	}
}

func TestWriteFeatureRecords(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFeatureRecords(&buf, []core.FeatureRecord{
		{ID: "a", Feature: []int{0, 1}, Diff: 0.3},
		{ID: "狗", Feature: []int{2, 0}, Diff: 0.6},
	})
	if err != nil {
		t.Fatalf("WriteFeatureRecords() error = %v", err)
	}
	want := `{"id":"a","feature":[0,1],"diff":0.3}` + "\n" + `{"id":"狗","feature":[2,0],"diff":0.6}` + "\n"
	if buf.String() != want {
		t.Errorf("WriteFeatureRecords() wrote %q, want %q", buf.String(), want)
	}
}

func writeLines(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadXY(t *testing.T) {
	train := writeLines(t, "train.json",
		`{"id":"a","feature":[1,0,2],"diff":0.5}`,
		`{"id":"b","feature":[0,3,0],"diff":0.1}`,
	)
	test := writeLines(t, "test.json",
		`{"id":"c","feature":[1,1,1],"diff":0.7}`,
	)

	tr, te, err := LoadXY(train, test)
	if err != nil {
		t.Fatalf("LoadXY() error = %v", err)
	}
	if r, c := tr.X.Dims(); r != 2 || c != 3 {
		t.Errorf("train dims = %d x %d", r, c)
	}
	if tr.X.At(1, 1) != 3 || tr.Y[0] != 0.5 || tr.IDs[1] != "b" {
		t.Errorf("train = %+v", tr)
	}
	if te.Y[0] != 0.7 {
		t.Errorf("test Y = %v", te.Y)
	}

	wide := writeLines(t, "wide.json", `{"id":"d","feature":[1,1,1,1],"diff":0.7}`)
	if _, _, err := LoadXY(train, wide); !core.IsInvalidInput(err) {
		t.Errorf("LoadXY(width mismatch) error = %v, want INVALID_INPUT", err)
	}

	ragged := writeLines(t, "ragged.json",
		`{"id":"a","feature":[1,0],"diff":0.5}`,
		`{"id":"b","feature":[0],"diff":0.1}`,
	)
	if _, _, err := LoadXY(ragged, test); !core.IsInvalidInput(err) {
		t.Errorf("LoadXY(ragged) error = %v, want INVALID_INPUT", err)
	}
}

func TestReadPredictions(t *testing.T) {
	path := writeLines(t, "pred.json",
		`{"id":"a","diff":0.5,"pred":0.4}`,
		`{"id":"b","diff":0.1,"pred":0.2}`,
	)
	preds, err := ReadPredictions(path)
	if err != nil {
		t.Fatalf("ReadPredictions() error = %v", err)
	}
	truth, pred := SplitPredictions(preds)
	if len(truth) != 2 || truth[1] != 0.1 || pred[0] != 0.4 {
		t.Errorf("SplitPredictions() = %v, %v", truth, pred)
	}
}
