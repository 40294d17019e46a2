package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/diffkit/config"
	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/model"
	"github.com/rushteam/diffkit/pkg/dsl"
)

func writeJSONLines(t *testing.T, dir, name string, rows ...interface{}) string {
	t.Helper()
	var sb strings.Builder
	for _, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type row struct {
	ID       string   `json:"id"`
	Content  []string `json:"content"`
	Question []string `json:"question"`
	PosText  []string `json:"pos_text"`
	Diff     float64  `json:"diff"`
}

func trainRows() []interface{} {
	return []interface{}{
		row{ID: "t1", Content: []string{"long", "passage", "hard"}, Question: []string{"why"}, PosText: []string{"hard"}, Diff: 0.8},
		row{ID: "t2", Content: []string{"short", "text"}, Question: []string{"what"}, PosText: []string{"easy"}, Diff: 0.2},
		row{ID: "t3", Content: []string{"long", "hard", "hard"}, Question: []string{"why"}, PosText: []string{"passage"}, Diff: 0.9},
		row{ID: "t4", Content: []string{"short", "easy"}, Question: []string{"what"}, PosText: []string{"text"}, Diff: 0.1},
	}
}

func testRows() []interface{} {
	return []interface{}{
		row{ID: "s1", Content: []string{"hard", "passage"}, Question: []string{"why"}, PosText: []string{"long"}, Diff: 0.7},
		row{ID: "s2", Content: []string{"easy", "text"}, Question: []string{"what"}, PosText: []string{"short"}, Diff: 0.3},
		row{ID: "s3", Content: []string{"text"}, Question: []string{"why"}, PosText: []string{"easy"}, Diff: 0.4},
	}
}

func useConfig(t *testing.T) {
	t.Helper()
	cfg := config.Default()
	cfg.Network.SequenceLength = [3]int{4, 3, 2}
	cfg.Network.EmbeddingSize = 5
	cfg.Network.FilterSizes = [2]int{2, 2}
	cfg.Network.NumFilters = [2]int{4, 3}
	cfg.Network.PoolingSize = 2
	cfg.Network.FCHiddenSize = 6
	prev := appConfig
	appConfig = cfg
	t.Cleanup(func() { appConfig = prev })
}

func TestDictBOWBaseline(t *testing.T) {
	useConfig(t)
	dir := t.TempDir()
	trainPath := writeJSONLines(t, dir, "Train.json", trainRows()...)
	testPath := writeJSONLines(t, dir, "Test.json", testRows()...)
	corpus := writeJSONLines(t, dir, "data.json", append(trainRows(), testRows()...)...)

	dict, err := buildDictionaryFile(corpus)
	if err != nil {
		t.Fatalf("buildDictionaryFile() error = %v", err)
	}
	// long passage hard why short text what easy
	if dict.Len() != 8 {
		t.Fatalf("dict.Len() = %d, want 8", dict.Len())
	}

	trainBOW := filepath.Join(dir, "Train_BOW.json")
	testBOW := filepath.Join(dir, "Test_BOW.json")
	results, err := writeBOWFiles(context.Background(), feature.NewBOWBuilder(dict), nil,
		[]string{trainPath, testPath}, []string{trainBOW, testBOW})
	if err != nil {
		t.Fatalf("writeBOWFiles() error = %v", err)
	}
	if results[0].Records != 4 || results[1].Records != 3 {
		t.Errorf("records = %d/%d, want 4/3", results[0].Records, results[1].Records)
	}

	train, test, err := dataset.LoadXY(trainBOW, testBOW)
	if err != nil {
		t.Fatalf("LoadXY() error = %v", err)
	}
	if _, c := train.X.Dims(); c != dict.Len() {
		t.Errorf("feature width = %d, want %d", c, dict.Len())
	}
	if train.X.At(2, 2) != 2 {
		t.Errorf("t3 count of %q = %v, want 2", dict.Token(2), train.X.At(2, 2))
	}

	fit, err := fitBaseline(train, test, appConfig.Linear)
	if err != nil {
		t.Fatalf("fitBaseline() error = %v", err)
	}
	if len(fit.pred) != 3 {
		t.Fatalf("got %d predictions, want 3", len(fit.pred))
	}
	if fit.pred[0] <= fit.pred[1] {
		t.Errorf("hard example scored %v <= easy example %v", fit.pred[0], fit.pred[1])
	}

	res, err := evaluate(test.Y, fit.pred)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid || res.Pairs != 3 {
		t.Errorf("evaluate() = %+v", res)
	}

	predPath := filepath.Join(dir, "preds.json")
	if err := writePredictions(predPath, test.IDs, test.Y, fit.pred); err != nil {
		t.Fatal(err)
	}
	preds, err := dataset.ReadPredictions(predPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 3 || preds[0].ID != "s1" || preds[0].Pred != fit.pred[0] {
		t.Errorf("ReadPredictions() = %+v", preds)
	}
}

func TestWriteBOWFile_Errors(t *testing.T) {
	dir := t.TempDir()
	trainPath := writeJSONLines(t, dir, "Train.json", trainRows()...)
	testPath := writeJSONLines(t, dir, "Test.json", append(testRows(),
		row{ID: "s4", Content: []string{"unseen"}, Question: []string{"why"}, PosText: []string{"long"}, Diff: 0.5})...)

	// 只用训练集建词典，测试集里有词典外的词
	dict, err := buildDictionaryFile(trainPath)
	if err != nil {
		t.Fatal(err)
	}
	builder := feature.NewBOWBuilder(dict)

	filter, err := dsl.Compile("example.diff > 0.5")
	if err != nil {
		t.Fatal(err)
	}
	n, err := writeBOWFile(context.Background(), builder, filter, trainPath, filepath.Join(dir, "hard.json"))
	if err != nil || n != 2 {
		t.Errorf("filtered writeBOWFile() = %d, %v; want 2 records", n, err)
	}

	outPath := filepath.Join(dir, "out.json")
	_, err = writeBOWFile(context.Background(), builder, nil, testPath, outPath)
	if !errors.Is(err, core.ErrTokenNotInDict) {
		t.Errorf("error = %v, want ErrTokenNotInDict", err)
	}
	if exitCode(err) != ExitDataError {
		t.Errorf("exitCode() = %d, want %d", exitCode(err), ExitDataError)
	}
	for _, p := range []string{outPath, outPath + ".tmp"} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s left behind after failure: %v", filepath.Base(p), err)
		}
	}

	// 已有输出在失败后保持原样
	if err := os.WriteFile(outPath, []byte("previous\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := writeBOWFile(context.Background(), builder, nil, testPath, outPath); err == nil {
		t.Fatal("writeBOWFile() expected error")
	}
	if data, err := os.ReadFile(outPath); err != nil || string(data) != "previous\n" {
		t.Errorf("existing output = %q, %v; want unchanged", data, err)
	}

	_, err = writeBOWFile(context.Background(), builder, nil, filepath.Join(dir, "missing.json"), filepath.Join(dir, "x.json"))
	if exitCode(err) != ExitConfigError {
		t.Errorf("missing input exitCode() = %d, want %d", exitCode(err), ExitConfigError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := writeBOWFile(ctx, builder, nil, trainPath, filepath.Join(dir, "c.json")); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled writeBOWFile() error = %v", err)
	}
}

func TestDictionaryStore(t *testing.T) {
	useConfig(t)
	dir := t.TempDir()
	corpus := writeJSONLines(t, dir, "data.json", trainRows()...)
	dict, err := buildDictionaryFile(corpus)
	if err != nil {
		t.Fatal(err)
	}

	appConfig.Store.URI = filepath.Join(dir, "artifacts.db")
	ctx := context.Background()
	if err := saveDictionaryToStore(ctx, appConfig.Store.URI, appConfig.Store.DictKey, dict); err != nil {
		t.Fatalf("saveDictionaryToStore() error = %v", err)
	}
	loaded, err := loadDictionary(ctx, "")
	if err != nil {
		t.Fatalf("loadDictionary() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.Map(), dict.Map()) {
		t.Errorf("loaded dictionary = %v, want %v", loaded.Map(), dict.Map())
	}

	appConfig.Store.DictKey = "other"
	if _, err := loadDictionary(ctx, ""); exitCode(err) != ExitConfigError {
		t.Errorf("missing key exitCode() = %d, want %d", exitCode(err), ExitConfigError)
	}
}

func TestNewScorer(t *testing.T) {
	useConfig(t)
	dir := t.TempDir()
	testPath := writeJSONLines(t, dir, "Test.json", testRows()...)
	examples, err := dataset.ReadExamples(testPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	dict := feature.BuildDictionaryFromExamples(examples)

	scoreModel, scoreWeights, scoreVectors, scoreSave = "cmidp", "", "", filepath.Join(dir, "net.json")
	t.Cleanup(func() { scoreModel, scoreWeights, scoreVectors, scoreSave = "cmidp", "", "", "" })

	s, err := newScorer(dict)
	if err != nil {
		t.Fatalf("newScorer() error = %v", err)
	}
	scores, err := s.Score(examples)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range scores {
		if v <= 0 || v >= 1 {
			t.Errorf("score[%d] = %v, want in (0,1)", i, v)
		}
	}

	// 从保存的快照重新加载，得分一致
	scoreWeights, scoreSave = scoreSave, ""
	reloaded, err := newScorer(dict)
	if err != nil {
		t.Fatalf("newScorer() from snapshot error = %v", err)
	}
	again, err := reloaded.Score(examples)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(scores, again) {
		t.Errorf("snapshot scores = %v, want %v", again, scores)
	}

	scoreModel = "forest"
	if _, err := newScorer(dict); exitCode(err) != ExitConfigError {
		t.Errorf("unknown model exitCode() = %d, want %d", exitCode(err), ExitConfigError)
	}

	scoreModel = "linear"
	linearPath := filepath.Join(dir, "linear.json")
	weights := make([]float64, dict.Len())
	if err := model.SaveLinearModel(linearPath, &model.LinearModel{Weights: weights}); err != nil {
		t.Fatal(err)
	}
	scoreWeights = linearPath
	ls, err := newScorer(dict)
	if err != nil {
		t.Fatal(err)
	}
	flat, err := ls.Score(examples)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range flat {
		if v != 0.5 {
			t.Errorf("zero-weight linear score[%d] = %v, want 0.5", i, v)
		}
	}

	badPath := filepath.Join(dir, "bad_linear.json")
	if err := os.WriteFile(badPath, []byte(`{"bias":0,"weights":[1,2,3],"scaler":{"mean":[0],"std":[1]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	scoreWeights = badPath
	if _, err := newScorer(dict); exitCode(err) != ExitDataError {
		t.Errorf("short scaler exitCode() = %d, want %d", exitCode(err), ExitDataError)
	}
}

func TestLoadNetwork_Pretrained(t *testing.T) {
	useConfig(t)
	dir := t.TempDir()
	dict := feature.BuildDictionaryFromExamples([]core.Example{{Content: []string{"a", "b"}}})

	vectors := filepath.Join(dir, "vectors.json")
	if err := os.WriteFile(vectors, []byte(`{"a": [1, 2, 3], "b": [4, 5, 6]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	net, err := loadNetwork("", vectors, dict)
	if err != nil {
		t.Fatalf("loadNetwork() error = %v", err)
	}
	if v, d := net.Embedding.Dims(); v != 2 || d != 3 {
		t.Errorf("embedding dims = %dx%d, want 2x3", v, d)
	}
	if net.Embedding.Trainable {
		t.Error("embedding_type 0 should freeze pretrained vectors")
	}
	if got := net.Embedding.Lookup(1); got[2] != 6 {
		t.Errorf("Lookup(1) = %v", got)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DIFFKIT_STORE_URI", "memory://")
	t.Setenv("DIFFKIT_DATA_BATCH_SIZE", "7")
	t.Setenv("DIFFKIT_NETWORK_L2_REG_LAMBDA", "0.25")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Store.URI != "memory://" || cfg.Data.BatchSize != 7 || cfg.Network.L2RegLambda != 0.25 {
		t.Errorf("env overrides not applied: store=%q batch=%d l2=%v",
			cfg.Store.URI, cfg.Data.BatchSize, cfg.Network.L2RegLambda)
	}

	t.Setenv("DIFFKIT_DATA_BATCH_SIZE", "0")
	if _, err := loadConfig(""); !core.IsInvalidInput(err) {
		t.Errorf("loadConfig() error = %v, want INVALID_INPUT", err)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain", err: errors.New("boom"), want: ExitError},
		{name: "usage", err: usageErr("--in is required"), want: ExitConfigError},
		{name: "missing file", err: dataErr(os.ErrNotExist), want: ExitConfigError},
		{name: "bad data", err: dataErr(core.ErrTokenNotInDict), want: ExitDataError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
