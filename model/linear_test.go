package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/feature"
)

func TestFitLinear(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 1,
		0, 1,
		0, 0,
	})
	y := []float64{0.8, 0.8, 0.2, 0.2}

	m, history, err := FitLinear(x, y, LinearConfig{Epochs: 300, LearningRate: 1})
	if err != nil {
		t.Fatalf("FitLinear() error = %v", err)
	}
	if len(history) != 300 {
		t.Fatalf("history has %d entries, want 300", len(history))
	}
	if history[len(history)-1] >= history[0] {
		t.Errorf("loss did not decrease: %v -> %v", history[0], history[len(history)-1])
	}

	hard, err := m.Predict([]float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	easy, err := m.Predict([]float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if hard <= easy {
		t.Errorf("Predict(hard) = %v <= Predict(easy) = %v", hard, easy)
	}

	loss, err := m.Loss(x, y, 0)
	if err != nil {
		t.Fatal(err)
	}
	if loss > history[0] {
		t.Errorf("final loss %v above initial %v", loss, history[0])
	}
}

func TestFitLinear_Errors(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 0})

	if _, _, err := FitLinear(x, []float64{1}, DefaultLinearConfig()); !errors.Is(err, core.ErrShape) {
		t.Errorf("row mismatch error = %v, want ErrShape", err)
	}
	if _, _, err := FitLinear(x, []float64{1, 0}, LinearConfig{}); !core.IsInvalidInput(err) {
		t.Errorf("zero epochs error = %v, want INVALID_INPUT", err)
	}

	m := &LinearModel{Weights: []float64{1, 2}}
	if _, err := m.Predict([]float64{1}); !errors.Is(err, core.ErrShape) {
		t.Errorf("Predict() width error = %v, want ErrShape", err)
	}
	if _, err := m.PredictMatrix(x); !errors.Is(err, core.ErrShape) {
		t.Errorf("PredictMatrix() width error = %v, want ErrShape", err)
	}
}

func TestLinearModel_SaveLoad(t *testing.T) {
	m := &LinearModel{Bias: -0.5, Weights: []float64{0.25, 1.5}}
	path := filepath.Join(t.TempDir(), "linear.json")
	if err := SaveLinearModel(path, m); err != nil {
		t.Fatal(err)
	}
	got, err := LoadLinearModel(path)
	if err != nil {
		t.Fatalf("LoadLinearModel() error = %v", err)
	}
	if got.Bias != m.Bias || len(got.Weights) != 2 || got.Weights[1] != 1.5 {
		t.Errorf("LoadLinearModel() = %+v, want %+v", got, m)
	}
	if _, err := LoadLinearModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLinearModel_ScalerWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.json")
	data := `{"bias":0,"weights":[1,2,3],"scaler":{"mean":[0],"std":[1]}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLinearModel(path); !errors.Is(err, core.ErrShape) {
		t.Fatalf("LoadLinearModel(short scaler) error = %v, want ErrShape", err)
	}

	tests := []struct {
		name   string
		scaler *feature.ZScoreScaler
	}{
		{name: "short mean", scaler: &feature.ZScoreScaler{Mean: []float64{0}, Std: []float64{1, 1, 1}}},
		{name: "short std", scaler: &feature.ZScoreScaler{Mean: []float64{0, 0, 0}, Std: []float64{1}}},
		{name: "empty", scaler: &feature.ZScoreScaler{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &LinearModel{Weights: []float64{1, 2, 3}, Scaler: tt.scaler}
			if _, err := m.Predict([]float64{1, 1, 1}); !errors.Is(err, core.ErrShape) {
				t.Errorf("Predict() error = %v, want ErrShape", err)
			}
			x := mat.NewDense(2, 3, []float64{1, 1, 1, 2, 2, 2})
			if _, err := m.PredictMatrix(x); !errors.Is(err, core.ErrShape) {
				t.Errorf("PredictMatrix() error = %v, want ErrShape", err)
			}
		})
	}
}

func TestLinearScorer(t *testing.T) {
	examples := []core.Example{
		{ID: "1", Content: []string{"a", "a"}, Question: []string{"b"}},
		{ID: "2", Content: []string{"c"}, Option: []string{"b"}},
	}
	dict := feature.BuildDictionaryFromExamples(examples)
	m := &LinearModel{Bias: 0.1, Weights: []float64{0.5, -0.25, 1}}

	scorer := &LinearScorer{Model: m, BOW: feature.NewBOWBuilder(dict)}
	got, err := scorer.Score(examples)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	// a=0 b=1 c=2
	want := []float64{
		1 / (1 + math.Exp(-(0.1 + 2*0.5 - 0.25))),
		1 / (1 + math.Exp(-(0.1 - 0.25 + 1))),
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("score[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if scorer.Name() != "linear" {
		t.Errorf("Name() = %q", scorer.Name())
	}

	empty, err := scorer.Score(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Score(nil) = %v, %v", empty, err)
	}
}

func TestFitLinear_Standardize(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		10, 0,
		10, 5,
		0, 5,
		0, 0,
	})
	y := []float64{0.8, 0.8, 0.2, 0.2}

	m, _, err := FitLinear(x, y, LinearConfig{Epochs: 200, LearningRate: 1, Standardize: true})
	if err != nil {
		t.Fatal(err)
	}
	if m.Scaler == nil {
		t.Fatal("Scaler = nil with Standardize")
	}
	if m.Scaler.Mean[0] != 5 || m.Scaler.Std[0] != 5 {
		t.Errorf("column 0 mean/std = %v/%v, want 5/5", m.Scaler.Mean[0], m.Scaler.Std[0])
	}

	hard, _ := m.Predict([]float64{10, 0})
	easy, _ := m.Predict([]float64{0, 5})
	if hard <= easy {
		t.Errorf("Predict(hard) = %v <= Predict(easy) = %v", hard, easy)
	}

	// 标准化参数随模型持久化
	path := filepath.Join(t.TempDir(), "linear.json")
	if err := SaveLinearModel(path, m); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadLinearModel(path)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := loaded.Predict([]float64{10, 0})
	if math.Abs(got-hard) > 1e-12 {
		t.Errorf("loaded Predict() = %v, want %v", got, hard)
	}
}
