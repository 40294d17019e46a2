package eval

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rushteam/diffkit/core"
)

const eps = 1e-12

func TestDOA_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		truth, pred []float64
		wantDOA     float64
		wantCorrect int
		wantN       int
		wantErr     error
	}{
		{
			name:  "identical order",
			truth: []float64{1, 2, 3}, pred: []float64{1, 2, 3},
			wantDOA: 1.0, wantCorrect: 3, wantN: 3,
		},
		{
			name:  "tied truth untied pred counts but never correct",
			truth: []float64{1, 1, 1}, pred: []float64{1, 2, 3},
			wantDOA: 0.0, wantCorrect: 0, wantN: 3,
		},
		{
			name:  "reversed order",
			truth: []float64{1, 2, 3}, pred: []float64{3, 2, 1},
			wantDOA: 0.0, wantCorrect: 0, wantN: 3,
		},
		{
			name:  "tied truth and tied pred skipped",
			truth: []float64{1, 1, 2}, pred: []float64{5, 5, 6},
			wantDOA: 1.0, wantCorrect: 2, wantN: 2,
		},
		{
			name:  "untied truth tied pred counts as wrong",
			truth: []float64{1, 2}, pred: []float64{4, 4},
			wantDOA: 0.0, wantCorrect: 0, wantN: 1,
		},
		{
			name:  "empty",
			truth: nil, pred: nil,
			wantDOA: InvalidResult, wantErr: core.ErrNoComparablePairs,
		},
		{
			name:  "single",
			truth: []float64{0.3}, pred: []float64{0.7},
			wantDOA: InvalidResult, wantErr: core.ErrNoComparablePairs,
		},
		{
			name:  "all ties skipped",
			truth: []float64{0.5, 0.5}, pred: []float64{0.1, 0.1},
			wantDOA: InvalidResult, wantErr: core.ErrNoComparablePairs,
		},
		{
			name:  "length mismatch",
			truth: []float64{1, 2}, pred: []float64{1},
			wantDOA: InvalidResult, wantErr: core.ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doa, correct, n, err := DOA(tt.truth, tt.pred)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DOA() error = %v, want %v", err, tt.wantErr)
			}
			if doa != tt.wantDOA || correct != tt.wantCorrect || n != tt.wantN {
				t.Errorf("DOA() = (%v, %d, %d), want (%v, %d, %d)",
					doa, correct, n, tt.wantDOA, tt.wantCorrect, tt.wantN)
			}
		})
	}
}

func TestDOA_MonotonicInvariance(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	truth := make([]float64, 60)
	pred := make([]float64, 60)
	for i := range truth {
		truth[i] = math.Round(r.Float64()*10) / 10
		pred[i] = r.Float64()
	}

	base, _, _, err := DOA(truth, pred)
	if err != nil {
		t.Fatalf("DOA() error = %v", err)
	}

	transforms := map[string]func(float64) float64{
		"affine": func(x float64) float64 { return 3*x + 1 },
		"exp":    math.Exp,
		"cube":   func(x float64) float64 { return x * x * x },
	}
	for name, f := range transforms {
		mapped := make([]float64, len(pred))
		for i, p := range pred {
			mapped[i] = f(p)
		}
		got, _, _, err := DOA(truth, mapped)
		if err != nil {
			t.Fatalf("%s: DOA() error = %v", name, err)
		}
		if got != base {
			t.Errorf("%s: DOA() = %v, want %v", name, got, base)
		}
	}
}

func TestDOA_OrderPreserving(t *testing.T) {
	truth := []float64{0.9, 0.1, 0.4, 0.7, 0.2}
	pred := make([]float64, len(truth))
	for i, v := range truth {
		pred[i] = math.Log(v) * 2
	}
	doa, _, _, err := DOA(truth, pred)
	if err != nil || doa != 1.0 {
		t.Errorf("DOA() = %v, %v, want 1.0", doa, err)
	}
}

func TestPearson(t *testing.T) {
	x := []float64{0.1, 0.5, 0.3, 0.9, 0.7}
	neg := make([]float64, len(x))
	for i, v := range x {
		neg[i] = -v
	}

	pcc, err := Pearson(x, x)
	if err != nil || math.Abs(pcc-1) > eps {
		t.Errorf("Pearson(x, x) = %v, %v, want 1", pcc, err)
	}
	pcc, err = Pearson(x, neg)
	if err != nil || math.Abs(pcc+1) > eps {
		t.Errorf("Pearson(x, -x) = %v, %v, want -1", pcc, err)
	}

	pcc, err = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	if !errors.Is(err, core.ErrUndefinedCorrelation) || !math.IsNaN(pcc) {
		t.Errorf("Pearson(constant) = %v, %v, want NaN + ErrUndefinedCorrelation", pcc, err)
	}

	if _, err := Pearson([]float64{1}, []float64{2}); !errors.Is(err, core.ErrUndefinedCorrelation) {
		t.Errorf("Pearson(single) error = %v", err)
	}
	if _, err := Pearson([]float64{1, 2}, []float64{2}); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Pearson(mismatch) error = %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	res, err := Evaluate([]float64{1, 2, 3}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !res.Valid || !res.PCCDefined || res.DOA != 1.0 || res.Pairs != 3 || res.Correct != 3 {
		t.Errorf("Evaluate() = %+v", res)
	}
	if math.Abs(res.PCC-1) > eps {
		t.Errorf("PCC = %v, want 1", res.PCC)
	}

	res, err = Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate(empty) error = %v", err)
	}
	if res.Valid || res.PCC != -1 || res.DOA != -1 {
		t.Errorf("Evaluate(empty) = %+v, want sentinel (-1, -1)", res)
	}

	res, err = Evaluate([]float64{1, 1, 1}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Evaluate(tied) error = %v", err)
	}
	if !res.Valid || res.PCCDefined || !math.IsNaN(res.PCC) || res.DOA != 0 {
		t.Errorf("Evaluate(tied) = %+v", res)
	}

	res, err = Evaluate([]float64{1}, nil)
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Evaluate(mismatch) error = %v", err)
	}
	if res.Valid || res.PCC != InvalidResult || res.DOA != InvalidResult {
		t.Errorf("Evaluate(mismatch) = %+v, want sentinel (-1, -1)", res)
	}
}

func BenchmarkDOA(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	const n = 2000
	truth := make([]float64, n)
	pred := make([]float64, n)
	for i := range truth {
		truth[i] = r.Float64()
		pred[i] = r.Float64()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _, _ = DOA(truth, pred)
	}
}
