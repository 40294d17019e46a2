package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// truncatedNormal 按截断正态分布填充：超出 2σ 的样本重新采样。
func truncatedNormal(r *rand.Rand, n int, stddev float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		z := r.NormFloat64()
		for math.Abs(z) > 2 {
			z = r.NormFloat64()
		}
		out[i] = z * stddev
	}
	return out
}

// uniform 在 [lo, hi) 内均匀填充。
func uniform(r *rand.Rand, n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + r.Float64()*(hi-lo)
	}
	return out
}

// constant 返回全部为 v 的切片。
func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// convStage 是一层“补零 → 卷积 → ReLU → 最大池化”。
//
// input 为 H×W（H 是序列方向，W 是每个位置的宽度），卷积核覆盖完整宽度，
// 因此只沿序列方向滑动。序列两端各补 f-1 个零行，输出长度 H+f-1。
// weights 为 (f·W)×C，bias 长度为 C。池化窗口与步长都是 pool，尾部不足一个窗口的部分丢弃。
func convStage(input *mat.Dense, f int, weights *mat.Dense, bias []float64, pool int) *mat.Dense {
	h, w := input.Dims()
	outLen := h + f - 1

	// im2col：第 t 行是补零后第 t..t+f-1 行拼成的窗口
	cols := mat.NewDense(outLen, f*w, nil)
	for t := 0; t < outLen; t++ {
		row := cols.RawRowView(t)
		for k := 0; k < f; k++ {
			src := t + k - (f - 1)
			if src < 0 || src >= h {
				continue
			}
			copy(row[k*w:(k+1)*w], input.RawRowView(src))
		}
	}

	_, c := weights.Dims()
	conv := mat.NewDense(outLen, c, nil)
	conv.Mul(cols, weights)
	conv.Apply(func(_, j int, v float64) float64 {
		return relu(v + bias[j])
	}, conv)

	return maxPool(conv, pool)
}

// maxPool 沿行方向做 VALID 最大池化，窗口与步长均为 pool。
func maxPool(x *mat.Dense, pool int) *mat.Dense {
	h, c := x.Dims()
	n := h / pool
	out := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		dst := out.RawRowView(i)
		copy(dst, x.RawRowView(i*pool))
		for k := 1; k < pool; k++ {
			src := x.RawRowView(i*pool + k)
			for j, v := range src {
				if v > dst[j] {
					dst[j] = v
				}
			}
		}
	}
	return out
}

// dense 计算 x·W + b，按行广播偏置。
func dense(x *mat.Dense, weights *mat.Dense, bias []float64) *mat.Dense {
	r, _ := x.Dims()
	_, c := weights.Dims()
	out := mat.NewDense(r, c, nil)
	out.Mul(x, weights)
	out.Apply(func(_, j int, v float64) float64 {
		return v + bias[j]
	}, out)
	return out
}

// dropout 以 keepProb 保留每个单元，保留的单元放大 1/keepProb，原地修改。
func dropout(r *rand.Rand, x *mat.Dense, keepProb float64) {
	x.Apply(func(_, _ int, v float64) float64 {
		if r.Float64() < keepProb {
			return v / keepProb
		}
		return 0
	}, x)
}

// relu ReLU 激活函数。
func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// sigmoid Sigmoid 激活函数，结果夹在开区间 (0, 1) 内。
func sigmoid(x float64) float64 {
	s := 1.0 / (1.0 + math.Exp(-x))
	if s >= 1 {
		return math.Nextafter(1, 0)
	}
	if s <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return s
}

// sumSquares 返回 ½·Σv²，与常见框架的 l2_loss 定义一致。
func sumSquares(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return s / 2
}
