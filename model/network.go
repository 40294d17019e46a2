package model

import (
	"fmt"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Network 是卷积难度预测网络（CMIDP）。
//
// 结构：
//   - Embedding：content/question/option 三段下标序列分别查表后沿序列方向拼接，得到 L×D
//   - Conv1：补零 f0-1 → 宽度为 D 的卷积核（只沿序列方向滑动）→ ReLU → 最大池化（窗口 pooling）
//   - 转置：通道维变为第二层每个位置的宽度
//   - Conv2：补零 f1-1 → 卷积 → ReLU → 最大池化（窗口 ceil((L+f1-1)/pooling)），只剩一个位置
//   - FC：n1 → fc_hidden，ReLU
//   - Dropout（仅训练模式）→ 输出层 → Sigmoid，得到 (0,1) 内的难度分
//
// 损失：mean((y - score)²) + λ·Σ½‖w‖²，求和覆盖所有可训练参数。
//
// 参数更新由外部优化循环负责；Network 只负责前向计算与损失。
// 推理模式下 Forward 可并发调用；训练模式的 dropout 共享同一个随机源，内部加锁。
type Network struct {
	Config NetworkConfig
	Shapes Shapes

	Embedding *Embedding

	Conv1W *mat.Dense // (f0·D) × n0
	Conv1B []float64
	Conv2W *mat.Dense // (f1·n0) × n1
	Conv2B []float64
	FCW    *mat.Dense // n1 × fc_hidden
	FCB    []float64
	OutW   *mat.Dense // fc_hidden × 1
	OutB   []float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewNetwork 按超参数构建网络。
// pretrained 为 nil 时词向量在 [-1, 1] 内均匀随机初始化且可训练；
// 否则按 EmbeddingType 决定冻结（0）或可训练（1），尺寸必须是 vocab_size × embedding_size。
// 卷积核与全连接权重用 σ=0.1 的截断正态初始化，偏置初始化为 0.1。
func NewNetwork(cfg NetworkConfig, pretrained *mat.Dense) (*Network, error) {
	shapes, err := cfg.Shapes()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	v, d := cfg.VocabSize, cfg.EmbeddingSize
	f0, f1 := cfg.FilterSizes[0], cfg.FilterSizes[1]
	n0, n1 := cfg.NumFilters[0], cfg.NumFilters[1]
	fc := cfg.FCHiddenSize

	var emb *Embedding
	if pretrained == nil {
		emb = &Embedding{Table: mat.NewDense(v, d, uniform(rng, v*d, -1, 1)), Trainable: true}
	} else {
		if r, c := pretrained.Dims(); r != v || c != d {
			return nil, shapeErr("pretrained embedding is %dx%d, want %dx%d", r, c, v, d)
		}
		switch cfg.EmbeddingType {
		case EmbeddingFrozen:
			emb = &Embedding{Table: mat.DenseCopyOf(pretrained), Trainable: false}
		case EmbeddingTrainable:
			emb = &Embedding{Table: mat.DenseCopyOf(pretrained), Trainable: true}
		default:
			return nil, shapeErr("unknown embedding_type %d", cfg.EmbeddingType)
		}
	}

	return &Network{
		Config:    cfg,
		Shapes:    shapes,
		Embedding: emb,
		Conv1W:    mat.NewDense(f0*d, n0, truncatedNormal(rng, f0*d*n0, 0.1)),
		Conv1B:    constant(n0, 0.1),
		Conv2W:    mat.NewDense(f1*n0, n1, truncatedNormal(rng, f1*n0*n1, 0.1)),
		Conv2B:    constant(n1, 0.1),
		FCW:       mat.NewDense(n1, fc, truncatedNormal(rng, n1*fc, 0.1)),
		FCB:       constant(fc, 0.1),
		OutW:      mat.NewDense(fc, 1, truncatedNormal(rng, fc, 0.1)),
		OutB:      constant(1, 0.1),
		rng:       rng,
	}, nil
}

func (n *Network) Name() string { return "cmidp" }

// Input 是一批网络输入。
// Fields[k] 的形状为 [batch][sequence_length[k]]；Labels 形状为 [batch][1]，推理时可为 nil。
type Input struct {
	Fields [3][][]int
	Labels [][]float64
}

// Output 是一次前向计算的结果。
type Output struct {
	Logits [][]float64 // [batch][1]
	Scores [][]float64 // [batch][1]，每个值都在 (0,1) 内

	// 以下仅在 Input.Labels 非空时有效
	MSE     float64
	L2      float64
	Loss    float64
	HasLoss bool
}

// Flat 返回按样本顺序展开的难度分。
func (o *Output) Flat() []float64 {
	out := make([]float64, len(o.Scores))
	for i, s := range o.Scores {
		out[i] = s[0]
	}
	return out
}

// Forward 执行前向计算。
// keepProb 为 dropout 保留概率，必须在 (0, 1] 内；dropout 只在 training 为 true 时生效。
func (n *Network) Forward(in *Input, keepProb float64, training bool) (*Output, error) {
	batch, err := n.validate(in, keepProb)
	if err != nil {
		return nil, err
	}

	// [batch][n1]
	flat := mat.NewDense(batch, n.Config.NumFilters[1], nil)
	for b := 0; b < batch; b++ {
		x := n.embed(in, b)
		conv1 := convStage(x, n.Config.FilterSizes[0], n.Conv1W, n.Conv1B, n.Config.PoolingSize)
		conv2 := convStage(conv1, n.Config.FilterSizes[1], n.Conv2W, n.Conv2B, n.Shapes.Pool2)
		flat.SetRow(b, conv2.RawRowView(0))
	}

	fcOut := dense(flat, n.FCW, n.FCB)
	fcOut.Apply(func(_, _ int, v float64) float64 { return relu(v) }, fcOut)

	if training && keepProb < 1 {
		n.mu.Lock()
		dropout(n.rng, fcOut, keepProb)
		n.mu.Unlock()
	}

	logits := dense(fcOut, n.OutW, n.OutB)

	out := &Output{
		Logits: make([][]float64, batch),
		Scores: make([][]float64, batch),
	}
	for b := 0; b < batch; b++ {
		z := logits.At(b, 0)
		out.Logits[b] = []float64{z}
		out.Scores[b] = []float64{sigmoid(z)}
	}

	if in.Labels != nil {
		var se float64
		for b := 0; b < batch; b++ {
			diff := in.Labels[b][0] - out.Scores[b][0]
			se += diff * diff
		}
		out.MSE = se / float64(batch)
		out.L2 = n.L2Loss() * n.Config.L2RegLambda
		out.Loss = out.MSE + out.L2
		out.HasLoss = true
	}
	return out, nil
}

// embed 查表并拼接三段序列，返回 L×D。
func (n *Network) embed(in *Input, b int) *mat.Dense {
	x := mat.NewDense(n.Shapes.L, n.Config.EmbeddingSize, nil)
	row := 0
	for k := range in.Fields {
		for _, idx := range in.Fields[k][b] {
			x.SetRow(row, n.Embedding.Lookup(idx))
			row++
		}
	}
	return x
}

func (n *Network) validate(in *Input, keepProb float64) (int, error) {
	if in == nil {
		return 0, shapeErr("nil input")
	}
	if keepProb <= 0 || keepProb > 1 {
		return 0, shapeErr("dropout_keep_prob %v not in (0, 1]", keepProb)
	}
	batch := len(in.Fields[0])
	if batch == 0 {
		return 0, shapeErr("empty batch")
	}
	for k := range in.Fields {
		if len(in.Fields[k]) != batch {
			return 0, shapeErr("field %d has batch %d, want %d", k, len(in.Fields[k]), batch)
		}
		want := n.Config.SequenceLength[k]
		for b, seq := range in.Fields[k] {
			if len(seq) != want {
				return 0, shapeErr("field %d row %d has length %d, want %d", k, b, len(seq), want)
			}
			for _, idx := range seq {
				if idx < 0 || idx >= n.Config.VocabSize {
					return 0, shapeErr("field %d row %d index %d out of vocab %d", k, b, idx, n.Config.VocabSize)
				}
			}
		}
	}
	if in.Labels != nil {
		if len(in.Labels) != batch {
			return 0, shapeErr("labels have batch %d, want %d", len(in.Labels), batch)
		}
		for b, y := range in.Labels {
			if len(y) != 1 {
				return 0, shapeErr("label row %d has width %d, want 1", b, len(y))
			}
		}
	}
	return batch, nil
}

// Param 是一个具名参数张量，Values 直接引用底层存储。
type Param struct {
	Name   string
	Values []float64
}

// Params 返回所有参数（包括冻结的词向量），用于持久化。
func (n *Network) Params() []Param {
	return []Param{
		{Name: "embedding", Values: rawData(n.Embedding.Table)},
		{Name: "conv1/W", Values: rawData(n.Conv1W)},
		{Name: "conv1/b", Values: n.Conv1B},
		{Name: "conv2/W", Values: rawData(n.Conv2W)},
		{Name: "conv2/b", Values: n.Conv2B},
		{Name: "fc/W", Values: rawData(n.FCW)},
		{Name: "fc/b", Values: n.FCB},
		{Name: "output/W", Values: rawData(n.OutW)},
		{Name: "output/b", Values: n.OutB},
	}
}

// TrainableParams 返回计入 L2 正则的可训练参数；冻结的预训练词向量不在其中。
func (n *Network) TrainableParams() []Param {
	all := n.Params()
	if n.Embedding.Trainable {
		return all
	}
	return all[1:]
}

// L2Loss 返回 Σ½‖w‖²（未乘 λ）。
func (n *Network) L2Loss() float64 {
	var s float64
	for _, p := range n.TrainableParams() {
		s += sumSquares(p.Values)
	}
	return s
}

// NumParams 返回可训练参数的标量个数。
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.TrainableParams() {
		total += len(p.Values)
	}
	return total
}

func (n *Network) String() string {
	s := n.Shapes
	return fmt.Sprintf("cmidp(L=%d conv1=%d pool1=%d conv2=%d pool2=%d params=%d)",
		s.L, s.Conv1, s.Pool1, s.Conv2, s.Pool2, n.NumParams())
}

func rawData(m *mat.Dense) []float64 {
	return m.RawMatrix().Data
}
