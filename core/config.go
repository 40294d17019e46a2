package core

// NetworkDefaults 为网络超参数提供默认值，config 包在未显式配置时使用。
type NetworkDefaults interface {
	// DefaultSequenceLength 返回 content/question/option 三段的定长
	DefaultSequenceLength() [3]int

	// DefaultEmbeddingSize 返回词向量维度
	DefaultEmbeddingSize() int

	// DefaultFilterSizes 返回两层卷积的核高度
	DefaultFilterSizes() [2]int

	// DefaultNumFilters 返回两层卷积的通道数
	DefaultNumFilters() [2]int

	// DefaultPoolingSize 返回第一层池化窗口
	DefaultPoolingSize() int

	// DefaultFCHiddenSize 返回全连接层宽度
	DefaultFCHiddenSize() int
}

// DefaultNetworkDefaults 是默认的网络超参数实现。
type DefaultNetworkDefaults struct{}

func (DefaultNetworkDefaults) DefaultSequenceLength() [3]int { return [3]int{150, 30, 20} }

func (DefaultNetworkDefaults) DefaultEmbeddingSize() int { return 100 }

func (DefaultNetworkDefaults) DefaultFilterSizes() [2]int { return [2]int{3, 3} }

func (DefaultNetworkDefaults) DefaultNumFilters() [2]int { return [2]int{100, 100} }

func (DefaultNetworkDefaults) DefaultPoolingSize() int { return 3 }

func (DefaultNetworkDefaults) DefaultFCHiddenSize() int { return 256 }
