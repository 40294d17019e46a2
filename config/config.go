// Package config 定义 diffkit 的 YAML 配置：网络超参数、线性基线、数据路径、存储与日志。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/model"
	"github.com/rushteam/diffkit/pkg/logger"
)

// Config 是 diffkit 的完整配置（支持 YAML）。
type Config struct {
	Network model.NetworkConfig `yaml:"network" json:"network"`
	Linear  model.LinearConfig  `yaml:"linear" json:"linear"`
	Data    DataConfig          `yaml:"data" json:"data"`
	Store   StoreConfig         `yaml:"store" json:"store"`
	Log     logger.Config       `yaml:"log" json:"log"`
}

// DataConfig 是数据文件路径。
type DataConfig struct {
	Corpus    string `yaml:"corpus" json:"corpus"`         // 建词典用的全量语料
	Train     string `yaml:"train" json:"train"`           // 训练集
	Test      string `yaml:"test" json:"test"`             // 测试集
	Dict      string `yaml:"dict" json:"dict"`             // 词典文件
	TrainBOW  string `yaml:"train_bow" json:"train_bow"`   // 训练集词袋特征
	TestBOW   string `yaml:"test_bow" json:"test_bow"`     // 测试集词袋特征
	Vectors   string `yaml:"vectors" json:"vectors"`       // 可选的预训练词向量
	Weights   string `yaml:"weights" json:"weights"`       // 网络参数快照
	Filter    string `yaml:"filter" json:"filter"`         // CEL 样本过滤表达式
	BatchSize int    `yaml:"batch_size" json:"batch_size"` // 推理批大小
}

// StoreConfig 是词典/产物存储配置，URI 见 store.Open。
type StoreConfig struct {
	URI     string `yaml:"uri" json:"uri"`
	DictKey string `yaml:"dict_key" json:"dict_key"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Network: model.DefaultNetworkConfig(),
		Linear:  model.DefaultLinearConfig(),
		Data: DataConfig{
			Dict:      "word.json",
			BatchSize: model.DefaultBatchSize,
		},
		Store: StoreConfig{DictKey: "diffkit:dict"},
		Log:   logger.DefaultConfig(),
	}
}

// Load 从 YAML 文件加载配置，未出现的字段保留 Default 中的值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容。
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate 校验与数据无关的配置项。vocab_size 由词典决定，这里不检查。
func (c *Config) Validate() error {
	n := c.Network
	for k, l := range n.SequenceLength {
		if l <= 0 {
			return invalid("network.sequence_length[%d] must be positive, got %d", k, l)
		}
	}
	switch {
	case n.EmbeddingSize <= 0:
		return invalid("network.embedding_size must be positive, got %d", n.EmbeddingSize)
	case n.FilterSizes[0] <= 0 || n.FilterSizes[1] <= 0:
		return invalid("network.filter_sizes must be positive, got %v", n.FilterSizes)
	case n.NumFilters[0] <= 0 || n.NumFilters[1] <= 0:
		return invalid("network.num_filters must be positive, got %v", n.NumFilters)
	case n.PoolingSize <= 0:
		return invalid("network.pooling_size must be positive, got %d", n.PoolingSize)
	case n.FCHiddenSize <= 0:
		return invalid("network.fc_hidden_size must be positive, got %d", n.FCHiddenSize)
	case n.L2RegLambda < 0:
		return invalid("network.l2_reg_lambda must be non-negative, got %v", n.L2RegLambda)
	case n.EmbeddingType != model.EmbeddingFrozen && n.EmbeddingType != model.EmbeddingTrainable:
		return invalid("network.embedding_type must be 0 or 1, got %d", n.EmbeddingType)
	case c.Linear.Epochs <= 0:
		return invalid("linear.epochs must be positive, got %d", c.Linear.Epochs)
	case c.Linear.LearningRate <= 0:
		return invalid("linear.learning_rate must be positive, got %v", c.Linear.LearningRate)
	case c.Linear.L2 < 0:
		return invalid("linear.l2 must be non-negative, got %v", c.Linear.L2)
	case c.Data.BatchSize <= 0:
		return invalid("data.batch_size must be positive, got %d", c.Data.BatchSize)
	}
	return nil
}

// NetworkFor 返回词表大小为 vocab 的网络超参数，并校验网络能否构建。
func (c *Config) NetworkFor(vocab int) (model.NetworkConfig, error) {
	n := c.Network
	n.VocabSize = vocab
	if _, err := n.Shapes(); err != nil {
		return n, err
	}
	return n, nil
}

func invalid(format string, args ...interface{}) error {
	return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: "+fmt.Sprintf(format, args...))
}
