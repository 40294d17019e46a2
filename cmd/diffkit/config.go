package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rushteam/diffkit/config"
)

// 可通过 DIFFKIT_* 环境变量覆盖的配置项，如 store.uri 对应 DIFFKIT_STORE_URI
var envKeys = []string{
	"store.uri",
	"store.dict_key",
	"log.level",
	"log.file",
	"data.dict",
	"data.filter",
	"data.vectors",
	"data.weights",
	"data.batch_size",
	"network.seed",
	"network.l2_reg_lambda",
}

// loadConfig 依次合并：默认值、YAML 配置文件、.env 与 DIFFKIT_* 环境变量。
func loadConfig(path string) (*config.Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	v := viper.New()
	v.SetEnvPrefix("DIFFKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	applyEnv(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(v *viper.Viper, cfg *config.Config) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setString("store.uri", &cfg.Store.URI)
	setString("store.dict_key", &cfg.Store.DictKey)
	setString("log.level", &cfg.Log.Level)
	setString("log.file", &cfg.Log.File)
	setString("data.dict", &cfg.Data.Dict)
	setString("data.filter", &cfg.Data.Filter)
	setString("data.vectors", &cfg.Data.Vectors)
	setString("data.weights", &cfg.Data.Weights)

	if v.IsSet("data.batch_size") {
		cfg.Data.BatchSize = v.GetInt("data.batch_size")
	}
	if v.IsSet("network.seed") {
		cfg.Network.Seed = v.GetInt64("network.seed")
	}
	if v.IsSet("network.l2_reg_lambda") {
		cfg.Network.L2RegLambda = v.GetFloat64("network.l2_reg_lambda")
	}
}

// firstNonEmpty 返回第一个非空值，用于“命令行参数优先于配置”。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
