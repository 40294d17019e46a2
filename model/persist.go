package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// networkSnapshot 是网络参数的 JSON 快照。
type networkSnapshot struct {
	Config             NetworkConfig        `json:"config"`
	EmbeddingTrainable bool                 `json:"embedding_trainable"`
	Params             map[string][]float64 `json:"params"`
}

// SaveNetwork 把超参数与全部参数写成 JSON。
func SaveNetwork(w io.Writer, n *Network) error {
	snap := networkSnapshot{
		Config:             n.Config,
		EmbeddingTrainable: n.Embedding.Trainable,
		Params:             make(map[string][]float64),
	}
	for _, p := range n.Params() {
		snap.Params[p.Name] = p.Values
	}
	return json.NewEncoder(w).Encode(&snap)
}

// LoadNetwork 从 JSON 快照恢复网络；每个参数的长度必须与超参数推导出的形状一致。
func LoadNetwork(r io.Reader) (*Network, error) {
	var snap networkSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse network snapshot: %w", err)
	}

	n, err := NewNetwork(snap.Config, nil)
	if err != nil {
		return nil, err
	}
	n.Embedding.Trainable = snap.EmbeddingTrainable

	for _, p := range n.Params() {
		values, ok := snap.Params[p.Name]
		if !ok {
			return nil, shapeErr("snapshot missing param %s", p.Name)
		}
		if len(values) != len(p.Values) {
			return nil, shapeErr("param %s has %d values, want %d", p.Name, len(values), len(p.Values))
		}
		copy(p.Values, values)
	}
	return n, nil
}

// SaveNetworkFile 把网络快照写入文件。
func SaveNetworkFile(path string, n *Network) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create network file: %w", err)
	}
	if err := SaveNetwork(f, n); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadNetworkFile 从文件读取网络快照。
func LoadNetworkFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open network file: %w", err)
	}
	defer f.Close()
	return LoadNetwork(f)
}
