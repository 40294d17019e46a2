package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/diffkit/eval"
)

// outputJSON 把结果以缩进 JSON 写到 stdout。
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman 输出人类可读文本。
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// ErrorResponse 是 JSON 形式的错误输出。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// DictResponse 是 dict 命令的输出。
type DictResponse struct {
	Corpus string `json:"corpus"`
	Out    string `json:"out"`
	Tokens int    `json:"tokens"`
	Store  string `json:"store,omitempty"`
}

// BOWFileResult 是一个特征文件的处理结果。
type BOWFileResult struct {
	In      string `json:"in"`
	Out     string `json:"out"`
	Records int    `json:"records"`
}

// BOWResponse 是 bow 命令的输出。
type BOWResponse struct {
	Dict  string          `json:"dict"`
	Width int             `json:"width"`
	Files []BOWFileResult `json:"files"`
}

// EvalResponse 是 eval/baseline/score 命令的输出。
type EvalResponse struct {
	Model  string      `json:"model,omitempty"`
	Input  string      `json:"input"`
	Result eval.Result `json:"result"`
	Out    string      `json:"out,omitempty"`
}

func printEval(resp EvalResponse) error {
	if !humanOutput {
		return outputJSON(resp)
	}
	r := resp.Result
	if resp.Model != "" {
		outputHuman("model:   %s\n", resp.Model)
	}
	outputHuman("input:   %s\n", resp.Input)
	outputHuman("samples: %d\n", r.Samples)
	if !r.Valid {
		outputHuman("PCC: %.0f  DOA: %.0f  (no comparable pairs)\n", r.PCC, r.DOA)
		return nil
	}
	outputHuman("PCC: %.4f  DOA: %.4f  (%d/%d pairs)\n", r.PCC, r.DOA, r.Correct, r.Pairs)
	if resp.Out != "" {
		outputHuman("predictions written to %s\n", resp.Out)
	}
	return nil
}
