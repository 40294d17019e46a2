package eval

import (
	"errors"
	"fmt"

	"github.com/rushteam/diffkit/core"
)

// Result 是一次评估的结果。
//
// Valid 为 false 表示没有可比较的样本对，此时 PCC 与 DOA 都是哨兵值 -1。
// PCCDefined 为 false 表示相关系数是 NaN/Inf，值保留在 PCC 中供调用方上报。
type Result struct {
	PCC        float64 `json:"pcc"`
	DOA        float64 `json:"doa"`
	Pairs      int     `json:"pairs"`
	Correct    int     `json:"correct"`
	Samples    int     `json:"samples"`
	Valid      bool    `json:"valid"`
	PCCDefined bool    `json:"pcc_defined"`
}

// Evaluate 同时计算 PCC 与 DOA。
// 空集、单样本或所有样本对都被跳过时返回 Result{PCC:-1, DOA:-1, Valid:false}，不返回错误；
// 只有长度不一致这类调用错误才返回 error。
func Evaluate(truth, pred []float64) (Result, error) {
	if len(truth) != len(pred) {
		return Result{PCC: InvalidResult, DOA: InvalidResult},
			core.ErrLengthMismatch.Wrap(fmt.Sprintf("truth %d, pred %d", len(truth), len(pred)), nil)
	}

	res := Result{Samples: len(truth)}

	doa, correct, n, err := DOA(truth, pred)
	if errors.Is(err, core.ErrNoComparablePairs) {
		res.PCC, res.DOA = InvalidResult, InvalidResult
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.DOA, res.Correct, res.Pairs = doa, correct, n

	pcc, err := Pearson(truth, pred)
	res.PCC = pcc
	res.PCCDefined = err == nil
	if err != nil && !errors.Is(err, core.ErrUndefinedCorrelation) {
		return res, err
	}

	res.Valid = true
	return res, nil
}
