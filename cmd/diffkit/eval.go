package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/eval"
)

var evalPred string

func init() {
	evalCmd.Flags().StringVar(&evalPred, "pred", "", "Prediction file, one {\"id\", \"diff\", \"pred\"} object per line")
	_ = evalCmd.MarkFlagRequired("pred")
	rootCmd.AddCommand(evalCmd)
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate predictions with PCC and DOA",
	Args:  cobra.NoArgs,
	RunE:  runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	preds, err := dataset.ReadPredictions(evalPred)
	if err != nil {
		return dataErr(err)
	}
	truth, pred := dataset.SplitPredictions(preds)
	res, err := evaluate(truth, pred)
	if err != nil {
		return err
	}
	return printEval(EvalResponse{Input: evalPred, Result: res})
}

// evaluate 计算 PCC/DOA。相关系数未定义或没有可比较样本对时记 ERROR 日志并附上两个序列，不中断命令。
func evaluate(truth, pred []float64) (eval.Result, error) {
	res, err := eval.Evaluate(truth, pred)
	if err != nil {
		return res, withCode(ExitDataError, err)
	}
	switch {
	case !res.Valid:
		appLogger.Error("no comparable pairs, DOA undefined",
			zap.Int("samples", res.Samples), zap.Float64s("truth", truth))
	case !res.PCCDefined:
		appLogger.Error(fmt.Sprintf("PCC=%v", res.PCC),
			zap.Float64s("truth", truth), zap.Float64s("pred", pred))
	default:
		appLogger.Info("evaluated",
			zap.Int("samples", res.Samples), zap.Float64("pcc", res.PCC), zap.Float64("doa", res.DOA))
	}
	return res, nil
}

// writePredictions 写出预测文件，格式与 eval --pred 相同。
func writePredictions(path string, ids []string, truth, pred []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating prediction file: %w", err)
	}
	defer f.Close()

	w := dataset.NewWriter(f)
	for i := range ids {
		if err := w.Write(dataset.Prediction{ID: ids[i], Diff: truth[i], Pred: pred[i]}); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
