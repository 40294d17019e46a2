package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/model"
)

var (
	baselineTrain string
	baselineTest  string
	baselineOut   string
	baselineSave  string
)

func init() {
	baselineCmd.Flags().StringVar(&baselineTrain, "train", "", "Training feature file (default data.train_bow)")
	baselineCmd.Flags().StringVar(&baselineTest, "test", "", "Test feature file (default data.test_bow)")
	baselineCmd.Flags().StringVar(&baselineOut, "out", "", "Write test predictions to this file")
	baselineCmd.Flags().StringVar(&baselineSave, "save", "", "Save the fitted model as JSON")
	rootCmd.AddCommand(baselineCmd)
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Fit the linear bag-of-words baseline and evaluate it",
	Long: `Fit the linear bag-of-words baseline and evaluate it.

The model is sigmoid(b + w·x) over bag-of-words counts, fitted by full-batch
gradient descent on squared error plus L2 (see the linear section of the config).`,
	Args: cobra.NoArgs,
	RunE: runBaseline,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	trainPath := firstNonEmpty(baselineTrain, appConfig.Data.TrainBOW)
	testPath := firstNonEmpty(baselineTest, appConfig.Data.TestBOW)
	if trainPath == "" || testPath == "" {
		return usageErr("--train and --test are required")
	}

	train, test, err := dataset.LoadXY(trainPath, testPath)
	if err != nil {
		return dataErr(err)
	}
	fit, err := fitBaseline(train, test, appConfig.Linear)
	if err != nil {
		return withCode(ExitDataError, err)
	}
	appLogger.Info("linear baseline fitted",
		zap.Int("train", len(train.Y)), zap.Int("features", len(fit.model.Weights)),
		zap.Float64("final_loss", fit.finalLoss))

	res, err := evaluate(test.Y, fit.pred)
	if err != nil {
		return err
	}
	if baselineOut != "" {
		if err := writePredictions(baselineOut, test.IDs, test.Y, fit.pred); err != nil {
			return err
		}
	}
	if baselineSave != "" {
		if err := model.SaveLinearModel(baselineSave, fit.model); err != nil {
			return err
		}
	}
	return printEval(EvalResponse{Model: fit.model.Name(), Input: testPath, Result: res, Out: baselineOut})
}

type baselineRun struct {
	model     *model.LinearModel
	pred      []float64
	finalLoss float64
}

func fitBaseline(train, test *dataset.XY, cfg model.LinearConfig) (*baselineRun, error) {
	m, history, err := model.FitLinear(train.X, train.Y, cfg)
	if err != nil {
		return nil, err
	}
	pred, err := m.PredictMatrix(test.X)
	if err != nil {
		return nil, err
	}
	return &baselineRun{model: m, pred: pred, finalLoss: history[len(history)-1]}, nil
}
