package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/model"
	"github.com/rushteam/diffkit/pkg/dsl"
)

var (
	scoreIn      string
	scoreDict    string
	scoreModel   string
	scoreWeights string
	scoreVectors string
	scoreOut     string
	scoreSave    string
)

func init() {
	scoreCmd.Flags().StringVar(&scoreIn, "in", "", "Example file to score (default data.test)")
	scoreCmd.Flags().StringVar(&scoreDict, "dict", "", "Dictionary file (default data.dict, or store.uri when unset)")
	scoreCmd.Flags().StringVar(&scoreModel, "model", "cmidp", "Scorer: cmidp or linear")
	scoreCmd.Flags().StringVar(&scoreWeights, "weights", "", "Network snapshot or linear model JSON (default data.weights)")
	scoreCmd.Flags().StringVar(&scoreVectors, "vectors", "", "Pretrained word vectors JSON for a new network (default data.vectors)")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "", "Write predictions to this file")
	scoreCmd.Flags().StringVar(&scoreSave, "save", "", "Save the network snapshot to this file")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score examples and evaluate the predictions",
	Long: `Score examples and evaluate the predictions.

With --model cmidp the convolutional network is loaded from --weights, or built
from the network section of the config when no snapshot is given. Scoring runs
in inference mode (no dropout) in batches of data.batch_size.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	inPath := firstNonEmpty(scoreIn, appConfig.Data.Test)
	if inPath == "" {
		return usageErr("--in is required")
	}
	dict, err := loadDictionary(cmd.Context(), scoreDict)
	if err != nil {
		return err
	}
	scorer, err := newScorer(dict)
	if err != nil {
		return err
	}

	filter, err := dsl.Compile(appConfig.Data.Filter)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	examples, err := dataset.ReadExamples(inPath, filter)
	if err != nil {
		return dataErr(err)
	}

	pred, err := scorer.Score(examples)
	if err != nil {
		return withCode(ExitDataError, err)
	}
	truth := lo.Map(examples, func(ex core.Example, _ int) float64 { return ex.Diff })
	appLogger.Info("examples scored", zap.String("model", scorer.Name()), zap.Int("examples", len(examples)))

	res, err := evaluate(truth, pred)
	if err != nil {
		return err
	}
	if scoreOut != "" {
		ids := lo.Map(examples, func(ex core.Example, _ int) string { return ex.ID })
		if err := writePredictions(scoreOut, ids, truth, pred); err != nil {
			return err
		}
	}
	return printEval(EvalResponse{Model: scorer.Name(), Input: inPath, Result: res, Out: scoreOut})
}

func newScorer(dict *feature.Dictionary) (model.Scorer, error) {
	weights := firstNonEmpty(scoreWeights, appConfig.Data.Weights)
	switch scoreModel {
	case "linear":
		if weights == "" {
			return nil, usageErr("--weights is required for the linear model")
		}
		m, err := model.LoadLinearModel(weights)
		if err != nil {
			return nil, dataErr(err)
		}
		return &model.LinearScorer{Model: m, BOW: feature.NewBOWBuilder(dict)}, nil

	case "cmidp":
		net, err := loadNetwork(weights, firstNonEmpty(scoreVectors, appConfig.Data.Vectors), dict)
		if err != nil {
			return nil, err
		}
		appLogger.Info("network ready", zap.Stringer("network", net))
		if scoreSave != "" {
			if err := model.SaveNetworkFile(scoreSave, net); err != nil {
				return nil, err
			}
		}
		s := model.NewNetworkScorer(net, dict)
		s.BatchSize = appConfig.Data.BatchSize
		return s, nil

	default:
		return nil, usageErr("unknown model %q (supported: cmidp, linear)", scoreModel)
	}
}

// loadNetwork 读取参数快照；没有快照时按配置新建，可选加载预训练词向量。
func loadNetwork(weights, vectors string, dict *feature.Dictionary) (*model.Network, error) {
	if weights != "" {
		net, err := model.LoadNetworkFile(weights)
		if err != nil {
			return nil, dataErr(err)
		}
		if net.Config.VocabSize < dict.Len() {
			return nil, withCode(ExitDataError, core.ErrShape.Wrap(
				fmt.Sprintf("network vocab %d smaller than dictionary %d", net.Config.VocabSize, dict.Len()), nil))
		}
		return net, nil
	}

	cfg, err := appConfig.NetworkFor(dict.Len())
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	var pretrained *mat.Dense
	if vectors != "" {
		vecs, err := model.LoadWordVectorsFile(vectors)
		if err != nil {
			return nil, dataErr(err)
		}
		if pretrained, err = model.LoadPretrained(vecs, dict); err != nil {
			return nil, withCode(ExitDataError, err)
		}
		_, cfg.EmbeddingSize = pretrained.Dims()
	}
	net, err := model.NewNetwork(cfg, pretrained)
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	return net, nil
}
