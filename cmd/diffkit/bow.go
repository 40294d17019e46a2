package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/pkg/dsl"
)

var (
	bowIn   []string
	bowOut  []string
	bowDict string
)

func init() {
	bowCmd.Flags().StringSliceVar(&bowIn, "in", nil, "Input example file (repeatable)")
	bowCmd.Flags().StringSliceVar(&bowOut, "out", nil, "Output feature file, paired with --in by position")
	bowCmd.Flags().StringVar(&bowDict, "dict", "", "Dictionary file (default data.dict, or store.uri when unset)")
	rootCmd.AddCommand(bowCmd)
}

var bowCmd = &cobra.Command{
	Use:   "bow",
	Short: "Extract bag-of-words features",
	Long: `Extract bag-of-words features.

Each output line is {"id", "feature", "diff"} where feature[i] counts the
occurrences of the token with index i. Several --in/--out pairs are processed
concurrently; each file is written in input order.`,
	Example: `  diffkit bow --dict word.json --in Train.json --out Train_BOW.json --in Test.json --out Test_BOW.json`,
	Args:    cobra.NoArgs,
	RunE:    runBOW,
}

func runBOW(cmd *cobra.Command, args []string) error {
	if len(bowIn) == 0 {
		return usageErr("at least one --in is required")
	}
	if len(bowIn) != len(bowOut) {
		return usageErr("got %d --in and %d --out, want pairs", len(bowIn), len(bowOut))
	}

	dict, err := loadDictionary(cmd.Context(), bowDict)
	if err != nil {
		return err
	}
	filter, err := dsl.Compile(appConfig.Data.Filter)
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	results, err := writeBOWFiles(cmd.Context(), feature.NewBOWBuilder(dict), filter, bowIn, bowOut)
	if err != nil {
		return err
	}
	for _, r := range results {
		appLogger.Info("features written", zap.String("in", r.In), zap.String("out", r.Out), zap.Int("records", r.Records))
	}

	if humanOutput {
		for _, r := range results {
			outputHuman("%s -> %s: %d records (width %d)\n", r.In, r.Out, r.Records, dict.Len())
		}
		return nil
	}
	return outputJSON(BOWResponse{Dict: firstNonEmpty(bowDict, appConfig.Data.Dict), Width: dict.Len(), Files: results})
}

// writeBOWFiles 并发处理多个文件，任一失败即取消其余文件。词典只读，可共享。
func writeBOWFiles(ctx context.Context, builder *feature.BOWBuilder, filter *dsl.Program, in, out []string) ([]BOWFileResult, error) {
	results := make([]BOWFileResult, len(in))
	g, ctx := errgroup.WithContext(ctx)
	for i := range in {
		g.Go(func() error {
			n, err := writeBOWFile(ctx, builder, filter, in[i], out[i])
			if err != nil {
				return err
			}
			results[i] = BOWFileResult{In: in[i], Out: out[i], Records: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeBOWFile 先写 outPath.tmp，全部成功后改名为 outPath；失败时删除临时文件，outPath 保持原样。
func writeBOWFile(ctx context.Context, builder *feature.BOWBuilder, filter *dsl.Program, inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, dataErr(fmt.Errorf("opening input: %w", err))
	}
	defer in.Close()

	tmpPath := outPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, withCode(ExitError, fmt.Errorf("creating output: %w", err))
	}

	n, err := writeBOWRecords(ctx, builder, filter, inPath, in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpPath, outPath)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return n, err
	}
	return n, nil
}

func writeBOWRecords(ctx context.Context, builder *feature.BOWBuilder, filter *dsl.Program, inPath string, in io.Reader, out io.Writer) (int, error) {
	reader := dataset.NewReader(in).WithFilter(filter)
	w := dataset.NewWriter(out)
	for {
		if err := ctx.Err(); err != nil {
			return w.Count(), err
		}
		ex, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.Count(), dataErr(fmt.Errorf("%s: %w", inPath, err))
		}
		rec, err := builder.BuildRecord(ex)
		if err != nil {
			return w.Count(), dataErr(fmt.Errorf("%s: example %s: %w", inPath, ex.ID, err))
		}
		if err := w.Write(rec); err != nil {
			return w.Count(), err
		}
	}
	return w.Count(), w.Flush()
}
