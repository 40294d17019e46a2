package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/diffkit/dataset"
	"github.com/rushteam/diffkit/feature"
	"github.com/rushteam/diffkit/store"
)

var (
	dictCorpus string
	dictOut    string
	dictStore  string
)

func init() {
	dictCmd.Flags().StringVar(&dictCorpus, "corpus", "", "Corpus JSON-lines file covering train and test (default data.corpus)")
	dictCmd.Flags().StringVar(&dictOut, "out", "", "Dictionary output file (default data.dict)")
	dictCmd.Flags().StringVar(&dictStore, "store", "", "Also save the dictionary to this store URI (default store.uri)")
	rootCmd.AddCommand(dictCmd)
}

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Build the word dictionary from a corpus",
	Long: `Build the word dictionary from a corpus.

Every token of content, question and option gets the next free index in the
order it first appears. The corpus should cover both train and test data,
because unknown tokens are fatal when extracting features.`,
	Args: cobra.NoArgs,
	RunE: runDict,
}

func runDict(cmd *cobra.Command, args []string) error {
	corpus := firstNonEmpty(dictCorpus, appConfig.Data.Corpus)
	if corpus == "" {
		return usageErr("--corpus is required")
	}
	out := firstNonEmpty(dictOut, appConfig.Data.Dict)
	uri := firstNonEmpty(dictStore, appConfig.Store.URI)

	dict, err := buildDictionaryFile(corpus)
	if err != nil {
		return err
	}
	if err := feature.SaveDictionaryFile(out, dict); err != nil {
		return err
	}
	if uri != "" {
		if err := saveDictionaryToStore(cmd.Context(), uri, appConfig.Store.DictKey, dict); err != nil {
			return err
		}
	}
	appLogger.Info("dictionary built",
		zap.String("corpus", corpus), zap.String("out", out), zap.Int("tokens", dict.Len()))

	if humanOutput {
		outputHuman("%d tokens from %s written to %s\n", dict.Len(), corpus, out)
		return nil
	}
	return outputJSON(DictResponse{Corpus: corpus, Out: out, Tokens: dict.Len(), Store: uri})
}

// buildDictionaryFile 流式读取语料并建词典；语料不做过滤，保证词典覆盖全部样本。
func buildDictionaryFile(path string) (*feature.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataErr(fmt.Errorf("opening corpus: %w", err))
	}
	defer f.Close()

	dict, err := feature.BuildDictionary(dataset.NewReader(f))
	if err != nil {
		return nil, dataErr(fmt.Errorf("%s: %w", path, err))
	}
	return dict, nil
}

func saveDictionaryToStore(ctx context.Context, uri, key string, dict *feature.Dictionary) error {
	s, err := store.Open(uri)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	defer s.Close()
	return feature.SaveDictionary(ctx, s, key, dict)
}

// loadDictionary 优先读词典文件；未指定文件但配置了存储时从存储读取。
func loadDictionary(ctx context.Context, path string) (*feature.Dictionary, error) {
	if path == "" && appConfig.Store.URI != "" {
		s, err := store.Open(appConfig.Store.URI)
		if err != nil {
			return nil, withCode(ExitConfigError, err)
		}
		defer s.Close()
		dict, err := feature.StoreDictionaryLoader{Store: s}.Load(ctx, appConfig.Store.DictKey)
		if err != nil {
			return nil, withCode(ExitConfigError, err)
		}
		return dict, nil
	}
	if path == "" {
		path = appConfig.Data.Dict
	}
	dict, err := feature.FileDictionaryLoader{}.Load(ctx, path)
	if err != nil {
		return nil, dataErr(err)
	}
	return dict, nil
}
