package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/diffkit/core"
	"github.com/rushteam/diffkit/pkg/conv"
)

// XY 是一份稠密训练/测试数据：每行一个词袋向量，Y 为难度标签。
type XY struct {
	IDs []string
	X   *mat.Dense
	Y   []float64
}

// NewXY 把特征记录转换为稠密矩阵；所有记录的向量长度必须一致。
func NewXY(records []core.FeatureRecord) (*XY, error) {
	if len(records) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: no feature records")
	}
	width := len(records[0].Feature)
	if width == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: empty feature vector")
	}

	data := make([]float64, 0, len(records)*width)
	for i, rec := range records {
		if len(rec.Feature) != width {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dataset: record %d (%s) has %d features, want %d", i, rec.ID, len(rec.Feature), width))
		}
		data = append(data, conv.IntsToFloat64(rec.Feature)...)
	}

	return &XY{
		IDs: lo.Map(records, func(r core.FeatureRecord, _ int) string { return r.ID }),
		X:   mat.NewDense(len(records), width, data),
		Y:   lo.Map(records, func(r core.FeatureRecord, _ int) float64 { return r.Diff }),
	}, nil
}

// LoadXY 读取训练和测试特征文件。两份文件必须来自同一份词典（向量等长）。
func LoadXY(trainPath, testPath string) (train, test *XY, err error) {
	trainRecords, err := ReadFeatureRecords(trainPath)
	if err != nil {
		return nil, nil, err
	}
	testRecords, err := ReadFeatureRecords(testPath)
	if err != nil {
		return nil, nil, err
	}

	if train, err = NewXY(trainRecords); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", trainPath, err)
	}
	if test, err = NewXY(testRecords); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", testPath, err)
	}
	if _, tc := train.X.Dims(); tc != len(testRecords[0].Feature) {
		return nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dataset: train width %d != test width %d", tc, len(testRecords[0].Feature)))
	}
	return train, test, nil
}

// Prediction 是预测文件的一行：样本 id、真实难度、预测难度。
type Prediction struct {
	ID   string  `json:"id"`
	Diff float64 `json:"diff"`
	Pred float64 `json:"pred"`
}

// ReadPredictions 读取预测文件。
func ReadPredictions(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prediction file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineCapacity)

	var preds []Prediction
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p Prediction
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("%s: parsing line %d: %w", path, lineNum, err)
		}
		preds = append(preds, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading prediction file: %w", err)
	}
	return preds, nil
}

// SplitPredictions 拆成真实值和预测值两个序列。
func SplitPredictions(preds []Prediction) (truth, pred []float64) {
	truth = lo.Map(preds, func(p Prediction, _ int) float64 { return p.Diff })
	pred = lo.Map(preds, func(p Prediction, _ int) float64 { return p.Pred })
	return truth, pred
}
