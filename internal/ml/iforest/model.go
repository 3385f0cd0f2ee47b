package iforest

import (
	"errors"
	"math"

	goiforest "github.com/narumiruna/go-iforest/pkg/iforest"
)

type TrainOptions struct {
	NumTrees   int
	SampleSize int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		NumTrees:   100,
		SampleSize: 128,
	}
}

// Model is an isolation forest over z-scored feature vectors.
type Model struct {
	means  []float64
	stds   []float64
	forest *goiforest.IsolationForest
}

func Train(samples [][]float64, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("empty training dataset")
	}
	if len(samples[0]) == 0 {
		return nil, errors.New("empty feature vectors")
	}
	if opts.NumTrees <= 0 {
		opts.NumTrees = DefaultTrainOptions().NumTrees
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultTrainOptions().SampleSize
	}
	if opts.SampleSize > len(samples) {
		opts.SampleSize = len(samples)
	}

	means, stds := fitNormalizer(samples)
	forest := goiforest.NewWithOptions(goiforest.Options{
		DetectionType: goiforest.DetectionTypeThreshold,
		Threshold:     0.6,
		NumTrees:      opts.NumTrees,
		SampleSize:    opts.SampleSize,
	})
	forest.Fit(normalizeBatch(samples, means, stds))
	return &Model{means: means, stds: stds, forest: forest}, nil
}

// Score returns the anomaly score of sample in [0,1]; higher is more unusual.
func (m *Model) Score(sample []float64) float64 {
	if m == nil || m.forest == nil || len(sample) != len(m.means) {
		return 0
	}
	scores := m.forest.Score([][]float64{normalize(sample, m.means, m.stds)})
	if len(scores) == 0 {
		return 0
	}
	s := scores[0]
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0) || s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

func fitNormalizer(samples [][]float64) ([]float64, []float64) {
	n := len(samples[0])
	means := make([]float64, n)
	stds := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= float64(len(samples))
		for i := range samples {
			d := samples[i][j] - means[j]
			stds[j] += d * d
		}
		stds[j] = math.Sqrt(stds[j] / float64(len(samples)))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func normalizeBatch(samples [][]float64, means, stds []float64) [][]float64 {
	out := make([][]float64, len(samples))
	for i := range samples {
		out[i] = normalize(samples[i], means, stds)
	}
	return out
}

func normalize(in, means, stds []float64) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		out[i] = (in[i] - means[i]) / stds[i]
	}
	return out
}
