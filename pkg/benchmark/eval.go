// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package benchmark

import (
	"github.com/pingcap/graphflow/pkg/model"
)

// Test metric keys reported by the reference models.
const (
	MetricTestAccuracy = "test_accuracy"
	MetricTestMacroF1  = "test_macro_f1"
	MetricValAccuracy  = "val_accuracy"
)

// evaluate scores pred against the labels of the val and test masks.
func evaluate(conv *model.ConvertedInstance, pred []int) map[string]float64 {
	return map[string]float64{
		MetricTestAccuracy: accuracy(conv.Labels, pred, conv.Masks.Test),
		MetricTestMacroF1:  macroF1(conv.Labels, pred, conv.Masks.Test, conv.NumClasses),
		MetricValAccuracy:  accuracy(conv.Labels, pred, conv.Masks.Val),
	}
}

func accuracy(labels, pred []int, mask []bool) float64 {
	total, hit := 0, 0
	for i, sel := range mask {
		if !sel {
			continue
		}
		total++
		if labels[i] == pred[i] {
			hit++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hit) / float64(total)
}

// macroF1 is the unweighted mean of the per-class F1 scores. Classes that
// neither occur nor are predicted in the mask are ignored.
func macroF1(labels, pred []int, mask []bool, numClasses int) float64 {
	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)
	for i, sel := range mask {
		if !sel {
			continue
		}
		if labels[i] == pred[i] {
			tp[labels[i]]++
			continue
		}
		if pred[i] >= 0 && pred[i] < numClasses {
			fp[pred[i]]++
		}
		fn[labels[i]]++
	}
	sum, classes := 0.0, 0
	for c := 0; c < numClasses; c++ {
		if tp[c]+fp[c]+fn[c] == 0 {
			continue
		}
		classes++
		sum += 2 * float64(tp[c]) / float64(2*tp[c]+fp[c]+fn[c])
	}
	if classes == 0 {
		return 0
	}
	return sum / float64(classes)
}

func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
