package dataprocessing

import (
	"fmt"
	"math"
	"sort"
)

// DefaultHistogramBins is the bin count of the customer age histogram.
const DefaultHistogramBins = 15

// AgeBinning maps numeric ages to categorical labels. Label i covers
// (Boundaries[i], Boundaries[i+1]]; the first bin also includes Boundaries[0].
type AgeBinning struct {
	Boundaries []float64
	Labels     []string
}

// DefaultAgeBinning returns the standard retail age groups.
func DefaultAgeBinning() AgeBinning {
	return AgeBinning{
		Boundaries: []float64{0, 18, 25, 35, 45, 60, 200},
		Labels:     []string{"0-18", "19-25", "26-35", "36-45", "46-60", "61+"},
	}
}

// Validate checks that there is one label per bin and that boundaries strictly increase.
func (b AgeBinning) Validate() error {
	if len(b.Boundaries) < 2 {
		return fmt.Errorf("age binning needs at least 2 boundaries, got %d", len(b.Boundaries))
	}
	if len(b.Labels) != len(b.Boundaries)-1 {
		return fmt.Errorf("age binning has %d labels for %d boundaries, want %d",
			len(b.Labels), len(b.Boundaries), len(b.Boundaries)-1)
	}
	for i, v := range b.Boundaries {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("age boundary %d is not finite", i)
		}
		if i > 0 && v <= b.Boundaries[i-1] {
			return fmt.Errorf("age boundaries must strictly increase: %g follows %g", v, b.Boundaries[i-1])
		}
	}
	return nil
}

// Assign returns the label for age, or "" when age is nil or outside the bins.
func (b AgeBinning) Assign(age *float64) string {
	if age == nil || len(b.Boundaries) < 2 {
		return ""
	}
	v := *age
	lowest, highest := b.Boundaries[0], b.Boundaries[len(b.Boundaries)-1]
	if math.IsNaN(v) || v < lowest || v > highest {
		return ""
	}
	i := sort.SearchFloat64s(b.Boundaries, v)
	if i == 0 {
		return b.Labels[0]
	}
	return b.Labels[i-1]
}
