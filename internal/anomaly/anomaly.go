// Package anomaly implements the detection primitives shared by all
// reconciliation domains: set-difference matching on natural keys, duplicate
// detection, and statistical outlier detection on amounts.
package anomaly

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// FindUnmatched partitions two record sets by a composite natural key.
// It returns the records of a whose key never appears in b, and the records
// of b whose key never appears in a. Every input record lands in exactly one
// of matched, onlyA, or onlyB, so the partition is exhaustive and disjoint.
func FindUnmatched[T any](a, b []T, key func(T) string) (onlyA, onlyB []T) {
	keysA := make(map[string]struct{}, len(a))
	for _, record := range a {
		keysA[key(record)] = struct{}{}
	}
	keysB := make(map[string]struct{}, len(b))
	for _, record := range b {
		keysB[key(record)] = struct{}{}
	}

	for _, record := range a {
		if _, ok := keysB[key(record)]; !ok {
			onlyA = append(onlyA, record)
		}
	}
	for _, record := range b {
		if _, ok := keysA[key(record)]; !ok {
			onlyB = append(onlyB, record)
		}
	}
	return onlyA, onlyB
}

// DetectDuplicates returns every record whose key occurs more than once in
// the input, including all occurrences.
func DetectDuplicates[T any](records []T, key func(T) string) []T {
	counts := make(map[string]int, len(records))
	for _, record := range records {
		counts[key(record)]++
	}

	var duplicates []T
	for _, record := range records {
		if counts[key(record)] > 1 {
			duplicates = append(duplicates, record)
		}
	}
	return duplicates
}

// DetectOutliersZScore returns the records whose amount deviates from the
// mean by more than threshold sample standard deviations. Fewer than two
// records, or a zero standard deviation, yield no outliers.
func DetectOutliersZScore[T any](records []T, amount func(T) decimal.Decimal, threshold float64) []T {
	if len(records) < 2 {
		return nil
	}

	values := make([]float64, len(records))
	var sum float64
	for i, record := range records {
		values[i], _ = amount(record).Float64()
		sum += values[i]
	}
	mean := sum / float64(len(values))

	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	std := math.Sqrt(sumSquares / float64(len(values)-1))
	if std == 0 {
		return nil
	}

	var outliers []T
	for i, record := range records {
		if math.Abs(values[i]-mean)/std > threshold {
			outliers = append(outliers, record)
		}
	}
	return outliers
}

// DetectOutliersIQR returns the records whose amount falls outside
// [Q1 - k*IQR, Q3 + k*IQR], the interquartile fence. A zero IQR yields no
// outliers.
func DetectOutliersIQR[T any](records []T, amount func(T) decimal.Decimal, k float64) []T {
	if len(records) < 4 {
		return nil
	}

	values := make([]float64, len(records))
	for i, record := range records {
		values[i], _ = amount(record).Float64()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return nil
	}

	lower := q1 - k*iqr
	upper := q3 + k*iqr

	var outliers []T
	for i, record := range records {
		if values[i] < lower || values[i] > upper {
			outliers = append(outliers, record)
		}
	}
	return outliers
}

// quantile computes the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
