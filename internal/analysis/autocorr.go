// Package analysis provides statistical analysis of Monte Carlo sample
// series.
//
//   - [Autocorrelation]: normalized sample autocorrelation function
//   - [IntegratedAutocorrelationTime]: effective correlation time of a
//     series, for judging sampling intervals
//   - [PeakTemperature]: locate the susceptibility (or specific heat)
//     peak in a temperature scan, a finite-size estimate of Tc
package analysis

import "math"

// Autocorrelation returns the normalized autocorrelation function of
// data up to maxLag, with result[0] == 1. Lags beyond the series
// length are truncated. A constant series has undefined correlation;
// zeros are returned past lag 0 in that case.
func Autocorrelation(data []float64, maxLag int) []float64 {
	n := len(data)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	var c0 float64
	for _, v := range data {
		d := v - mean
		c0 += d * d
	}

	result := make([]float64, maxLag+1)
	result[0] = 1.0
	if c0 == 0 {
		return result
	}

	for lag := 1; lag <= maxLag; lag++ {
		var c float64
		for i := 0; i < n-lag; i++ {
			c += (data[i] - mean) * (data[i+lag] - mean)
		}
		result[lag] = c / c0
	}
	return result
}

// IntegratedAutocorrelationTime estimates tau = 1/2 + sum of the
// autocorrelation function, summing until the first non-positive
// value (the standard windowing cutoff). A value near 1/2 means
// samples are effectively independent.
func IntegratedAutocorrelationTime(data []float64) float64 {
	acf := Autocorrelation(data, len(data)/2)
	tau := 0.5
	for lag := 1; lag < len(acf); lag++ {
		if acf[lag] <= 0 {
			break
		}
		tau += acf[lag]
	}
	return tau
}

// PeakTemperature returns the temperature at which values is largest.
// With values holding susceptibility (or specific heat) from a
// temperature scan this is the finite-size critical point estimate.
// temps and values must have equal nonzero length.
func PeakTemperature(temps, values []float64) (float64, float64) {
	if len(temps) == 0 || len(temps) != len(values) {
		return math.NaN(), math.NaN()
	}

	bestT, bestV := temps[0], values[0]
	for i := 1; i < len(temps); i++ {
		if values[i] > bestV {
			bestT, bestV = temps[i], values[i]
		}
	}
	return bestT, bestV
}
