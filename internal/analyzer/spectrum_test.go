package analyzer

import (
	"testing"

	"kicky/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestBinFrequency(t *testing.T) {
	tests := []struct {
		k, n, rate int
		want       float64
	}{
		{0, 8, 8, 0},
		{3, 8, 8, 3},
		{4, 8, 8, -4},
		{7, 8, 8, -1},
		{3, 7, 7, 3},
		{4, 7, 7, -3},
		{6, 7, 7, -1},
		{1, 1000, 44100, 44.1},
		{0, 0, 44100, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, BinFrequency(tt.k, tt.n, tt.rate), 1e-9, "k=%d n=%d rate=%d", tt.k, tt.n, tt.rate)
	}
}

func TestEstimatePeakFrequencyEmpty(t *testing.T) {
	assert.Equal(t, 0.0, EstimatePeakFrequency(nil, 44100))
	assert.Equal(t, 0.0, EstimatePeakFrequency([]float64{}, 44100))
	assert.Equal(t, 0.0, EstimatePeakFrequency([]float64{1, 2, 3}, 0))
}

func TestEstimatePeakFrequencySilenceTiesToFirstBin(t *testing.T) {
	res := NewSpectrumAnalyzer(44100).AnalyzeSpectrum(make([]float64, 64))
	assert.Equal(t, 0, res.PeakBin)
	assert.Equal(t, 0.0, res.PeakFrequency)
	assert.Equal(t, 64, res.Size)
}

func TestEstimatePeakFrequencyPowerOfTwo(t *testing.T) {
	// 1024 点、1024 Hz 采样，频率分辨率 1 Hz
	samples := testutil.Sine(100, 1024, 1024, 0.5)
	assert.InDelta(t, 100, EstimatePeakFrequency(samples, 1024), 1e-9)
}

func TestEstimatePeakFrequencyArbitraryLength(t *testing.T) {
	// 1500 点，bin 30 对应 882 Hz
	samples := testutil.Sine(882, 44100, 1500, 0.9)
	res := NewSpectrumAnalyzer(44100).AnalyzeSpectrum(samples)

	assert.InDelta(t, 882, res.PeakFrequency, 1e-6)
	assert.Positive(t, res.PeakMagnitude)
}

func TestEstimatePeakFrequencyDC(t *testing.T) {
	assert.Equal(t, 0.0, EstimatePeakFrequency(ones(256), 8000))
}

func TestEstimatePeakFrequencyIsNonNegative(t *testing.T) {
	for _, f := range []float64{50, 120, 333, 1000} {
		got := EstimatePeakFrequency(testutil.Sine(f, 8000, 4000, 1), 8000)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.InDelta(t, f, got, 2)
	}
}
