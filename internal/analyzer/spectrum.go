package analyzer

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// SpectrumAnalyzer 频谱分析器
type SpectrumAnalyzer struct {
	sampleRate int
}

// NewSpectrumAnalyzer 创建频谱分析器
func NewSpectrumAnalyzer(sampleRate int) *SpectrumAnalyzer {
	return &SpectrumAnalyzer{sampleRate: sampleRate}
}

// SpectrumResult 频谱峰值
type SpectrumResult struct {
	PeakBin       int     // 幅度最大的频点下标
	PeakFrequency float64 // 峰值频率的绝对值 (Hz)，0 表示未检测到
	PeakMagnitude float64
	Size          int // 变换长度
}

// AnalyzeSpectrum 对整段信号做离散傅里叶变换并找出幅度最大的频点
//
// 变换长度等于输入长度，不补零也不再加窗。幅度相同时取下标最小的频点。
// 空输入返回频率为 0 的结果。
func (s *SpectrumAnalyzer) AnalyzeSpectrum(samples []float64) *SpectrumResult {
	n := len(samples)
	if n == 0 || s.sampleRate <= 0 {
		return &SpectrumResult{}
	}

	spectrum := fft.FFTReal(samples)
	magnitudes := calculateMagnitudeSpectrum(spectrum)

	peak := 0
	for k := 1; k < len(magnitudes); k++ {
		if magnitudes[k] > magnitudes[peak] {
			peak = k
		}
	}

	return &SpectrumResult{
		PeakBin:       peak,
		PeakFrequency: math.Abs(BinFrequency(peak, n, s.sampleRate)),
		PeakMagnitude: magnitudes[peak],
		Size:          n,
	}
}

// calculateMagnitudeSpectrum 计算完整的幅度谱（包含负频率部分）
func calculateMagnitudeSpectrum(spectrum []complex128) []float64 {
	magnitudes := make([]float64, len(spectrum))
	for i, c := range spectrum {
		magnitudes[i] = cmplx.Abs(c)
	}
	return magnitudes
}

// BinFrequency 长度为 n、采样率为 rate 的变换中第 k 个频点的频率
//
// 前半部分为正频率 k*rate/n，其余为负频率 (k-n)*rate/n。
func BinFrequency(k, n, rate int) float64 {
	if n <= 0 {
		return 0
	}
	if k <= (n-1)/2 {
		return float64(k) * float64(rate) / float64(n)
	}
	return float64(k-n) * float64(rate) / float64(n)
}

// EstimatePeakFrequency 估计预处理后信号的基频
func EstimatePeakFrequency(samples []float64, sampleRate int) float64 {
	return NewSpectrumAnalyzer(sampleRate).AnalyzeSpectrum(samples).PeakFrequency
}
