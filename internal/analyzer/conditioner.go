package analyzer

const (
	// TrimMs 开头视为瞬态噪声而丢弃的时长（毫秒）
	TrimMs = 64
	// FadeMs 线性淡入的时长（毫秒）
	FadeMs = 32
)

// windowSamples 返回给定毫秒数对应的采样数（向下取整）
func windowSamples(sampleRate, ms int) int {
	if sampleRate <= 0 {
		return 0
	}
	return sampleRate * ms / 1000
}

// Trim 丢弃开头 TrimMs 毫秒的采样，波形过短时返回空切片
func Trim(samples []float64, sampleRate int) []float64 {
	n := windowSamples(sampleRate, TrimMs)
	if n >= len(samples) {
		return []float64{}
	}

	trimmed := make([]float64, len(samples)-n)
	copy(trimmed, samples[n:])
	return trimmed
}

// FadeIn 对开头 FadeMs 毫秒施加从 0.0 到 1.0 的线性增益
//
// 窗口两端都包含在内：第 0 个采样增益为 0，窗口最后一个采样增益为 1。
// 窗口长于信号时，按截断后的长度重新计算增益。
func FadeIn(samples []float64, sampleRate int) []float64 {
	faded := make([]float64, len(samples))
	copy(faded, samples)

	m := windowSamples(sampleRate, FadeMs)
	if m > len(faded) {
		m = len(faded)
	}

	for i := 0; i < m; i++ {
		faded[i] *= fadeGain(i, m)
	}
	return faded
}

// fadeGain 长度为 m 的线性窗口在下标 i 处的增益
func fadeGain(i, m int) float64 {
	if m <= 1 {
		return 0
	}
	return float64(i) / float64(m-1)
}

// Condition 预处理：先裁剪开头，再淡入。不修改输入。
func Condition(samples []float64, sampleRate int) []float64 {
	return FadeIn(Trim(samples, sampleRate), sampleRate)
}
