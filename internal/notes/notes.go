// Package notes 提供音级表与频率到音名的映射
package notes

import "math"

// Unknown 无法判定音高时使用的音名
const Unknown = "Unknown"

const (
	// ConcertPitch 标准音 A4 (Hz)
	ConcertPitch = 440.0
	// ReferenceOctaves 参考频率相对 A4 的八度偏移（-57 个半音，即 C0）
	ReferenceOctaves = -4.75
)

// ReferenceFrequency 音级 0 对应的参考频率，约 16.3516 Hz
var ReferenceFrequency = ConcertPitch * math.Pow(2, ReferenceOctaves)

// Table 12 个音级的名称，下标 0 对应参考频率的音级
type Table [12]string

// DefaultTable 以 C 开头的十二平均律音名
var DefaultTable = Table{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Classify 将频率映射为最接近的音名
//
// 半音距离 h = 12*log2(f/ref)，四舍五入（逢半取偶）后对 12 取数学模。
// 频率为 0（以及负数、NaN、无穷）时返回 Unknown。
func Classify(freq, ref float64, table Table) string {
	if !(freq > 0) || math.IsInf(freq, 1) || !(ref > 0) || math.IsInf(ref, 1) {
		return Unknown
	}

	h := 12 * math.Log2(freq/ref)
	return table[PitchClass(int(math.RoundToEven(h)))]
}

// PitchClass 将半音数规约到 [0, 11]
func PitchClass(semitones int) int {
	return ((semitones % 12) + 12) % 12
}

// Classifier 持有注入的参考频率与音级表
type Classifier struct {
	reference float64
	table     Table
}

// NewClassifier 创建分类器
func NewClassifier(reference float64, table Table) *Classifier {
	return &Classifier{reference: reference, table: table}
}

var defaultClassifier = NewClassifier(ReferenceFrequency, DefaultTable)

// Default 返回进程级默认分类器
func Default() *Classifier {
	return defaultClassifier
}

// Reference 参考频率
func (c *Classifier) Reference() float64 {
	return c.reference
}

// Table 音级表
func (c *Classifier) Table() Table {
	return c.table
}

// Classify 将频率映射为音名
func (c *Classifier) Classify(freq float64) string {
	return Classify(freq, c.reference, c.table)
}
