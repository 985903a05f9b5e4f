package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// 条目状态
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// CollisionPolicy 输出文件重名时的处理策略
type CollisionPolicy string

const (
	CollisionOverwrite CollisionPolicy = "overwrite" // 直接覆盖（原始行为）
	CollisionSuffix    CollisionPolicy = "suffix"    // 追加序号 " 2", " 3" ...
	CollisionError     CollisionPolicy = "error"     // 视为该文件失败
)

// ParseCollisionPolicy 解析重名策略
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionSuffix, CollisionError:
		return p, nil
	default:
		return "", fmt.Errorf("未知的重名策略: %q (可选 overwrite, suffix, error)", s)
	}
}

// AnalyzerConfig 分析器配置
type AnalyzerConfig struct {
	Concurrency        int             // 并发数，1 为严格顺序处理
	Collision          CollisionPolicy // 重名策略
	CreateOutput       bool            // 输出目录不存在时自动创建
	ReferenceFrequency float64         // 音级 0 的参考频率 (Hz)，0 表示默认值
	Quiet              bool            // 静默模式
	JSONOutput         bool            // JSON输出格式
	Progress           bool            // 显示进度条
}

// Validate 校验配置
func (c *AnalyzerConfig) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("并发数必须大于 0: %d", c.Concurrency)
	}
	if _, err := ParseCollisionPolicy(string(c.Collision)); err != nil {
		return err
	}
	if c.ReferenceFrequency < 0 {
		return fmt.Errorf("参考频率不能为负数: %g", c.ReferenceFrequency)
	}
	return nil
}

// Waveform 解码后的单声道波形
type Waveform struct {
	Samples    []float64 // 归一化到 [-1, 1) 的单声道采样
	SampleRate int
	Channels   int // 源文件声道数
	BitDepth   int
	Format     string
	Duration   time.Duration // 文件头声明的 PCM 时长
}

// AnalysisResult 音高分析结果
type AnalysisResult struct {
	Frequency float64 `json:"frequency"` // 0 表示未检测到
	Note      string  `json:"note"`
}

// BatchItem 单个文件的处理结果
type BatchItem struct {
	Index      int            `json:"index"`
	SourcePath string         `json:"sourcePath"`
	OutputName string         `json:"outputName,omitempty"`
	OutputPath string         `json:"outputPath,omitempty"`
	Status     string         `json:"status"` // "OK", "ERROR"
	Analysis   AnalysisResult `json:"analysis"`
	SampleRate int            `json:"sampleRate,omitempty"`
	Channels   int            `json:"channels,omitempty"`
	BitDepth   int            `json:"bitDepth,omitempty"`
	Duration   float64        `json:"duration,omitempty"`
	Format     string         `json:"format,omitempty"`
	Error      string         `json:"error,omitempty"`

	err error
}

// Fail 将条目标记为失败
func (b *BatchItem) Fail(err error) {
	b.Status = StatusError
	b.err = err
	b.Error = err.Error()
}

// Err 返回失败原因，成功时为 nil
func (b *BatchItem) Err() error {
	return b.err
}

// StatusLine 对外输出的单行状态
func (b *BatchItem) StatusLine() string {
	if b.Status == StatusOK {
		return "Processed " + b.OutputName
	}
	return fmt.Sprintf("Error processing %s: %s", filepath.Base(b.SourcePath), b.Error)
}

// Summary 一次运行的统计
type Summary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Unknown   int `json:"unknown"` // 成功但音高为 Unknown 的文件
}

// Add 计入一个条目
func (s *Summary) Add(item *BatchItem) {
	s.Total++
	if item.Status != StatusOK {
		s.Failed++
		return
	}
	s.Processed++
	if item.Analysis.Frequency == 0 {
		s.Unknown++
	}
}

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	GetSamples() ([]float64, error) // 已合并为单声道
	Close() error
}
