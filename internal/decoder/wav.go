package decoder

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"kicky/internal/types"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// WAV fmt 块中的编码标识
const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder WAV格式解码器
type WAVDecoder struct{}

// WAVFile WAV文件实现
type WAVFile struct {
	decoder     *wav.Decoder
	file        *os.File
	path        string
	audioFormat int
	sampleRate  int
	bitDepth    int
	channels    int
	duration    time.Duration
	samples     []float64
}

// SupportedFormats 返回支持的格式
func (d *WAVDecoder) SupportedFormats() []string {
	return []string{"wav", "wave"}
}

// Decode 解码WAV文件头
func (d *WAVDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, types.NewIOError("打开WAV文件", filePath, err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		cause := decoder.Err()
		if cause == nil {
			cause = errors.New("无效的WAV文件")
		}
		return nil, types.NewDecodeError(filePath, cause)
	}

	wavFile := &WAVFile{
		decoder:     decoder,
		file:        file,
		path:        filePath,
		audioFormat: int(decoder.WavAudioFormat),
		sampleRate:  int(decoder.SampleRate),
		bitDepth:    int(decoder.BitDepth),
		channels:    int(decoder.NumChans),
	}

	// go-audio 丢弃了 fmt 扩展，子格式需要单独读取
	if wavFile.audioFormat == wavFormatExtensible {
		subFormat, err := readSubFormatFile(filePath)
		if err != nil {
			file.Close()
			return nil, types.NewDecodeError(filePath, fmt.Errorf("读取扩展格式失败: %w", err))
		}
		wavFile.audioFormat = subFormat
	}

	if err := wavFile.validate(); err != nil {
		file.Close()
		return nil, types.NewDecodeError(filePath, err)
	}

	// PCMLen 只有定位到 data 块之后才有效，之后 FullPCMBuffer 不会重复定位
	if err := decoder.FwdToPCM(); err != nil {
		file.Close()
		return nil, types.NewDecodeError(filePath, fmt.Errorf("未找到PCM数据: %w", err))
	}

	frameSize := int64(wavFile.channels * wavFile.bitDepth / 8)
	frames := decoder.PCMLen() / frameSize
	wavFile.duration = time.Duration(float64(frames) / float64(wavFile.sampleRate) * float64(time.Second))

	return wavFile, nil
}

// readSubFormatFile 读取 WAVE_FORMAT_EXTENSIBLE 文件 fmt 块中子格式 GUID 的编码字段
func readSubFormatFile(filePath string) (int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readSubFormat(f)
}

func readSubFormat(r io.Reader) (int, error) {
	parser := riff.New(r)
	if err := parser.ParseHeaders(); err != nil {
		return 0, err
	}

	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, errors.New("缺少 fmt 块")
			}
			return 0, err
		}
		if chunk.ID != riff.FmtID {
			chunk.Drain()
			continue
		}

		// 16 字节基本头 + cbSize + 有效位数 + 声道掩码 + GUID
		if chunk.Size < 40 {
			return 0, fmt.Errorf("扩展 fmt 块过短: %d 字节", chunk.Size)
		}
		var ext struct {
			_           [16]byte
			Size        uint16
			ValidBits   uint16
			ChannelMask uint32
			SubFormat   uint16
		}
		if err := chunk.ReadLE(&ext); err != nil {
			return 0, err
		}
		return int(ext.SubFormat), nil
	}
}

// validate 检查编码、位深度与声道数
func (w *WAVFile) validate() error {
	if w.sampleRate <= 0 {
		return fmt.Errorf("无效的采样率: %d", w.sampleRate)
	}
	if w.channels < 1 {
		return fmt.Errorf("无效的声道数: %d", w.channels)
	}

	switch w.audioFormat {
	case wavFormatPCM:
		switch w.bitDepth {
		case 8, 16, 24, 32:
			return nil
		}
	case wavFormatFloat:
		if w.bitDepth == 32 {
			return nil
		}
	default:
		return fmt.Errorf("%w: 编码 %d", types.ErrUnsupportedFormat, w.audioFormat)
	}

	return fmt.Errorf("%w: %d bit", types.ErrUnsupportedFormat, w.bitDepth)
}

// GetFormat 获取格式名称
func (w *WAVFile) GetFormat() string {
	if w.audioFormat == wavFormatFloat {
		return "WAV (float)"
	}
	return "WAV"
}

// GetSampleRate 获取采样率
func (w *WAVFile) GetSampleRate() int {
	return w.sampleRate
}

// GetBitDepth 获取位深度
func (w *WAVFile) GetBitDepth() int {
	return w.bitDepth
}

// GetChannels 获取声道数
func (w *WAVFile) GetChannels() int {
	return w.channels
}

// GetDuration 获取时长
func (w *WAVFile) GetDuration() time.Duration {
	return w.duration
}

// GetSamples 读取全部采样并合并为单声道
func (w *WAVFile) GetSamples() ([]float64, error) {
	if w.samples != nil {
		return w.samples, nil
	}

	buf, err := w.decoder.FullPCMBuffer()
	if err != nil {
		return nil, types.NewDecodeError(w.path, fmt.Errorf("读取PCM数据失败: %w", err))
	}

	interleaved := make([]float64, len(buf.Data))
	for i, sample := range buf.Data {
		interleaved[i] = w.normalize(sample)
	}

	w.samples = ToMono(interleaved, w.channels)
	return w.samples, nil
}

// normalize 将整数采样转换为 [-1, 1) 区间的浮点数
func (w *WAVFile) normalize(sample int) float64 {
	if w.audioFormat == wavFormatFloat {
		return float64(math.Float32frombits(uint32(sample)))
	}

	switch w.bitDepth {
	case 8:
		// 8 bit PCM 为无符号数，128 为零点
		return float64(sample-128) / 128
	default:
		maxVal := float64(int64(1) << uint(w.bitDepth-1))
		return float64(sample) / maxVal
	}
}

// Close 关闭文件
func (w *WAVFile) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// ToMono 按帧平均将交错的多声道采样合并为单声道
func ToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		mono := make([]float64, len(interleaved))
		copy(mono, interleaved)
		return mono
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range mono {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
