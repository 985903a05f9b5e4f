package decoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"kicky/internal/types"
)

// AudioDecoder 音频解码器接口
type AudioDecoder interface {
	Decode(filePath string) (types.AudioFile, error)
	SupportedFormats() []string
}

// DecoderRegistry 解码器注册表
type DecoderRegistry struct {
	decoders map[string]AudioDecoder
}

// NewDecoderRegistry 创建新的解码器注册表
func NewDecoderRegistry() *DecoderRegistry {
	registry := &DecoderRegistry{
		decoders: make(map[string]AudioDecoder),
	}

	// 仅支持未压缩的 WAV
	registry.Register(&WAVDecoder{})

	return registry
}

// Register 注册解码器
func (r *DecoderRegistry) Register(decoder AudioDecoder) {
	for _, format := range decoder.SupportedFormats() {
		r.decoders[strings.ToLower(format)] = decoder
	}
}

// Supports 判断文件扩展名是否有对应的解码器（不区分大小写）
func (r *DecoderRegistry) Supports(filePath string) bool {
	_, err := r.GetDecoder(filePath)
	return err == nil
}

// GetDecoder 根据文件扩展名获取解码器
func (r *DecoderRegistry) GetDecoder(filePath string) (AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return nil, fmt.Errorf("%w: 无法确定文件格式: %s", types.ErrUnsupportedFormat, filePath)
	}

	// 移除点号
	ext = ext[1:]

	decoder, exists := r.decoders[ext]
	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, ext)
	}

	return decoder, nil
}

// DecodeFile 解码音频文件
func (r *DecoderRegistry) DecodeFile(filePath string) (types.AudioFile, error) {
	decoder, err := r.GetDecoder(filePath)
	if err != nil {
		return nil, types.NewDecodeError(filePath, err)
	}

	return decoder.Decode(filePath)
}

// DecodeWaveform 解码音频文件并读取全部单声道采样
func (r *DecoderRegistry) DecodeWaveform(filePath string) (*types.Waveform, error) {
	audioFile, err := r.DecodeFile(filePath)
	if err != nil {
		return nil, err
	}
	defer audioFile.Close()

	samples, err := audioFile.GetSamples()
	if err != nil {
		return nil, err
	}

	return &types.Waveform{
		Samples:    samples,
		SampleRate: audioFile.GetSampleRate(),
		Channels:   audioFile.GetChannels(),
		BitDepth:   audioFile.GetBitDepth(),
		Format:     audioFile.GetFormat(),
		Duration:   audioFile.GetDuration(),
	}, nil
}
