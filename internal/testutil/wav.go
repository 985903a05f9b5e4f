// Package testutil 为测试生成 WAV 样本
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// Sine 生成 n 个采样的正弦波，幅度为 amp
func Sine(freq float64, sampleRate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Interleave 将多个等长声道交错排列
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float64, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// WritePCM 以整数 PCM 编码写入 WAV 文件，samples 为 [-1, 1] 的交错采样
func WritePCM(t testing.TB, path string, samples []float64, sampleRate, bitDepth, channels int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	maxVal := float64(int64(1)<<uint(bitDepth-1)) - 1
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(s * maxVal))
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// WAV 编码标识
const (
	FormatPCM        = 1
	FormatFloat      = 3
	FormatExtensible = 0xFFFE
)

// KSDATAFORMAT_SUBTYPE_* GUID 中编码字段之后的固定部分
var subFormatGUIDTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// WriteFloat32 写入 IEEE float (编码 3) 的 32 bit WAV 文件
func WriteFloat32(t testing.TB, path string, samples []float64, sampleRate, channels int) {
	t.Helper()
	writeRaw(t, path, FormatFloat, 0, samples, sampleRate, 32, channels)
}

// WriteExtensible 写入 WAVE_FORMAT_EXTENSIBLE 文件，subFormat 为 FormatPCM 或 FormatFloat 等编码标识
//
// FormatFloat 时 bitDepth 必须为 32，其余按 16/24/32 bit 有符号整数 PCM 写入。
func WriteExtensible(t testing.TB, path string, samples []float64, sampleRate, bitDepth, channels, subFormat int) {
	t.Helper()
	writeRaw(t, path, FormatExtensible, subFormat, samples, sampleRate, bitDepth, channels)
}

func writeRaw(t testing.TB, path string, format, subFormat int, samples []float64, sampleRate, bitDepth, channels int) {
	t.Helper()

	bytesPerSample := bitDepth / 8
	blockAlign := channels * bytesPerSample
	dataSize := len(samples) * bytesPerSample

	fmtSize := 16
	if format == FormatExtensible {
		fmtSize = 40
	}

	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(4+8+fmtSize+8+dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(fmtSize))
	binary.Write(&b, le, uint16(format))
	binary.Write(&b, le, uint16(channels))
	binary.Write(&b, le, uint32(sampleRate))
	binary.Write(&b, le, uint32(sampleRate*blockAlign))
	binary.Write(&b, le, uint16(blockAlign))
	binary.Write(&b, le, uint16(bitDepth))
	if format == FormatExtensible {
		binary.Write(&b, le, uint16(22))
		binary.Write(&b, le, uint16(bitDepth))
		binary.Write(&b, le, uint32(0))
		binary.Write(&b, le, uint16(subFormat))
		b.Write(subFormatGUIDTail)
	}
	b.WriteString("data")
	binary.Write(&b, le, uint32(dataSize))

	isFloat := format == FormatFloat || subFormat == FormatFloat
	maxVal := float64(int64(1)<<uint(bitDepth-1)) - 1
	for _, s := range samples {
		if isFloat {
			binary.Write(&b, le, math.Float32bits(float32(s)))
			continue
		}
		v := uint32(int32(math.Round(s * maxVal)))
		for i := 0; i < bytesPerSample; i++ {
			b.WriteByte(byte(v >> (8 * i)))
		}
	}

	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}
