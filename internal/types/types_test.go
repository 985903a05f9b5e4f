package types

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"", CollisionOverwrite, false},
		{"overwrite", CollisionOverwrite, false},
		{" Suffix ", CollisionSuffix, false},
		{"ERROR", CollisionError, false},
		{"rename", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCollisionPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestAnalyzerConfigValidate(t *testing.T) {
	assert.NoError(t, (&AnalyzerConfig{Concurrency: 1}).Validate())
	assert.Error(t, (&AnalyzerConfig{Concurrency: 0}).Validate())
	assert.Error(t, (&AnalyzerConfig{Concurrency: 1, Collision: "nope"}).Validate())
	assert.Error(t, (&AnalyzerConfig{Concurrency: 1, ReferenceFrequency: -1}).Validate())
}

func TestFileErrorUnwrap(t *testing.T) {
	err := NewIOError("复制", "/tmp/a.wav", fs.ErrPermission)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Equal(t, "复制 /tmp/a.wav: permission denied", err.Error())

	collision := &FileError{Op: "写入", Path: "/tmp/b.wav", Kind: ErrCollision}
	assert.ErrorIs(t, collision, ErrIO)
	assert.Contains(t, collision.Error(), "输出文件已存在")

	assert.ErrorIs(t, ErrUnsupportedFormat, ErrDecode)
}

func TestBatchItemStatusLine(t *testing.T) {
	ok := &BatchItem{SourcePath: "/in/kick01.wav", OutputName: "kick01 (C#).wav", Status: StatusOK}
	assert.Equal(t, "Processed kick01 (C#).wav", ok.StatusLine())
	assert.NoError(t, ok.Err())

	failed := &BatchItem{SourcePath: "/in/bad.wav"}
	failed.Fail(errors.New("boom"))
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "Error processing bad.wav: boom", failed.StatusLine())
	assert.EqualError(t, failed.Err(), "boom")
}

func TestSummaryAdd(t *testing.T) {
	var s Summary
	s.Add(&BatchItem{Status: StatusOK, Analysis: AnalysisResult{Frequency: 55, Note: "A"}})
	s.Add(&BatchItem{Status: StatusOK, Analysis: AnalysisResult{Note: "Unknown"}})
	s.Add(&BatchItem{Status: StatusError})

	assert.Equal(t, Summary{Total: 3, Processed: 2, Failed: 1, Unknown: 1}, s)
}
