package types

import (
	"errors"
	"fmt"
)

// 错误类别
var (
	// ErrPrecondition 输入或输出目录缺失/无效，整个运行中止
	ErrPrecondition = errors.New("前置条件不满足")

	// ErrDecode 候选文件不是有效或受支持的音频文件
	ErrDecode = errors.New("解码失败")

	// ErrIO 单个文件的读取或复制失败
	ErrIO = errors.New("文件读写失败")

	// ErrUnsupportedFormat 音频编码不受支持
	ErrUnsupportedFormat = fmt.Errorf("%w: 不支持的音频格式", ErrDecode)

	// ErrCollision 输出文件已存在且策略为 error
	ErrCollision = fmt.Errorf("%w: 输出文件已存在", ErrIO)
)

// FileError 带有操作、路径与类别的错误
type FileError struct {
	Op   string // 执行的操作
	Path string // 文件路径
	Kind error  // 错误类别，如 ErrDecode
	Err  error  // 原始错误
}

// Error 返回错误信息
func (e *FileError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	if e.Kind != nil {
		return msg + ": " + e.Kind.Error()
	}
	return msg
}

// Unwrap 同时暴露类别与原始错误，便于 errors.Is 判断
func (e *FileError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewPreconditionError 创建前置条件错误
func NewPreconditionError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: ErrPrecondition, Err: err}
}

// NewDecodeError 创建解码错误
func NewDecodeError(path string, err error) *FileError {
	return &FileError{Op: "解码", Path: path, Kind: ErrDecode, Err: err}
}

// NewIOError 创建读写错误
func NewIOError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: ErrIO, Err: err}
}
