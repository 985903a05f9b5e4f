// Package fileutil 负责输出文件命名与复制
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kicky/internal/types"
)

// FileExists 判断路径是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NoteFileName 在扩展名前插入 " (<note>)"，如 kick01.wav -> kick01 (C#).wav
func NoteFileName(name, note string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%s)%s", stem, note, ext)
}

// SuffixFileName 在扩展名前追加序号，如 kick01 (C).wav -> kick01 (C) 2.wav
func SuffixFileName(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s %d%s", stem, n, ext)
}

// ResolveOutputPath 按重名策略确定输出路径
//
// taken 判断某个路径是否已被占用，为 nil 时仅检查文件系统。
func ResolveOutputPath(dir, name string, policy types.CollisionPolicy, taken func(string) bool) (string, error) {
	if taken == nil {
		taken = FileExists
	}

	path := filepath.Join(dir, name)
	switch policy {
	case types.CollisionError:
		if taken(path) {
			return "", &types.FileError{Op: "写入", Path: path, Kind: types.ErrCollision}
		}
		return path, nil
	case types.CollisionSuffix:
		for n := 2; taken(path); n++ {
			path = filepath.Join(dir, SuffixFileName(name, n))
		}
		return path, nil
	default:
		return path, nil
	}
}

// CopyFile 将 src 原样复制到 dst，已存在的 dst 会被替换
//
// 先写入同目录下的临时文件再重命名，失败时不会留下不完整的输出。
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return types.NewIOError("读取", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".kicky-*.tmp")
	if err != nil {
		return types.NewIOError("创建临时文件", filepath.Dir(dst), err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return types.NewIOError("复制", src, err)
	}
	if err = tmp.Sync(); err != nil {
		return types.NewIOError("写入", dst, err)
	}
	if err = tmp.Close(); err != nil {
		return types.NewIOError("写入", dst, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return types.NewIOError("写入", dst, err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return types.NewIOError("写入", dst, err)
	}
	return nil
}
