package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// LogRotator 按大小轮转的日志文件，LOG_FILE 设置时作为 logrus 输出
// 只保留一个备份 <file>.old
type LogRotator struct {
	mu       sync.Mutex
	path     string
	maxBytes int64 // <=0 不轮转
	file     *os.File
	size     int64
}

var _ io.WriteCloser = (*LogRotator)(nil)

// NewLogRotator maxSizeMB 为单个文件的上限
func NewLogRotator(path string, maxSizeMB int) (*LogRotator, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	r := &LogRotator{path: path, maxBytes: int64(maxSizeMB) << 20}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *LogRotator) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.file, r.size = f, info.Size()
	return nil
}

func (r *LogRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}
	// 空文件不轮转，单条超大日志直接写入
	if r.maxBytes > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
			if r.file == nil {
				return 0, err
			}
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *LogRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	r.file = nil

	backup := r.path + ".old"
	_ = os.Remove(backup)
	if err := os.Rename(r.path, backup); err != nil {
		// 重命名失败时继续追加到原文件
		if openErr := r.open(); openErr != nil {
			return openErr
		}
		return err
	}
	return r.open()
}

func (r *LogRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
