package lockx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName 是放在输出目录下的锁文件名。
const FileName = ".nftrenum.lock"

// ErrLocked 表示另一个进程正在写同一个输出目录。
var ErrLocked = errors.New("lockx: 输出目录已被其他进程锁定")

// Lock 是对某个输出目录的独占（advisory）锁。
type Lock struct {
	path string
	fl   *flock.Flock
}

// TryAcquire 在 dir 下创建并非阻塞地获取锁文件。
// 已被占用时返回的错误满足 errors.Is(err, ErrLocked)。
func TryAcquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取锁 %q 失败：%w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w：%s", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

func (l *Lock) Path() string { return l.path }

// Release 释放锁；锁文件本身保留（删除会与并发的 TryAcquire 产生竞态）。
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
