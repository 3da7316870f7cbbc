package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// TokenStore 持久化登录令牌
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type tokenFile struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileTokenStore 将令牌保存在 YAML 文件中，权限 0600
type FileTokenStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewFileTokenStore 创建文件令牌存储
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path, now: time.Now}
}

// Path 文件路径
func (f *FileTokenStore) Path() string { return f.path }

// Load 文件不存在时返回空令牌
func (f *FileTokenStore) Load() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	var tf tokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse session file %s: %w", f.path, err)
	}
	return tf.Token, nil
}

func (f *FileTokenStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(tokenFile{Token: token, SavedAt: f.now().UTC()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileTokenStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryTokenStore 进程内令牌存储
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}
