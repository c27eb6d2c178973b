package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Store menyimpan keranjang di device client antar reload.
type Store interface {
	Load() (*Cart, error)
	Save(c *Cart) error
	Clear() error
}

// FileStore menyimpan keranjang sebagai array JSON dalam satu file.
type FileStore struct {
	Path   string
	Logger logrus.FieldLogger
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, Logger: logrus.StandardLogger()}
}

// Load mengembalikan keranjang kosong jika file tidak ada atau rusak.
func (s *FileStore) Load() (*Cart, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.Logger.WithError(err).WithField("path", s.Path).Warn("Failed to parse cart from local storage")
		return New(), nil
	}
	return &Cart{items: items}, nil
}

func (s *FileStore) Save(c *Cart) error {
	items := c.Items()
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Clear() error {
	return s.Save(New())
}
