package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vango-dev/storefront/internal/errors"
)

// File keeps every key in one JSON object on disk. Writes go to a
// temporary file that is renamed over the original.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a File store at path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// escapeKey makes key usable as a literal gjson/sjson path.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (f *File) read() ([]byte, error) {
	doc, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, errors.New("E202").WithDetail(f.path).Wrap(err)
	}
	if len(strings.TrimSpace(string(doc))) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("E202").WithDetail(f.path).WithMessagef("storage file %s is not valid JSON", f.path)
	}
	return doc, nil
}

func (f *File) write(doc []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("E201").WithDetail(f.path).Wrap(err)
	}
	tmp, err := os.CreateTemp(dir, ".storefront-*.json")
	if err != nil {
		return errors.New("E201").WithDetail(f.path).Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return errors.New("E201").WithDetail(f.path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New("E201").WithDetail(f.path).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.New("E201").WithDetail(f.path).Wrap(err)
	}
	return nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, false, err
	}
	res := gjson.GetBytes(doc, escapeKey(key))
	if !res.Exists() {
		return nil, false, nil
	}
	return []byte(res.String()), true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc, err = sjson.SetBytes(doc, escapeKey(key), string(value))
	if err != nil {
		return errors.New("E201").WithDetail(key).Wrap(err)
	}
	return f.write(doc)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if !gjson.GetBytes(doc, escapeKey(key)).Exists() {
		return nil
	}
	doc, err = sjson.DeleteBytes(doc, escapeKey(key))
	if err != nil {
		return errors.New("E201").WithDetail(key).Wrap(err)
	}
	return f.write(doc)
}
