package upload

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DiskStorage writes images into a local directory that the API serves
// under URLPrefix.
type DiskStorage struct {
	dir       string
	urlPrefix string
}

func NewDiskStorage(dir, urlPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStorage{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (d *DiskStorage) Dir() string { return d.dir }

func (d *DiskStorage) Save(_ context.Context, ext string, r io.Reader) (string, error) {
	name := fmt.Sprintf("image-%d-%d%s", time.Now().UnixMilli(), rand.Int63n(1e9), strings.ToLower(ext))

	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return d.urlPrefix + "/" + name, nil
}

// Delete removes an image previously returned by Save. URLs this storage
// did not produce are ignored.
func (d *DiskStorage) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, d.urlPrefix+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}
