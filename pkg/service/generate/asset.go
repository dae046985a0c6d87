package generate

import (
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// Asset is a generated file kept on disk until the caller releases it
type Asset struct {
	Path     string
	MIMEType string
	Size     int64
}

func (c *Client) writeAsset(r io.Reader, mimeType, pattern string) (*Asset, error) {
	f, err := os.CreateTemp(c.tempDir, pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create asset file", goerr.V("dir", c.tempDir))
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, goerr.Wrap(err, "failed to write asset file", goerr.V("path", f.Name()))
	}

	return &Asset{Path: f.Name(), MIMEType: mimeType, Size: n}, nil
}

// Open opens the asset for reading
func (x *Asset) Open() (io.ReadCloser, error) {
	f, err := os.Open(x.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open asset", goerr.V("path", x.Path))
	}
	return f, nil
}

// SaveTo moves the asset to path. The asset points at path afterwards.
func (x *Asset) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
		}
	}

	if err := os.Rename(x.Path, path); err == nil {
		x.Path = path
		return nil
	}

	// rename fails across file systems
	if err := copyFile(x.Path, path); err != nil {
		return err
	}
	_ = os.Remove(x.Path)
	x.Path = path
	return nil
}

// Release removes the backing file
func (x *Asset) Release() error {
	if err := os.Remove(x.Path); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to remove asset", goerr.V("path", x.Path))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open asset", goerr.V("path", src))
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return goerr.Wrap(err, "failed to create output file", goerr.V("path", dst))
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to copy asset", goerr.V("path", dst))
	}
	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "failed to close output file", goerr.V("path", dst))
	}
	return nil
}
