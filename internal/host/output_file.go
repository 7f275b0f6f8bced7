package host

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// FileOutputHandler overwrites a PNG file with the latest frame.
type FileOutputHandler struct {
	filePath string
}

func NewFileOutputHandler(filePath string) *FileOutputHandler {
	return &FileOutputHandler{
		filePath: filePath,
	}
}

func (f *FileOutputHandler) GetType() string {
	return "file"
}

// Output writes to a temporary file first so readers never see a partial PNG.
func (f *FileOutputHandler) Output(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.filePath), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.filePath)
}

func (f *FileOutputHandler) Close() error {
	return nil
}
