// Package storage persists matched face crops. Persistence is optional and
// pluggable; the pipeline only sees the CropStore interface.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	gocv "gocv.io/x/gocv"
)

// CropStore saves a face crop and returns the URL it can be fetched from.
type CropStore interface {
	SaveCrop(crop gocv.Mat) (string, error)
}

// DiskCropStore writes crops as JPEG files into a directory that is served
// statically. Filenames are randomized so concurrent requests cannot
// collide.
type DiskCropStore struct {
	dir       string
	urlPrefix string
}

// NewDiskCropStore creates the store and makes sure the directory exists.
func NewDiskCropStore(dir, urlPrefix string) (*DiskCropStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create crop directory: %w", err)
	}
	return &DiskCropStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// SaveCrop writes the crop to disk and returns its serving URL.
func (s *DiskCropStore) SaveCrop(crop gocv.Mat) (string, error) {
	if crop.Empty() {
		return "", fmt.Errorf("cannot save an empty crop")
	}

	name := uuid.NewString() + ".jpg"
	path := filepath.Join(s.dir, name)

	if ok := gocv.IMWrite(path, crop); !ok {
		return "", fmt.Errorf("failed to write crop to %s", path)
	}

	return s.urlPrefix + "/" + name, nil
}
