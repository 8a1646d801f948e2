package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-tileworld/internal/storage"
)

type StorageConfig struct {
	Regions AssetConfig[*storage.RegionSpec] `json:"regions"`
}

func (c *StorageConfig) validate() error {
	return c.Regions.validate("regions")
}

// buildRegionStore returns nil when no region path is configured.
func (c *StorageConfig) buildRegionStore() (*storage.FileStore[*storage.RegionSpec], error) {
	if c.Regions.Path == "" {
		return nil, nil
	}
	st, err := c.Regions.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating region store: %w", err)
	}
	slog.Info("region store loaded", "path", c.Regions.Path, "regions", st.Ids())
	return st, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

// validate accepts an empty path; the store is then not used.
func (c *AssetConfig[T]) validate(name string) error {
	if c.Path == "" {
		return nil
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
