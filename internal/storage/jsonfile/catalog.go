// Package jsonfile persists the hotel catalog and the user register as JSON
// files, the formats the service ships with. Writes go through a temp file
// and rename so a crashed save never leaves a torn catalog behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devpablofiz/Hotelier/internal/domain"
)

type Catalog struct {
	path string
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Load reads the full catalog including each hotel's review history.
func (c *Catalog) Load(ctx context.Context) ([]*domain.Hotel, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", c.path, err)
	}
	var hotels []*domain.Hotel
	if err := json.Unmarshal(b, &hotels); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", c.path, err)
	}
	return hotels, nil
}

func (c *Catalog) Save(ctx context.Context, hotels []*domain.Hotel) error {
	b, err := json.MarshalIndent(hotels, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return atomicWrite(c.path, b)
}

// atomicWrite lands the payload via temp file + rename in the target dir.
func atomicWrite(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
