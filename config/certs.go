package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/reviewq/internal/reviewapi"
)

// CertsFile is the certification cache file name inside the data directory.
const CertsFile = "certs.yaml"

// ErrNoCertCache is returned by [LoadCerts] before the first refresh.
var ErrNoCertCache = errors.New("no cached certifications")

// CertCache is the locally cached list of projects the reviewer is
// certified for.
type CertCache struct {
	FetchedAt time.Time                 `yaml:"fetched_at"`
	Projects  []reviewapi.Certification `yaml:"projects"`
}

// IDs returns the cached project ids in ascending order.
func (c *CertCache) IDs() []int {
	ids := make([]int, len(c.Projects))
	for i, p := range c.Projects {
		ids[i] = p.ProjectID
	}
	sort.Ints(ids)
	return ids
}

// Name returns the cached project name for id, or "" if unknown.
func (c *CertCache) Name(id int) string {
	for _, p := range c.Projects {
		if p.ProjectID == id {
			return p.ProjectName
		}
	}
	return ""
}

// LoadCerts reads the certification cache from dir.
func LoadCerts(dir string) (*CertCache, error) {
	data, err := os.ReadFile(filepath.Join(dir, CertsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCertCache
	}
	if err != nil {
		return nil, fmt.Errorf("reading certification cache: %w", err)
	}

	var c CertCache
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing certification cache: %w", err)
	}
	return &c, nil
}

// SaveCerts writes c to the certification cache in dir.
func SaveCerts(dir string, c *CertCache) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding certification cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CertsFile), data, 0o600); err != nil {
		return fmt.Errorf("writing certification cache: %w", err)
	}
	return nil
}
