package crawler

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// WriteCrawlReport writes the run summary, including per-page outcomes, as YAML
func WriteCrawlReport(path string, summary *models.CrawlSummary) error {
	yamlData, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal crawl report to YAML: %w", utils.ErrStoreSave, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for '%s': %w", utils.ErrStoreSave, path, err)
	}
	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("%w: failed to write crawl report '%s': %w", utils.ErrStoreSave, path, err)
	}
	return nil
}

// ReadCrawlReport loads a report written by WriteCrawlReport
func ReadCrawlReport(path string) (*models.CrawlSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading crawl report '%s': %w", utils.ErrStoreLoad, path, err)
	}
	var summary models.CrawlSummary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("%w: parsing crawl report '%s': %w", utils.ErrStoreLoad, path, err)
	}
	return &summary, nil
}
