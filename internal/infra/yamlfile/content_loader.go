package yamlfile

import (
	"context"
	"fmt"
	"os"

	"photosynthesis-lab/internal/domain"

	"gopkg.in/yaml.v3"
)

type document struct {
	Contents []domain.Content `yaml:"contents"`
}

// ContentLoader reads lab content from a YAML file. The file is read on
// every load; put a cached repository in front of it.
type ContentLoader struct {
	path string
}

func NewContentLoader(path string) *ContentLoader {
	return &ContentLoader{path: path}
}

func (l *ContentLoader) LoadContent(_ context.Context, contentID string) (domain.Content, error) {
	contents, err := l.LoadAll()
	if err != nil {
		return domain.Content{}, err
	}
	for _, c := range contents {
		if c.ID == contentID {
			return c, nil
		}
	}
	return domain.Content{}, domain.ErrContentNotFound
}

// LoadAll returns every content document in the file.
func (l *ContentLoader) LoadAll() ([]domain.Content, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", l.path, err)
	}
	return doc.Contents, nil
}
