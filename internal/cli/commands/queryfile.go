package commands

import (
	"fmt"
	"os"

	"github.com/Framian/umami/pkg/core"
	"github.com/Framian/umami/pkg/filters"
	"gopkg.in/yaml.v3"
)

// QueryFile is a YAML (or JSON) document holding the filters, extra
// parameters and paging options for a template.
//
//	filters:
//	  websiteId: 3f2a...
//	  startDate: 2024-01-01T00:00:00Z
//	  browser: "!chrome"
//	  os: {operator: c, value: mac}
//	params:
//	  unit: day
//	options:
//	  pageSize: 10
//	  orderBy: created_at
type QueryFile struct {
	Filters map[string]any `yaml:"filters"`
	Params  map[string]any `yaml:"params"`
	Options FileOptions    `yaml:"options"`
}

// FileOptions mirrors core.QueryOptions.
type FileOptions struct {
	Page           int               `yaml:"page"`
	PageSize       *int              `yaml:"pageSize"`
	OrderBy        string            `yaml:"orderBy"`
	SortDescending bool              `yaml:"sortDescending"`
	Search         string            `yaml:"search"`
	JoinSession    bool              `yaml:"joinSession"`
	Prefix         string            `yaml:"prefix"`
	Columns        map[string]string `yaml:"columns"`
}

// LoadQueryFile reads path. An empty path yields an empty QueryFile.
func LoadQueryFile(path string) (*QueryFile, error) {
	qf := &QueryFile{}
	if path == "" {
		return qf, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters file: %w", err)
	}
	if err := yaml.Unmarshal(content, qf); err != nil {
		return nil, fmt.Errorf("failed to parse filters file %s: %w", path, err)
	}
	return qf, nil
}

// CoreFilters converts the file's filters. A mapping with an operator key
// becomes a core.Filter.
func (f *QueryFile) CoreFilters() core.Filters {
	return filters.FromMap(f.Filters)
}

// QueryOptions converts the file's options.
func (f *QueryFile) QueryOptions() core.QueryOptions {
	o := f.Options
	return core.QueryOptions{
		Page:           o.Page,
		PageSize:       o.PageSize,
		OrderBy:        o.OrderBy,
		SortDescending: o.SortDescending,
		Search:         o.Search,
		JoinSession:    o.JoinSession,
		Prefix:         o.Prefix,
		Columns:        o.Columns,
	}
}
