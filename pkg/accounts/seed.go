package accounts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedAccount is one chart entry in the YAML seed file. Parents must be
// listed before their children so the parent link resolves.
type seedAccount struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

// chartFile is the structure of the chart-of-accounts YAML file.
type chartFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

// SeedFromFile bootstraps a company's chart of accounts from a YAML file.
// Existing codes are left untouched. The company's cache is invalidated
// afterwards, since this is a bulk modification. Returns the number of
// accounts touched (existing or created).
func (d *Directory) SeedFromFile(companyID int64, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read chart file: %w", err)
	}

	var file chartFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse chart YAML: %w", err)
	}

	count := 0
	for _, entry := range file.Accounts {
		if entry.Code == "" || entry.Name == "" {
			return count, fmt.Errorf("chart entry missing code or name: %+v", entry)
		}
		if _, err := d.GetOrCreate(companyID, entry.Code, entry.Name, entry.Parent); err != nil {
			return count, fmt.Errorf("failed to seed account %q: %w", entry.Code, err)
		}
		count++
	}

	d.InvalidateCompany(companyID)
	return count, nil
}
