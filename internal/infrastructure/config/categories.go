package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	emailapp "mailsort/internal/application/email"
)

// DefaultCategories are seeded for a new user when no CATEGORIES_FILE is set.
var DefaultCategories = []emailapp.CategoryInput{
	{Name: "Newsletters", Description: "Periodic newsletters, digests and blog updates", Color: "#3b82f6"},
	{Name: "Promotions", Description: "Sales, discounts, coupons and marketing offers", Color: "#f59e0b"},
	{Name: "Receipts", Description: "Order confirmations, invoices, payment and shipping notices", Color: "#10b981"},
	{Name: "Personal", Description: "Messages written by a person to me directly", Color: "#8b5cf6"},
	{Name: "Notifications", Description: "Automated alerts from apps, services and social networks", Color: "#6b7280"},
}

type categoriesFile struct {
	Categories []emailapp.CategoryInput `yaml:"categories"`
}

// LoadCategories reads the seed categories from a YAML file of the form
//
//	categories:
//	  - name: Work
//	    description: Anything from colleagues
//	    color: "#ff0000"
//
// An empty path returns DefaultCategories.
func LoadCategories(path string) ([]emailapp.CategoryInput, error) {
	if path == "" {
		return DefaultCategories, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}

	for i, c := range f.Categories {
		if c.Name == "" || c.Description == "" {
			return nil, fmt.Errorf("category #%d: name and description are required", i+1)
		}
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s defines no categories", path)
	}

	return f.Categories, nil
}
