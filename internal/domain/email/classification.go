package email

// Uncategorized is what the classifier answers when no category fits.
const Uncategorized = "Uncategorized"

type Classification struct {
	CategoryName string
	Summary      string
}

func NewClassification(categoryName, summary string) *Classification {
	return &Classification{
		CategoryName: categoryName,
		Summary:      summary,
	}
}

// Match returns the category whose name equals the classified name,
// ignoring case, or nil.
func (c *Classification) Match(categories []*Category) *Category {
	for _, cat := range categories {
		if cat.NameEquals(c.CategoryName) {
			return cat
		}
	}
	return nil
}
