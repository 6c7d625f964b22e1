package sim

import "fmt"

// Category is one facies of a categorical variable.
type Category struct {
	Code  int
	Name  string
	Color string
}

// CategoryDefinition is an ordered set of categories with unique codes.
// It is shared by pointer; two definitions are the same only if they are the same
// instance.
type CategoryDefinition struct {
	name   string
	cats   []Category
	byCode map[int]int
}

// NewCategoryDefinition builds a definition from cats, in order.
func NewCategoryDefinition(name string, cats []Category) (*CategoryDefinition, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("category definition %q has no categories", name)
	}
	cd := &CategoryDefinition{
		name:   name,
		cats:   make([]Category, len(cats)),
		byCode: make(map[int]int, len(cats)),
	}
	copy(cd.cats, cats)
	for i, c := range cats {
		if prev, dup := cd.byCode[c.Code]; dup {
			return nil, fmt.Errorf("category definition %q: code %d used by %q and %q",
				name, c.Code, cats[prev].Name, c.Name)
		}
		cd.byCode[c.Code] = i
	}
	return cd, nil
}

// DefinitionName returns the name of the definition.
func (cd *CategoryDefinition) DefinitionName() string { return cd.name }

// Count is the number of categories.
func (cd *CategoryDefinition) Count() int { return len(cd.cats) }

// Code returns the code of the i-th category.
func (cd *CategoryDefinition) Code(i int) int { return cd.cats[i].Code }

// Name returns the name of the i-th category.
func (cd *CategoryDefinition) Name(i int) string { return cd.cats[i].Name }

// Category returns the i-th category.
func (cd *CategoryDefinition) Category(i int) Category { return cd.cats[i] }

// Index returns the position of code, or -1 when absent.
func (cd *CategoryDefinition) Index(code int) int {
	if i, ok := cd.byCode[code]; ok {
		return i
	}
	return -1
}

// CodeExists reports whether code belongs to the definition.
func (cd *CategoryDefinition) CodeExists(code int) bool {
	_, ok := cd.byCode[code]
	return ok
}

// CodeByName looks a category code up by name.
func (cd *CategoryDefinition) CodeByName(name string) (int, bool) {
	for _, c := range cd.cats {
		if c.Name == name {
			return c.Code, true
		}
	}
	return 0, false
}
