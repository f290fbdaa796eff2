package types

type CategoryId uint

// CategoryType partitions categories into independent trees. Trees never mix
// types; every child shares its parent's type.
type CategoryType string

const (
	CategoryFanType           CategoryType = "FAN_TYPE"
	CategorySpace             CategoryType = "SPACE"
	CategoryPurpose           CategoryType = "PURPOSE"
	CategoryTechnology        CategoryType = "TECHNOLOGY"
	CategoryPriceRange        CategoryType = "PRICE_RANGE"
	CategoryCustomerType      CategoryType = "CUSTOMER_TYPE"
	CategoryStatus            CategoryType = "STATUS"
	CategoryAccessoryType     CategoryType = "ACCESSORY_TYPE"
	CategoryAccessoryFunction CategoryType = "ACCESSORY_FUNCTION"
)

var AllCategoryTypes = []CategoryType{
	CategoryFanType,
	CategorySpace,
	CategoryPurpose,
	CategoryTechnology,
	CategoryPriceRange,
	CategoryCustomerType,
	CategoryStatus,
	CategoryAccessoryType,
	CategoryAccessoryFunction,
}

func (t CategoryType) IsAccessory() bool {
	return t == CategoryAccessoryType || t == CategoryAccessoryFunction
}

func (t CategoryType) Valid() bool {
	for _, known := range AllCategoryTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Category struct {
	Id           CategoryId   `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug,omitempty"`
	Type         CategoryType `json:"categoryType"`
	ParentId     *CategoryId  `json:"parentId,omitempty"`
	DisplayOrder int          `json:"displayOrder"`
	IsActive     bool         `json:"isActive"`
	Children     []*Category  `json:"children,omitempty"`
}

func (c *Category) IsRoot() bool {
	return c.ParentId == nil
}
