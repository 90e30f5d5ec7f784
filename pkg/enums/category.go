package enums

import "slices"

// Category is the fixed publish taxonomy.
type Category string

const (
	CategoryMusic         Category = "Music"
	CategoryMovies        Category = "Movies"
	CategoryEntertainment Category = "Entertainment"
	CategorySports        Category = "Sports"
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryGaming        Category = "Gaming"
	CategoryNews          Category = "News"
	CategoryAnimals       Category = "Animals"
	CategoryEducation     Category = "Education"
	CategoryScience       Category = "Science"
	CategoryTechnology    Category = "Technology"
	CategoryProgramming   Category = "Programming"
	CategoryAI            Category = "AI"
	CategoryBlockchain    Category = "Blockchain"
	CategoryLifeStyle     Category = "LifeStyle"
	CategoryVehicles      Category = "Vehicles"
	CategoryChildren      Category = "Children"
	CategoryWomen         Category = "Women"
	CategoryMen           Category = "Men"
	CategoryOther         Category = "Other"
	CategoryNot           Category = "Not"
)

var validCategories = []Category{
	CategoryMusic,
	CategoryMovies,
	CategoryEntertainment,
	CategorySports,
	CategoryFood,
	CategoryTravel,
	CategoryGaming,
	CategoryNews,
	CategoryAnimals,
	CategoryEducation,
	CategoryScience,
	CategoryTechnology,
	CategoryProgramming,
	CategoryAI,
	CategoryBlockchain,
	CategoryLifeStyle,
	CategoryVehicles,
	CategoryChildren,
	CategoryWomen,
	CategoryMen,
	CategoryOther,
	CategoryNot,
}

// IsValid reports whether the value matches a known category.
func (v Category) IsValid() bool {
	return slices.Contains(validCategories, v)
}

// ParseCategory converts raw input into Category.
func ParseCategory(value string) (Category, error) {
	return parse(validCategories, "category", value)
}
