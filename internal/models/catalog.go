package models

// Tag is a reference entity recipes can be labelled with.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

// Ingredient is a reference entity. Recipes refer to it through RecipeIngredient.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:80;uniqueIndex;not null" json:"name"`
	MeasurementUnit string `gorm:"size:30;not null" json:"measurement_unit"`
}
