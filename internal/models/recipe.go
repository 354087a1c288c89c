package models

import (
	"time"
)

const (
	MinAmount      = 1
	MaxAmount      = 32000
	MinCookingTime = 1
	MaxCookingTime = 32000
)

// Ingredient names are not unique; two rows may share name and unit.
type Ingredient struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"size:128;not null;index"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:64;not null"`
}

type Recipe struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AuthorID    uint      `json:"author_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:256;not null"`
	Image       string    `json:"image" gorm:"size:512;not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null"`
	PubDate     time.Time `json:"pub_date" gorm:"not null;index;autoCreateTime"`
	ShortLink   string    `json:"short_link" gorm:"size:32;uniqueIndex;not null"`
	UpdatedAt   time.Time `json:"-"`

	Author      User               `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type RecipeIngredient struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	RecipeID     uint `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint `json:"ingredient_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int  `json:"amount" gorm:"not null"`

	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint      `json:"recipe_id" gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type ShoppingCart struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint      `json:"recipe_id" gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

func (Recipe) TableName() string {
	return "recipes"
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (Favorite) TableName() string {
	return "favorites"
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}
