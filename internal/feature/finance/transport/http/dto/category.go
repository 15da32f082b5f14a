// Package dto defines data transfer objects for the finance HTTP API.
package dto

// CategoryItem represents a category in the API response.
type CategoryItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}
