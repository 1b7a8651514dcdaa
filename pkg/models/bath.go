package models

import "time"

// Country is a top-level geographic grouping for baths.
type Country struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code"`
}

// Region belongs to a country and groups baths for the new-region bonus.
type Region struct {
	ID        int64  `json:"id"`
	CountryID *int64 `json:"countryId"`
	Name      string `json:"name"`
}

// Bath is a bathhouse that visits reference. A merged bath keeps its
// row with CanonicalID pointing at the bath it was merged into;
// existing visits keep scoring by their own bath id unless explicitly
// repointed.
type Bath struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Aliases     []string  `json:"aliases"`
	CountryID   *int64    `json:"countryId"`
	RegionID    *int64    `json:"regionId"`
	City        *string   `json:"city"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	IsArchived  bool      `json:"isArchived"`
	CanonicalID *int64    `json:"canonicalId"`
	CreatedAt   time.Time `json:"createdAt"`
}
