package models

import "time"

// Hierarchy levels. The organization tree is four levels deep:
// ministry (1) -> regional office (2) -> sector office (3) -> school (4).
const (
	LevelMinistry = 1
	LevelRegion   = 2
	LevelSector   = 3
	LevelSchool   = 4
)

type Institution struct {
	ID              int        `db:"id" json:"id"`
	ParentID        *int       `db:"parent_id" json:"parent_id"`
	Level           int        `db:"level" json:"level"`
	Name            string     `db:"name" json:"name"`
	ShortName       string     `db:"short_name" json:"short_name"`
	Type            string     `db:"type" json:"type"`
	UTISCode        string     `db:"utis_code" json:"utis_code"`
	InstitutionCode string     `db:"institution_code" json:"institution_code"`
	RegionCode      string     `db:"region_code" json:"region_code"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	EstablishedDate *time.Time `db:"established_date" json:"established_date"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type InstitutionRequest struct {
	Name            string `json:"name" validate:"required"`
	ShortName       string `json:"short_name"`
	Type            string `json:"type"`
	ParentID        *int   `json:"parent_id"`
	Level           int    `json:"level"`
	UTISCode        string `json:"utis_code"`
	InstitutionCode string `json:"institution_code"`
	RegionCode      string `json:"region_code"`
	IsActive        bool   `json:"is_active"`
}
