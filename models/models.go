// Package models defines the persistent records of the schema catalog.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResourceSchema is one catalog entry: a resource type as declared by one
// module version.
type ResourceSchema struct {
	ID uint `gorm:"primaryKey"`

	// Identity. NameKey holds the lower-cased resource name so lookups are
	// case-insensitive while the original spelling stays presentable.
	ResourceName  string `gorm:"type:varchar(255);not null"`
	NameKey       string `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_schema_identity"`
	ModuleName    string `gorm:"type:varchar(255);uniqueIndex:idx_schema_identity"`
	ModuleVersion string `gorm:"type:varchar(50);uniqueIndex:idx_schema_identity"`

	// Provenance
	Source    string    `gorm:"type:varchar(20)"` // mof, json, yaml, static
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	// Relationships
	Properties []SchemaProperty `gorm:"foreignKey:SchemaID;constraint:OnDelete:CASCADE"`
}

// SchemaProperty is one property declaration belonging to a catalog entry.
type SchemaProperty struct {
	ID       uint `gorm:"primaryKey"`
	SchemaID uint `gorm:"not null;index"`

	Name         string `gorm:"type:varchar(255);not null"`
	DeclaredType string `gorm:"type:varchar(255)"` // bracketed form: [String], [MSFT_Credential[]]
	Mandatory    bool   `gorm:"default:false"`

	// AllowedValues is a JSON string array; empty means unrestricted.
	AllowedValues datatypes.JSON `gorm:"type:jsonb"`
}

// TableName customizations for cleaner names
func (ResourceSchema) TableName() string { return "resource_schemas" }
func (SchemaProperty) TableName() string { return "schema_properties" }
