package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ResourceSchema{}, &SchemaProperty{}))
	return db
}

func TestResourceSchemaTableName(t *testing.T) {
	assert.Equal(t, "resource_schemas", ResourceSchema{}.TableName())
}

func TestSchemaPropertyTableName(t *testing.T) {
	assert.Equal(t, "schema_properties", SchemaProperty{}.TableName())
}

func TestResourceSchemaRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	entry := &ResourceSchema{
		ResourceName:  "xRegistry",
		NameKey:       "xregistry",
		ModuleName:    "xPSDesiredStateConfiguration",
		ModuleVersion: "9.1.0",
		Source:        "mof",
		Properties: []SchemaProperty{
			{Name: "Key", DeclaredType: "[String]", Mandatory: true},
			{Name: "Ensure", DeclaredType: "[String]", AllowedValues: datatypes.JSON(`["Present","Absent"]`)},
			{Name: "ValueData", DeclaredType: "[String[]]"},
		},
	}
	require.NoError(t, db.Create(entry).Error)
	assert.NotZero(t, entry.ID)

	var got ResourceSchema
	err := db.Preload("Properties").Where("name_key = ?", "xregistry").First(&got).Error
	require.NoError(t, err)
	assert.Equal(t, "xRegistry", got.ResourceName)
	assert.Equal(t, "9.1.0", got.ModuleVersion)
	require.Len(t, got.Properties, 3)
	assert.True(t, got.Properties[0].Mandatory)
	assert.JSONEq(t, `["Present","Absent"]`, string(got.Properties[1].AllowedValues))
}

func TestResourceSchemaIdentityUnique(t *testing.T) {
	db := setupTestDB(t)

	first := &ResourceSchema{
		ResourceName: "File", NameKey: "file",
		ModuleName: "PSDesiredStateConfiguration", ModuleVersion: "1.1",
	}
	require.NoError(t, db.Create(first).Error)

	dup := &ResourceSchema{
		ResourceName: "FILE", NameKey: "file",
		ModuleName: "PSDesiredStateConfiguration", ModuleVersion: "1.1",
	}
	assert.Error(t, db.Create(dup).Error, "same identity must not insert twice")

	other := &ResourceSchema{
		ResourceName: "File", NameKey: "file",
		ModuleName: "PSDesiredStateConfiguration", ModuleVersion: "2.0",
	}
	assert.NoError(t, db.Create(other).Error, "a new version is a new entry")
}

func TestSchemaPropertyBelongsToSchema(t *testing.T) {
	db := setupTestDB(t)

	entry := &ResourceSchema{ResourceName: "Service", NameKey: "service"}
	require.NoError(t, db.Create(entry).Error)
	require.NoError(t, db.Create(&SchemaProperty{
		SchemaID: entry.ID, Name: "Name", DeclaredType: "[String]", Mandatory: true,
	}).Error)

	var count int64
	db.Model(&SchemaProperty{}).Where("schema_id = ?", entry.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}
