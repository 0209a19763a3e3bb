// Package catalog provides the database-backed schema source. Schemas are
// imported once, from MOF files or JSON/YAML catalogs, and later
// conversions resolve them from the store.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/models"
	"github.com/FabienTschanz/DSCParser/providers"
)

// Provider resolves schemas from an open catalog database.
type Provider struct {
	db *gorm.DB
}

var _ providers.SchemaProvider = (*Provider)(nil)

// New wraps a catalog database handle, usually from db.Connect.
func New(db *gorm.DB) *Provider {
	return &Provider{db: db}
}

// Name identifies the provider.
func (p *Provider) Name() string { return "catalog" }

// Lookup loads every stored entry for the resource name, across modules and
// versions. Store errors degrade to a miss; resolution treats them like an
// absent schema.
func (p *Provider) Lookup(resourceName string) []*core.ResourceSchema {
	var rows []models.ResourceSchema
	err := p.db.Preload("Properties").
		Where("name_key = ?", strings.ToLower(resourceName)).
		Order("module_name, module_version").
		Find(&rows).Error
	if err != nil {
		return nil
	}
	out := make([]*core.ResourceSchema, 0, len(rows))
	for i := range rows {
		out = append(out, toCore(&rows[i]))
	}
	return out
}

// Resources lists distinct stored resource names in lexical order.
func (p *Provider) Resources() []string {
	var names []string
	p.db.Model(&models.ResourceSchema{}).
		Distinct("resource_name").
		Order("resource_name").
		Pluck("resource_name", &names)
	return names
}

// Entries returns all stored rows, for listings.
func (p *Provider) Entries() ([]models.ResourceSchema, error) {
	var rows []models.ResourceSchema
	err := p.db.Preload("Properties").
		Order("name_key, module_name, module_version").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return rows, nil
}

// Import writes schemas into the store. An entry with the same identity
// (name, module, version) is replaced wholesale, properties included, so
// re-importing a module is idempotent.
func (p *Provider) Import(source string, schemas ...*core.ResourceSchema) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		for _, s := range schemas {
			if s == nil || s.ResourceName == "" {
				continue
			}
			row, err := toModel(s, source)
			if err != nil {
				return err
			}

			var existing models.ResourceSchema
			err = tx.Where("name_key = ? AND module_name = ? AND module_version = ?",
				row.NameKey, row.ModuleName, row.ModuleVersion).First(&existing).Error
			switch {
			case err == nil:
				if err := tx.Where("schema_id = ?", existing.ID).Delete(&models.SchemaProperty{}).Error; err != nil {
					return fmt.Errorf("replace %s: %w", s.ResourceName, err)
				}
				if err := tx.Delete(&existing).Error; err != nil {
					return fmt.Errorf("replace %s: %w", s.ResourceName, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return fmt.Errorf("import %s: %w", s.ResourceName, err)
			}

			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("import %s: %w", s.ResourceName, err)
			}
		}
		return nil
	})
}

func toModel(s *core.ResourceSchema, source string) (*models.ResourceSchema, error) {
	row := &models.ResourceSchema{
		ResourceName:  s.ResourceName,
		NameKey:       strings.ToLower(s.ResourceName),
		ModuleName:    s.ModuleName,
		ModuleVersion: s.ModuleVersion,
		Source:        source,
	}
	for _, prop := range s.Properties {
		mp := models.SchemaProperty{
			Name:         prop.Name,
			DeclaredType: prop.Type.String(),
			Mandatory:    prop.Mandatory,
		}
		if len(prop.AllowedValues) > 0 {
			data, err := json.Marshal(prop.AllowedValues)
			if err != nil {
				return nil, fmt.Errorf("encode allowed values of %s.%s: %w", s.ResourceName, prop.Name, err)
			}
			mp.AllowedValues = datatypes.JSON(data)
		}
		row.Properties = append(row.Properties, mp)
	}
	return row, nil
}

func toCore(row *models.ResourceSchema) *core.ResourceSchema {
	s := &core.ResourceSchema{
		ResourceName:  row.ResourceName,
		ModuleName:    row.ModuleName,
		ModuleVersion: row.ModuleVersion,
	}
	for _, mp := range row.Properties {
		prop := core.PropertySchema{
			Name:      mp.Name,
			Type:      core.ParseTypeTag(mp.DeclaredType),
			Mandatory: mp.Mandatory,
		}
		if len(mp.AllowedValues) > 0 {
			// Rows written by Import always hold a valid string array.
			_ = json.Unmarshal(mp.AllowedValues, &prop.AllowedValues)
		}
		s.Properties = append(s.Properties, prop)
	}
	return s
}
