package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/db"
	"github.com/FabienTschanz/DSCParser/internal/config"
	"github.com/FabienTschanz/DSCParser/providers"
	"github.com/FabienTschanz/DSCParser/providers/catalog"
	"github.com/FabienTschanz/DSCParser/providers/mof"
	"github.com/FabienTschanz/DSCParser/providers/static"
)

// addSchemaFlags registers the schema source flags shared by convert and
// verify.
func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("schemas", nil, "Schema sources: MOF directories, .mof files, or JSON/YAML catalogs")
	cmd.Flags().Bool("catalog", false, "Also resolve schemas from the persistent catalog database")
}

// resolveSchemas builds the schema provider stack from flags. A nil
// provider means no sources were requested; conversion then degrades every
// resource to raw text. The returned closer releases the catalog
// connection when one was opened.
func resolveSchemas(cmd *cobra.Command, cfg *config.Config) (providers.SchemaProvider, func(), error) {
	paths, _ := cmd.Flags().GetStringSlice("schemas")
	useCatalog, _ := cmd.Flags().GetBool("catalog")

	closer := func() {}

	var loaded []*core.ResourceSchema
	for _, path := range paths {
		schemas, _, err := loadSchemaSource(path, "", "")
		if err != nil {
			return nil, closer, err
		}
		loaded = append(loaded, schemas...)
	}

	var stack []providers.SchemaProvider
	if len(loaded) > 0 {
		stack = append(stack, static.New(loaded...))
	}
	if useCatalog {
		gdb, err := db.Connect(cfg.CatalogDSN, cfg.DBDebug)
		if err != nil {
			return nil, closer, fmt.Errorf("open catalog %s: %w", cfg.CatalogDSN, err)
		}
		closer = func() { closeDB(gdb) }
		stack = append(stack, catalog.New(gdb))
	}

	switch len(stack) {
	case 0:
		return nil, closer, nil
	case 1:
		return stack[0], closer, nil
	}
	return providers.NewRegistry(stack...), closer, nil
}

// loadSchemaSource reads one schema source. Directories are scanned for
// *.schema.mof files, .mof files are parsed directly, .json/.yaml/.yml are
// catalog documents. The returned label feeds catalog provenance.
func loadSchemaSource(path, moduleName, moduleVersion string) ([]*core.ResourceSchema, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("schema source %s: %w", path, err)
	}

	if info.IsDir() {
		p := mof.NewProvider()
		if err := p.LoadDir(path, moduleName, moduleVersion); err != nil {
			return nil, "", err
		}
		return schemasOf(p), "mof", nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mof":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("schema source %s: %w", path, err)
		}
		schemas, err := mof.Parse(string(data))
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		for _, s := range schemas {
			s.ModuleName = moduleName
			s.ModuleVersion = moduleVersion
		}
		return schemas, "mof", nil
	case ".json":
		p, err := static.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return schemasOf(p), "json", nil
	case ".yaml", ".yml":
		p, err := static.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return schemasOf(p), "yaml", nil
	}
	return nil, "", fmt.Errorf("unsupported schema source %q (want a directory, .mof, .json, or .yaml)", path)
}

// schemasOf flattens every schema a provider serves.
func schemasOf(p providers.SchemaProvider) []*core.ResourceSchema {
	var out []*core.ResourceSchema
	for _, name := range p.Resources() {
		out = append(out, p.Lookup(name)...)
	}
	return out
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}
