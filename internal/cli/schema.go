package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/FabienTschanz/DSCParser/db"
	"github.com/FabienTschanz/DSCParser/internal/config"
	"github.com/FabienTschanz/DSCParser/internal/util"
	"github.com/FabienTschanz/DSCParser/providers/catalog"
)

// SchemaCmd groups the catalog maintenance commands.
func SchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Maintain the schema catalog",
	}
	cmd.PersistentFlags().String("dsn", "", "Catalog database, file path or libsql URL (default $DSCPARSER_CATALOG_DSN)")
	cmd.AddCommand(SchemaImportCmd(), SchemaListCmd())
	return cmd
}

// openCatalog connects to the catalog named by --dsn, falling back to the
// configured default. The returned handle must be closed via closeDB.
func openCatalog(cmd *cobra.Command, cfg *config.Config) (*catalog.Provider, *gorm.DB, error) {
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = cfg.CatalogDSN
	}
	gdb, err := db.Connect(dsn, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	return catalog.New(gdb), gdb, nil
}

// SchemaImportCmd loads schema definitions into the catalog.
func SchemaImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <source ...>",
		Short: "Import resource schemas into the catalog",
		Long: `Import reads schema definitions from MOF files or directories, or from
JSON/YAML catalog files, and stores them in the catalog database.
Re-importing a schema with the same module identity replaces the stored
entry, properties included.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := toolConfig()
			moduleName, _ := cmd.Flags().GetString("module")
			moduleVersion, _ := cmd.Flags().GetString("module-version")

			cat, gdb, err := openCatalog(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			out := cmd.OutOrStdout()
			total := 0
			for _, arg := range util.ExpandGlobs(args) {
				schemas, kind, err := loadSchemaSource(arg, moduleName, moduleVersion)
				if err != nil {
					return err
				}
				if len(schemas) == 0 {
					fmt.Fprintf(out, "%s %s: no schemas found\n", yellow("!"), arg)
					continue
				}
				if err := cat.Import(arg, schemas...); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s: imported %s (%s)\n", green("✓"), arg, plural(len(schemas), "resource schema"), kind)
				total += len(schemas)
			}
			slog.Info("catalog import finished", "schemas", total)
			return nil
		},
	}
	cmd.Flags().String("module", "", "Module name stamped on imported MOF schemas")
	cmd.Flags().String("module-version", "", "Module version stamped on imported MOF schemas")
	return cmd
}

// SchemaListCmd prints catalog entries, or the properties of one resource.
func SchemaListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [resource]",
		Short: "List catalog entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := toolConfig()
			cat, gdb, err := openCatalog(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			if len(args) == 1 {
				return listProperties(cmd.OutOrStdout(), cat, args[0])
			}
			return listEntries(cmd.OutOrStdout(), cat)
		},
	}
	return cmd
}

func newTable(w io.Writer, headers ...any) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})))
	table.Header(headers...)
	return table
}

func listEntries(w io.Writer, cat *catalog.Provider) error {
	rows, err := cat.Entries()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, yellow("catalog is empty"))
		return nil
	}

	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		data = append(data, []string{
			row.ResourceName,
			row.ModuleName,
			row.ModuleVersion,
			fmt.Sprintf("%d", len(row.Properties)),
			row.Source,
		})
	}

	table := newTable(w, "Resource", "Module", "Version", "Properties", "Source")
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("format catalog listing: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render catalog listing: %w", err)
	}
	return nil
}

func listProperties(w io.Writer, cat *catalog.Provider, resource string) error {
	schemas := cat.Lookup(resource)
	if len(schemas) == 0 {
		fmt.Fprintf(w, "%s no catalog entry for %s\n", yellow("!"), resource)
		return nil
	}

	for _, s := range schemas {
		ident := s.ResourceName
		if s.ModuleName != "" {
			ident = fmt.Sprintf("%s (%s %s)", s.ResourceName, s.ModuleName, s.ModuleVersion)
		}
		fmt.Fprintln(w, bold(ident))

		data := make([][]string, 0, len(s.Properties))
		for _, p := range s.Properties {
			mandatory := ""
			if p.Mandatory {
				mandatory = "yes"
			}
			data = append(data, []string{
				p.Name,
				p.Type.String(),
				mandatory,
				strings.Join(p.AllowedValues, ", "),
			})
		}

		table := newTable(w, "Property", "Type", "Mandatory", "Allowed values")
		if err := table.Bulk(data); err != nil {
			return fmt.Errorf("format %s properties: %w", s.ResourceName, err)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render %s properties: %w", s.ResourceName, err)
		}
	}
	return nil
}
