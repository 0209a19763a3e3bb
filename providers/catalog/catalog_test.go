package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/db"
)

func setupProvider(t *testing.T) *Provider {
	t.Helper()
	conn, err := db.Connect(":memory:", false)
	require.NoError(t, err)
	return New(conn)
}

func registrySchema() *core.ResourceSchema {
	return &core.ResourceSchema{
		ResourceName:  "xRegistry",
		ModuleName:    "xPSDesiredStateConfiguration",
		ModuleVersion: "9.1.0",
		Properties: []core.PropertySchema{
			{Name: "Key", Type: core.ParseTypeTag("[String]"), Mandatory: true},
			{Name: "Ensure", Type: core.ParseTypeTag("[String]"), AllowedValues: []string{"Present", "Absent"}},
			{Name: "ValueData", Type: core.ParseTypeTag("[String[]]")},
			{Name: "Credential", Type: core.ParseTypeTag("[MSFT_Credential]")},
		},
	}
}

func TestImportAndLookup(t *testing.T) {
	p := setupProvider(t)
	require.NoError(t, p.Import("mof", registrySchema()))

	got := p.Lookup("XREGISTRY")
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "xRegistry", s.ResourceName)
	assert.Equal(t, "9.1.0", s.ModuleVersion)

	key := s.Property("Key")
	require.NotNil(t, key)
	assert.True(t, key.Mandatory)
	assert.Equal(t, core.TagString, key.Type.Kind)

	ensure := s.Property("Ensure")
	require.NotNil(t, ensure)
	assert.Equal(t, []string{"Present", "Absent"}, ensure.AllowedValues)

	cred := s.Property("Credential")
	require.NotNil(t, cred)
	assert.Equal(t, core.TagInstance, cred.Type.Kind)
	assert.Equal(t, "MSFT_Credential", cred.Type.Name)
}

func TestImportReplacesSameIdentity(t *testing.T) {
	p := setupProvider(t)
	require.NoError(t, p.Import("mof", registrySchema()))

	updated := registrySchema()
	updated.Properties = updated.Properties[:2]
	require.NoError(t, p.Import("mof", updated))

	got := p.Lookup("xRegistry")
	require.Len(t, got, 1, "reimport must replace, not duplicate")
	assert.Len(t, got[0].Properties, 2)
}

func TestImportKeepsDistinctVersions(t *testing.T) {
	p := setupProvider(t)
	require.NoError(t, p.Import("mof", registrySchema()))

	next := registrySchema()
	next.ModuleVersion = "10.0.0"
	require.NoError(t, p.Import("mof", next))

	got := p.Lookup("xRegistry")
	require.Len(t, got, 2)
	versions := []string{got[0].ModuleVersion, got[1].ModuleVersion}
	assert.ElementsMatch(t, []string{"9.1.0", "10.0.0"}, versions)
}

func TestResourcesListing(t *testing.T) {
	p := setupProvider(t)
	require.NoError(t, p.Import("json",
		registrySchema(),
		&core.ResourceSchema{ResourceName: "File", ModuleName: "PSDesiredStateConfiguration"},
	))

	assert.Equal(t, []string{"File", "xRegistry"}, p.Resources())

	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "json", entries[0].Source)
}

func TestLookupMissIsEmpty(t *testing.T) {
	p := setupProvider(t)
	assert.Empty(t, p.Lookup("xNothing"))
}
