package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Configuration Sample
{
    Import-DscResource -ModuleName PSDesiredStateConfiguration
    Node "localhost"
    {
        File "TestFile1"
        {
            DestinationPath = "C:\Temp\TestFile.txt"
            Ensure = "Present"
            Type = "File"
        }
    }
}`

const sampleDocRendered = "File \"TestFile1\"\n" +
	"{\n" +
	"    DestinationPath = \"C:\\Temp\\TestFile.txt\"\n" +
	"    Ensure          = \"Present\"\n" +
	"    Type            = \"File\"\n" +
	"}\n"

func writeSampleDocument(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.ps1")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))
	return path
}

func writeSampleCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "schemas.json")
	catalog := `{
  "resources": [
    {
      "name": "File",
      "module": "PSDesiredStateConfiguration",
      "version": "1.1",
      "properties": [
        {"name": "DestinationPath", "type": "[String]", "mandatory": true},
        {"name": "Ensure", "type": "[String]", "allowedValues": ["Present", "Absent"]},
        {"name": "Type", "type": "[String]"}
      ]
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))
	return path
}

func runCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := RootCmd()
	root.SetArgs(args)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != nil {
		root.SetIn(stdin)
	}
	err := root.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)

	out, err := runCommand(t, nil, "convert", doc, "--schemas", cat)
	require.NoError(t, err)
	assert.Contains(t, out, doc)
	assert.Contains(t, out, "1 instance")
}

func TestConvertCommandMissingTarget(t *testing.T) {
	_, err := runCommand(t, nil, "convert", filepath.Join(t.TempDir(), "absent.ps1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}

func TestConvertCommandStrict(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)

	out, err := runCommand(t, nil, "convert", doc, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 document failed to convert")
	assert.Contains(t, out, "File")
}

func TestConvertRenderPipe(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)

	tree, err := runCommand(t, nil, "convert", doc, "--schemas", cat, "--json")
	require.NoError(t, err)
	assert.Contains(t, tree, `"TestFile1"`)

	rendered, err := runCommand(t, strings.NewReader(tree), "render", "-")
	require.NoError(t, err)
	assert.Equal(t, sampleDocRendered, rendered)
}

func TestRenderCommandToFile(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)

	tree, err := runCommand(t, nil, "convert", doc, "--schemas", cat, "--json")
	require.NoError(t, err)
	treePath := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(treePath, []byte(tree), 0o644))

	target := filepath.Join(dir, "rendered.ps1")
	out, err := runCommand(t, nil, "render", treePath, "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 file")

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, sampleDocRendered, string(got))
}

func TestRenderCommandDryRun(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)

	tree, err := runCommand(t, nil, "convert", doc, "--schemas", cat, "--json")
	require.NoError(t, err)

	target := filepath.Join(dir, "rendered.ps1")
	out, err := runCommand(t, strings.NewReader(tree), "render", "-", "--out", target, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would write 1 file")
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "dry run must not write")
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)

	out, err := runCommand(t, nil, "verify", doc, "--schemas", cat)
	require.NoError(t, err)
	assert.Contains(t, out, "1 instance round-trip")
}

func TestSchemaImportAndList(t *testing.T) {
	dir := t.TempDir()
	cat := writeSampleCatalog(t, dir)
	dsn := filepath.Join(dir, "catalog.db")

	out, err := runCommand(t, nil, "schema", "import", cat, "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "1 resource schema")

	listed, err := runCommand(t, nil, "schema", "list", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, listed, "File")
	assert.Contains(t, listed, "PSDesiredStateConfiguration")

	props, err := runCommand(t, nil, "schema", "list", "File", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, props, "DestinationPath")
	assert.Contains(t, props, "Present, Absent")
}

func TestConvertWithCatalogProvider(t *testing.T) {
	dir := t.TempDir()
	doc := writeSampleDocument(t, dir)
	cat := writeSampleCatalog(t, dir)
	dsn := filepath.Join(dir, "catalog.db")

	_, err := runCommand(t, nil, "schema", "import", cat, "--dsn", dsn)
	require.NoError(t, err)

	t.Setenv("DSCPARSER_CATALOG_DSN", dsn)
	out, err := runCommand(t, nil, "convert", doc, "--catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "1 instance")
}

func TestCommitCommandWithoutStaging(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = runCommand(t, nil, "commit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no staged changes")
}
