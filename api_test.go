package dscparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/providers/static"
	"github.com/FabienTschanz/DSCParser/syntax"
)

const sampleDocument = `Configuration Sample
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

const sampleRendered = "File \"TestFile1\"\n" +
	"{\n" +
	"    DestinationPath = \"C:\\Temp\\TestFile.txt\"\n" +
	"    Ensure          = \"Present\"\n" +
	"    Type            = \"File\"\n" +
	"}\n"

func sampleProvider() *static.Provider {
	str := func(name string, mandatory bool) core.PropertySchema {
		return core.PropertySchema{Name: name, Type: core.TypeTag{Kind: core.TagString}, Mandatory: mandatory}
	}
	return static.New(
		&core.ResourceSchema{
			ResourceName: "File",
			ModuleName:   "PSDesiredStateConfiguration",
			Properties: []core.PropertySchema{
				str("DestinationPath", true), str("Ensure", false), str("Type", false), str("Contents", false),
			},
		},
		&core.ResourceSchema{
			ResourceName: "xWebSite",
			ModuleName:   "PSDesiredStateConfiguration",
			Properties: []core.PropertySchema{
				str("Name", true),
				{Name: "Port", Type: core.TypeTag{Kind: core.TagInt, Name: "UInt32"}},
				{Name: "Bindings", Type: core.TypeTag{Kind: core.TagStringArray, Name: "String[]"}},
				{Name: "Credential", Type: core.TypeTag{Kind: core.TagInstance, Name: "MSFT_Credential"}},
			},
		},
		&core.ResourceSchema{
			ResourceName: "MSFT_Credential",
			ModuleName:   "PSDesiredStateConfiguration",
			Properties:   []core.PropertySchema{str("UserName", true), str("Password", true)},
		},
	)
}

func TestConvertToResourceTree_MinimalScenario(t *testing.T) {
	res, err := ConvertToResourceTree(context.Background(), sampleDocument, Options{Schemas: sampleProvider()})
	require.NoError(t, err)
	require.Len(t, res.Instances, 1)
	assert.Empty(t, res.Diagnostics)

	inst := res.Instances[0]
	assert.Equal(t, "File", inst.ResourceName)
	assert.Equal(t, "TestFile1", inst.InstanceName)

	dest, ok := inst.Properties.Get("DestinationPath")
	require.True(t, ok)
	assert.Equal(t, core.StringValue(`C:\Temp\TestFile.txt`), dest)

	out, err := ConvertFromResourceTree(res.Instances, 0)
	require.NoError(t, err)
	assert.Equal(t, sampleRendered, out)
}

func TestConvertToResourceTree_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.ps1")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	res, err := ConvertToResourceTree(context.Background(), path, Options{Schemas: sampleProvider()})
	require.NoError(t, err)
	require.Len(t, res.Instances, 1)
	assert.Equal(t, "TestFile1", res.Instances[0].InstanceName)
}

func TestConvertToResourceTree_MissingPathIsText(t *testing.T) {
	_, err := ConvertToResourceTree(context.Background(), `C:\missing\nothere.ps1`, Options{})
	assert.ErrorIs(t, err, core.ErrNoConfiguration)
}

func TestConvertToResourceTree_EmptySource(t *testing.T) {
	for _, src := range []string{"", "   \n\t  "} {
		_, err := ConvertToResourceTree(context.Background(), src, Options{})
		assert.ErrorIs(t, err, core.ErrEmptySource)
		var se *core.StructuralError
		assert.ErrorAs(t, err, &se)
	}
}

func TestConvertToResourceTree_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConvertToResourceTree(ctx, sampleDocument, Options{Schemas: sampleProvider()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertToResourceTree_CommentMetadata(t *testing.T) {
	source := `Configuration Sample
{
    Node "localhost"
    {
        File "TestFile1"
        {
            DestinationPath = "C:\Temp\TestFile.txt"
            Ensure = "Present" # keep it present
        }
    }
}`

	plain, err := ConvertToResourceTree(context.Background(), source, Options{Schemas: sampleProvider()})
	require.NoError(t, err)
	require.Len(t, plain.Instances, 1)
	assert.False(t, plain.Instances[0].Properties.Has("_metadata_Ensure"))

	annotated, err := ConvertToResourceTree(context.Background(), source, Options{
		Schemas:         sampleProvider(),
		IncludeComments: true,
	})
	require.NoError(t, err)
	require.Len(t, annotated.Instances, 1)

	meta, ok := annotated.Instances[0].Properties.Get("_metadata_Ensure")
	require.True(t, ok)
	assert.Equal(t, core.StringValue("# keep it present"), meta)
}

func TestConvertToResourceTree_CIMInstanceInfo(t *testing.T) {
	source := `Configuration Sample
{
    Node "localhost"
    {
        xWebSite "Portal"
        {
            Name = "portal"
            Credential = MSFT_Credential
            {
                UserName = "admin"
                Password = $secret
            }
        }
    }
}`

	res, err := ConvertToResourceTree(context.Background(), source, Options{
		Schemas:                sampleProvider(),
		IncludeCIMInstanceInfo: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Instances, 1)

	cred, ok := res.Instances[0].Properties.Get("Credential")
	require.True(t, ok)
	require.Equal(t, core.KindCimInstance, cred.Kind)
	tag, ok := cred.Instance.Properties.Get("CIMInstance")
	require.True(t, ok)
	assert.Equal(t, core.StringValue("MSFT_Credential"), tag)

	// The shadow entry feeds the header on the way back out, never the body.
	out, err := ConvertFromResourceTree(res.Instances, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Credential = MSFT_Credential\n")
	assert.NotContains(t, out, "CIMInstance =")
}

func TestConvertToResourceTree_Diagnostics(t *testing.T) {
	source := `Configuration Sample
{
    Node "localhost"
    {
        File "TestFile1"
        {
            DestinationPath = "C:\Temp\TestFile.txt"
            MysteryKnob = "on"
        }
    }
}`

	res, err := ConvertToResourceTree(context.Background(), source, Options{Schemas: sampleProvider()})
	require.NoError(t, err)
	require.Len(t, res.Instances, 1)
	assert.False(t, res.Instances[0].Properties.Has("MysteryKnob"))
	assert.True(t, res.Diagnostics.HasCode(core.CodePropertyNotInSchema))
}

func TestConvertToResourceTree_Strict(t *testing.T) {
	source := `Configuration Sample
{
    Node "localhost"
    {
        xMystery "M" { Path = "C:\thing" }
    }
}`

	_, err := ConvertToResourceTree(context.Background(), source, Options{
		Schemas: sampleProvider(),
		Strict:  true,
	})
	var snf *core.SchemaNotFoundError
	require.ErrorAs(t, err, &snf)
	assert.Equal(t, "xMystery", snf.ResourceName)
}

func TestConvertToResourceTree_Progress(t *testing.T) {
	var calls [][2]int
	_, err := ConvertToResourceTree(context.Background(), sampleDocument, Options{
		Schemas:    sampleProvider(),
		OnProgress: func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 1}}, calls)
}

type failingSyntax struct{}

func (failingSyntax) Name() string { return "failing" }

func (failingSyntax) Parse(string) (*syntax.ScriptBlock, []syntax.Token, error) {
	return nil, nil, errors.New("injected provider failure")
}

func TestConvertToResourceTree_CustomSyntaxProvider(t *testing.T) {
	_, err := ConvertToResourceTree(context.Background(), sampleDocument, Options{Syntax: failingSyntax{}})
	assert.EqualError(t, err, "injected provider failure")
}

func TestRoundTripLaw(t *testing.T) {
	source := `Configuration Sample
{
    Node "localhost"
    {
        File "TestFile1"
        {
            DestinationPath = "C:\Temp\TestFile.txt"
            Ensure = "Present"
        }
        xWebSite "Portal"
        {
            Name = "portal"
            Port = 8080
            Bindings = @("http","https")
            Credential = MSFT_Credential
            {
                UserName = "admin"
                Password = $secret
            }
        }
    }
}`
	opts := Options{Schemas: sampleProvider()}

	first, err := ConvertToResourceTree(context.Background(), source, opts)
	require.NoError(t, err)
	require.Empty(t, first.Diagnostics)

	out, err := ConvertFromResourceTree(first.Instances, 0)
	require.NoError(t, err)

	wrapped := "Configuration Sample\n{\n    Node \"localhost\"\n    {\n" + indent(out, 2) + "    }\n}"
	second, err := ConvertToResourceTree(context.Background(), wrapped, opts)
	require.NoError(t, err)

	require.Len(t, second.Instances, len(first.Instances))
	for i := range first.Instances {
		assert.Equal(t, first.Instances[i].ResourceName, second.Instances[i].ResourceName)
		assert.Equal(t, first.Instances[i].InstanceName, second.Instances[i].InstanceName)
		assert.True(t, first.Instances[i].Properties.Equal(second.Instances[i].Properties),
			"instance %d properties changed across the round trip", i)
	}
}

func TestConvertFromResourceTree_IndentLevel(t *testing.T) {
	instances := []core.ResourceInstance{{
		ResourceName: "File",
		InstanceName: "F1",
		Properties:   core.NewPropertyMap(),
	}}
	instances[0].Properties.Set("Ensure", core.StringValue("Present"))

	out, err := ConvertFromResourceTree(instances, 2)
	require.NoError(t, err)
	assert.Equal(t, "        File \"F1\"\n        {\n            Ensure = \"Present\"\n        }\n", out)
}

func indent(text string, level int) string {
	prefix := ""
	for i := 0; i < level; i++ {
		prefix += "    "
	}
	out := ""
	for _, line := range splitLines(text) {
		if line == "" {
			continue
		}
		out += prefix + line + "\n"
	}
	return out
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
