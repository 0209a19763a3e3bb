// Package mof extracts resource schemas from MOF class declarations, the
// .schema.mof files that ship alongside script resources. Every class in a
// file becomes a schema; embedded-instance classes (credentials and the
// like) are indexed under their class name so sub-object resolution finds
// them.
package mof

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/providers"
	"github.com/FabienTschanz/DSCParser/providers/static"
)

// Provider indexes schemas parsed from MOF files.
type Provider struct {
	inner *static.Provider
}

var _ providers.SchemaProvider = (*Provider)(nil)

// NewProvider creates an empty MOF-backed provider.
func NewProvider() *Provider {
	return &Provider{inner: static.New()}
}

// Name identifies the provider.
func (p *Provider) Name() string { return "mof" }

// Lookup returns all indexed entries for the resource name.
func (p *Provider) Lookup(resourceName string) []*core.ResourceSchema {
	return p.inner.Lookup(resourceName)
}

// Resources lists indexed resource names.
func (p *Provider) Resources() []string { return p.inner.Resources() }

// Add indexes already-parsed schemas.
func (p *Provider) Add(schemas ...*core.ResourceSchema) { p.inner.Add(schemas...) }

// AddFile parses one MOF file and indexes its classes.
func (p *Provider) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read MOF schema: %w", err)
	}
	schemas, err := Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	p.inner.Add(schemas...)
	return nil
}

// LoadDir walks dir recursively for *.schema.mof files and indexes every
// class found, stamping the module identity onto each schema.
func (p *Provider) LoadDir(dir, moduleName, moduleVersion string) error {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.schema.mof")
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, rel := range matches {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return fmt.Errorf("read MOF schema: %w", err)
		}
		schemas, err := Parse(string(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", rel, err)
		}
		for _, s := range schemas {
			s.ModuleName = moduleName
			s.ModuleVersion = moduleVersion
		}
		p.inner.Add(schemas...)
	}
	return nil
}

// Parse extracts every class declaration from MOF source text.
func Parse(src string) ([]*core.ResourceSchema, error) {
	s := &scanner{src: src}
	var out []*core.ResourceSchema
	for {
		s.skipSpace()
		if s.eof() {
			return out, nil
		}
		quals, err := s.qualifiers()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		word := s.ident()
		if word == "" {
			// Pragma or stray punctuation: drop the line.
			for !s.eof() && s.src[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		if !strings.EqualFold(word, "class") {
			// Instance declarations are not schema material.
			s.skipStatement()
			continue
		}
		schema, err := s.class(quals)
		if err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
}

type qualifier struct {
	name string
	args []string
}

func findQualifier(quals []qualifier, name string) *qualifier {
	for i := range quals {
		if strings.EqualFold(quals[i].name, name) {
			return &quals[i]
		}
	}
	return nil
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

// skipSpace advances past whitespace and both comment forms.
func (s *scanner) skipSpace() {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.pos++
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for !s.eof() && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			s.pos += 2
			for s.pos+1 < len(s.src) && !(s.src[s.pos] == '*' && s.src[s.pos+1] == '/') {
				s.pos++
			}
			s.pos += 2
		default:
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (s *scanner) ident() string {
	start := s.pos
	for !s.eof() && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// stringLit consumes a double-quoted literal with backslash escapes.
func (s *scanner) stringLit() (string, error) {
	if s.peek() != '"' {
		return "", fmt.Errorf("expected string literal at offset %d", s.pos)
	}
	s.pos++
	var b strings.Builder
	for !s.eof() {
		c := s.src[s.pos]
		switch c {
		case '\\':
			s.pos++
			if s.eof() {
				return "", fmt.Errorf("unterminated string literal")
			}
			b.WriteByte(s.src[s.pos])
			s.pos++
		case '"':
			s.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return "", fmt.Errorf("unterminated string literal")
}

// qualifiers consumes an optional [A, B("x"), C{"a","b"}] block.
func (s *scanner) qualifiers() ([]qualifier, error) {
	s.skipSpace()
	if s.peek() != '[' {
		return nil, nil
	}
	s.pos++
	var out []qualifier
	for {
		s.skipSpace()
		if s.peek() == ']' {
			s.pos++
			return out, nil
		}
		name := s.ident()
		if name == "" {
			return nil, fmt.Errorf("malformed qualifier at offset %d", s.pos)
		}
		q := qualifier{name: name}
		s.skipSpace()
		switch s.peek() {
		case '(':
			args, err := s.argList(')')
			if err != nil {
				return nil, err
			}
			q.args = args
		case '{':
			args, err := s.argList('}')
			if err != nil {
				return nil, err
			}
			q.args = args
		}
		out = append(out, q)
		s.skipSpace()
		// Qualifier flavors like ": Amended" are irrelevant here.
		if s.peek() == ':' {
			for !s.eof() && s.peek() != ',' && s.peek() != ']' {
				s.pos++
			}
		}
		if s.peek() == ',' {
			s.pos++
		}
	}
}

// argList consumes arguments up to the closing delimiter; the opener is
// still under the cursor.
func (s *scanner) argList(closer byte) ([]string, error) {
	s.pos++
	var out []string
	for {
		s.skipSpace()
		if s.eof() {
			return nil, fmt.Errorf("unterminated qualifier argument list")
		}
		if s.peek() == closer {
			s.pos++
			return out, nil
		}
		if s.peek() == '"' {
			v, err := s.stringLit()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		} else {
			start := s.pos
			for !s.eof() && s.peek() != ',' && s.peek() != closer {
				s.pos++
			}
			out = append(out, strings.TrimSpace(s.src[start:s.pos]))
		}
		s.skipSpace()
		if s.peek() == ',' {
			s.pos++
		}
	}
}

// skipStatement advances past one top-level construct ending in ';' at
// brace depth zero.
func (s *scanner) skipStatement() {
	depth := 0
	for !s.eof() {
		switch s.src[s.pos] {
		case '"':
			_, _ = s.stringLit()
			continue
		case '{':
			depth++
		case '}':
			depth--
		case ';':
			if depth <= 0 {
				s.pos++
				return
			}
		}
		s.pos++
	}
}

// class parses `Name : Base { properties };` after the class keyword.
func (s *scanner) class(quals []qualifier) (*core.ResourceSchema, error) {
	s.skipSpace()
	className := s.ident()
	if className == "" {
		return nil, fmt.Errorf("class declaration missing a name at offset %d", s.pos)
	}
	s.skipSpace()
	if s.peek() == ':' {
		s.pos++
		s.skipSpace()
		s.ident() // base class
		s.skipSpace()
	}
	if s.peek() != '{' {
		return nil, fmt.Errorf("class %s: expected '{'", className)
	}
	s.pos++

	schema := &core.ResourceSchema{ResourceName: className}
	if fn := findQualifier(quals, "FriendlyName"); fn != nil && len(fn.args) > 0 {
		schema.ResourceName = fn.args[0]
	}

	for {
		s.skipSpace()
		if s.eof() {
			return nil, fmt.Errorf("class %s: unterminated body", className)
		}
		if s.peek() == '}' {
			s.pos++
			s.skipSpace()
			if s.peek() == ';' {
				s.pos++
			}
			return schema, nil
		}
		prop, err := s.property(className)
		if err != nil {
			return nil, err
		}
		schema.Properties = append(schema.Properties, prop)
	}
}

// property parses one `[quals] Type Name[]; ` member.
func (s *scanner) property(className string) (core.PropertySchema, error) {
	quals, err := s.qualifiers()
	if err != nil {
		return core.PropertySchema{}, err
	}
	s.skipSpace()
	mofType := s.ident()
	if mofType == "" {
		return core.PropertySchema{}, fmt.Errorf("class %s: expected a property type at offset %d", className, s.pos)
	}
	s.skipSpace()
	name := s.ident()
	if name == "" {
		return core.PropertySchema{}, fmt.Errorf("class %s: property of type %s has no name", className, mofType)
	}
	s.skipSpace()
	isArray := false
	if s.peek() == '[' {
		isArray = true
		for !s.eof() && s.peek() != ']' {
			s.pos++
		}
		if s.eof() {
			return core.PropertySchema{}, fmt.Errorf("class %s: unterminated array suffix on %s", className, name)
		}
		s.pos++
		s.skipSpace()
	}
	// Default values carry no schema information.
	if s.peek() == '=' {
		for !s.eof() && s.peek() != ';' {
			if s.peek() == '"' {
				if _, err := s.stringLit(); err != nil {
					return core.PropertySchema{}, err
				}
				continue
			}
			s.pos++
		}
	}
	if s.peek() != ';' {
		return core.PropertySchema{}, fmt.Errorf("class %s: expected ';' after property %s", className, name)
	}
	s.pos++

	prop := core.PropertySchema{
		Name: name,
		Type: typeTagFor(mofType, isArray, quals),
	}
	if findQualifier(quals, "Key") != nil || findQualifier(quals, "Required") != nil {
		prop.Mandatory = true
	}
	// ValueMap holds the wire values; Values is only localized display text.
	if vm := findQualifier(quals, "ValueMap"); vm != nil {
		prop.AllowedValues = vm.args
	} else if vs := findQualifier(quals, "Values"); vs != nil {
		prop.AllowedValues = vs.args
	}
	return prop, nil
}

// typeTagFor maps a MOF property type to the schema tag grammar.
func typeTagFor(mofType string, isArray bool, quals []qualifier) core.TypeTag {
	if ei := findQualifier(quals, "EmbeddedInstance"); ei != nil && len(ei.args) > 0 {
		mofType = ei.args[0]
	} else if strings.EqualFold(mofType, "Real32") || strings.EqualFold(mofType, "Real64") {
		// No real-number shape in the value union; the text survives as a
		// string.
		mofType = "String"
	}
	declared := "[" + mofType + "]"
	if isArray {
		declared = "[" + mofType + "[]]"
	}
	return core.ParseTypeTag(declared)
}
