// Package loader reads signature manifests: YAML documents that declare
// definitions and call sites directly, without Python source.
//
// A manifest looks like:
//
//	typevars:
//	  - name: Anystr
//	    constraints: [str, bytes]
//	classes:
//	  - name: Photo
//	    init:
//	      - {name: width, type: int}
//	      - {name: height, type: int}
//	    methods:
//	      - name: get_dimensions
//	        returns: Tuple[int, int]
//	functions:
//	  - name: square
//	    params: [{name: x, type: int}]
//	    returns: int
//	calls:
//	  - callee: square
//	    args: [str]
//	    expect: Argument 1 to "square" has incompatible type "str"; expected "int"
//
// Every type is written in annotation syntax.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest represents a whole manifest document.
type Manifest struct {
	// TypeVars declares type variables, usable in any annotation below.
	TypeVars []TypeVarSpec `yaml:"typevars"`

	// Classes declares user classes. Class names may be referenced before
	// their entry.
	Classes []ClassSpec `yaml:"classes"`

	// Functions declares module-level functions.
	Functions []FunctionSpec `yaml:"functions"`

	// Calls lists the call sites to check, in order.
	Calls []CallSpec `yaml:"calls"`
}

// TypeVarSpec declares one type variable.
type TypeVarSpec struct {
	Name string `yaml:"name"`

	// Constraints is the bound set. Empty means unconstrained.
	Constraints []string `yaml:"constraints,omitempty"`

	Position `yaml:"-"`
}

// ClassSpec declares one class.
type ClassSpec struct {
	Name string `yaml:"name"`

	// Base is the direct base class. Omitted or "object" means none.
	Base string `yaml:"base,omitempty"`

	// Init lists the constructor parameters, without self. When omitted the
	// constructor of the base class applies.
	Init *[]ParamSpec `yaml:"init,omitempty"`

	// Attributes maps instance attribute names to their types.
	Attributes map[string]string `yaml:"attributes,omitempty"`

	Methods []FunctionSpec `yaml:"methods,omitempty"`

	Position `yaml:"-"`
}

// FunctionSpec declares a function or a method.
type FunctionSpec struct {
	Name   string      `yaml:"name"`
	Params []ParamSpec `yaml:"params,omitempty"`

	// Returns is the return annotation. Defaults to "None".
	Returns string `yaml:"returns,omitempty"`

	Position `yaml:"-"`
}

// ParamSpec declares one parameter.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Default marks the parameter as optional at call sites.
	Default bool `yaml:"default,omitempty"`

	// Variadic marks *args. Only the last parameter may be variadic.
	Variadic bool `yaml:"variadic,omitempty"`
}

// CallSpec declares one call site. Exactly one of Callee or Method is set;
// a method call also needs the Receiver type.
type CallSpec struct {
	Callee   string    `yaml:"callee,omitempty"`
	Receiver string    `yaml:"receiver,omitempty"`
	Method   string    `yaml:"method,omitempty"`
	Args     []ArgSpec `yaml:"args,omitempty"`

	// Expect is the diagnostic message this call should produce, for verify.
	Expect string `yaml:"expect,omitempty"`

	// EndLine is the last line of the entry.
	EndLine int `yaml:"-"`

	Position `yaml:"-"`
}

// ArgSpec is the type of one argument, written as a plain string.
type ArgSpec struct {
	Type string

	Position
}

// Position is where an entry starts in the manifest.
type Position struct {
	Line   int
	Column int
}

func (p *Position) set(n *yaml.Node) {
	p.Line, p.Column = n.Line, n.Column
}

func (t *TypeVarSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain TypeVarSpec
	if err := n.Decode((*plain)(t)); err != nil {
		return err
	}
	t.set(n)
	return nil
}

func (c *ClassSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain ClassSpec
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.set(n)
	return nil
}

func (f *FunctionSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain FunctionSpec
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	f.set(n)
	return nil
}

func (c *CallSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain CallSpec
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.set(n)
	c.EndLine = lastLine(n)
	return nil
}

func (a *ArgSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: argument must be a type string", n.Line)
	}
	a.Type = n.Value
	a.set(n)
	return nil
}

// lastLine is the line of the last scalar under n.
func lastLine(n *yaml.Node) int {
	line := n.Line
	for _, child := range n.Content {
		if l := lastLine(child); l > line {
			line = l
		}
	}
	return line
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest parses and validates manifest data; path only labels errors.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate checks the structure of the manifest. Type strings are checked
// later, when they are resolved against the declared names.
func (m *Manifest) validate(path string) error {
	seen := make(map[string]string) // name → kind, for duplicate detection
	declare := func(kind, name string, where string) error {
		if name == "" {
			return fmt.Errorf("%s: %s: name is required", path, where)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s: %s: %q is already declared as a %s", path, where, name, prev)
		}
		seen[name] = kind
		return nil
	}

	for i, tv := range m.TypeVars {
		if err := declare("type variable", tv.Name, fmt.Sprintf("typevars[%d]", i)); err != nil {
			return err
		}
		if len(tv.Constraints) == 1 {
			return fmt.Errorf("%s: typevars[%d] (%s): a single constraint is not allowed", path, i, tv.Name)
		}
	}
	for i, c := range m.Classes {
		where := fmt.Sprintf("classes[%d]", i)
		if err := declare("class", c.Name, where); err != nil {
			return err
		}
		if c.Init != nil {
			if err := validateParams(path, where+".init", *c.Init); err != nil {
				return err
			}
		}
		for j, meth := range c.Methods {
			mwhere := fmt.Sprintf("%s.methods[%d]", where, j)
			if meth.Name == "" {
				return fmt.Errorf("%s: %s: name is required", path, mwhere)
			}
			if err := validateParams(path, mwhere, meth.Params); err != nil {
				return err
			}
		}
	}
	for i, f := range m.Functions {
		where := fmt.Sprintf("functions[%d]", i)
		if err := declare("function", f.Name, where); err != nil {
			return err
		}
		if err := validateParams(path, where, f.Params); err != nil {
			return err
		}
	}
	for i, c := range m.Calls {
		switch {
		case c.Callee != "" && c.Method != "":
			return fmt.Errorf("%s: calls[%d]: callee and method are mutually exclusive", path, i)
		case c.Callee == "" && c.Method == "":
			return fmt.Errorf("%s: calls[%d]: one of callee or method is required", path, i)
		case c.Method != "" && c.Receiver == "":
			return fmt.Errorf("%s: calls[%d] (%s): receiver is required for a method call", path, i, c.Method)
		case c.Callee != "" && c.Receiver != "":
			return fmt.Errorf("%s: calls[%d] (%s): receiver is only valid with method", path, i, c.Callee)
		}
	}
	return nil
}

func validateParams(path, where string, params []ParamSpec) error {
	for i, p := range params {
		if p.Name == "" {
			return fmt.Errorf("%s: %s.params[%d]: name is required", path, where, i)
		}
		if p.Type == "" {
			return fmt.Errorf("%s: %s.params[%d] (%s): type is required", path, where, i, p.Name)
		}
		if p.Variadic && i != len(params)-1 {
			return fmt.Errorf("%s: %s.params[%d] (%s): only the last parameter may be variadic", path, where, i, p.Name)
		}
	}
	return nil
}
