package domain

// SignalNode declares one operator instance in a signal forest.
// Dependencies are nested child nodes keyed by parameter name; identity is by ID.
type SignalNode struct {
	ID       string                   `json:"id" yaml:"id"`
	Type     string                   `json:"type" yaml:"type"`
	Alias    string                   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Params   map[string]any           `json:"params,omitempty" yaml:"params,omitempty"`
	Children map[string][]*SignalNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Label returns the alias, or the type when no alias is set.
func (n *SignalNode) Label() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Type
}

// ParamKind tags how a parameter value is interpreted.
type ParamKind string

const (
	ParamColumn     ParamKind = "column"      // feature key
	ParamNumber     ParamKind = "number"      // numeric scalar
	ParamBoolean    ParamKind = "boolean"     // boolean scalar
	ParamSelect     ParamKind = "select"      // one of Options
	ParamText       ParamKind = "text"        // free text, parsed as scalar when possible
	ParamSignal     ParamKind = "signal"      // single dependency
	ParamSignalList ParamKind = "signal-list" // multi dependency
)

// IsDependency reports whether the kind references other nodes.
func (k ParamKind) IsDependency() bool {
	return k == ParamSignal || k == ParamSignalList
}

// ParamDef describes one operator parameter.
type ParamDef struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     ParamKind `json:"kind" yaml:"kind"`
	Default  any       `json:"default,omitempty" yaml:"default,omitempty"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Optional bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// SignalDef is the parameter schema of one operator type.
type SignalDef struct {
	Type   string     `json:"type" yaml:"type"`
	Params []ParamDef `json:"params" yaml:"params"`
}

// Param returns the definition of name.
func (d SignalDef) Param(name string) (ParamDef, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamDef{}, false
}

// SignalDefs maps operator type to schema.
type SignalDefs map[string]SignalDef
