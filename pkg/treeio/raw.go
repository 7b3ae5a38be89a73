package treeio

// The raw* types mirror the document layout. Field names follow the
// annotation vocabulary so that an annotated tree reads the same in YAML and JSON.

type rawDocument struct {
	Version string            `yaml:"version,omitempty" json:"version,omitempty"`
	Hints   map[string]string `yaml:"hints,omitempty" json:"hints,omitempty"`
	Tree    *rawNode          `yaml:"tree" json:"tree"`
}

type rawNode struct {
	Kind     string     `yaml:"kind" json:"kind"`
	Line     int        `yaml:"line,omitempty" json:"line,omitempty"`
	Col      int        `yaml:"col,omitempty" json:"col,omitempty"`
	EndLine  int        `yaml:"end_line,omitempty" json:"end_line,omitempty"`
	EndCol   int        `yaml:"end_col,omitempty" json:"end_col,omitempty"`
	ID       string     `yaml:"id,omitempty" json:"id,omitempty"`
	Ctx      string     `yaml:"ctx,omitempty" json:"ctx,omitempty"`
	Name     string     `yaml:"name,omitempty" json:"name,omitempty"`
	Attr     string     `yaml:"attr,omitempty" json:"attr,omitempty"`
	Elt      int        `yaml:"elt,omitempty" json:"elt,omitempty"`
	Func     *rawNode   `yaml:"func,omitempty" json:"func,omitempty"`
	Value    *rawNode   `yaml:"value,omitempty" json:"value,omitempty"`
	Index    *rawNode   `yaml:"index,omitempty" json:"index,omitempty"`
	Test     *rawNode   `yaml:"test,omitempty" json:"test,omitempty"`
	Target   *rawNode   `yaml:"target,omitempty" json:"target,omitempty"`
	Iter     *rawNode   `yaml:"iter,omitempty" json:"iter,omitempty"`
	Targets  []*rawNode `yaml:"targets,omitempty" json:"targets,omitempty"`
	Args     []*rawNode `yaml:"args,omitempty" json:"args,omitempty"`
	Elts     []*rawNode `yaml:"elts,omitempty" json:"elts,omitempty"`
	Items    []*rawItem `yaml:"items,omitempty" json:"items,omitempty"`
	Body     []*rawNode `yaml:"body,omitempty" json:"body,omitempty"`
	Orelse   []*rawNode `yaml:"orelse,omitempty" json:"orelse,omitempty"`
	Children []*rawNode `yaml:"children,omitempty" json:"children,omitempty"`
	Anno     *rawAnno   `yaml:"anno,omitempty" json:"anno,omitempty"`
}

type rawItem struct {
	Context *rawNode `yaml:"context" json:"context"`
	As      *rawNode `yaml:"as,omitempty" json:"as,omitempty"`
}

type rawAnno struct {
	LiveVal       *rawValue `yaml:"live_val,omitempty" json:"live_val,omitempty"`
	FQN           []string  `yaml:"fqn,omitempty" json:"fqn,omitempty"`
	Type          *rawValue `yaml:"type,omitempty" json:"type,omitempty"`
	TypeFQN       []string  `yaml:"type_fqn,omitempty" json:"type_fqn,omitempty"`
	IsConstructor *bool     `yaml:"is_constructor,omitempty" json:"is_constructor,omitempty"`
}

func (a *rawAnno) empty() bool {
	return a.LiveVal == nil && a.FQN == nil && a.Type == nil && a.TypeFQN == nil && a.IsConstructor == nil
}

// rawValue holds exactly one of its fields.
type rawValue struct {
	Class    string `yaml:"class,omitempty" json:"class,omitempty"`
	Function string `yaml:"function,omitempty" json:"function,omitempty"`
	Module   string `yaml:"module,omitempty" json:"module,omitempty"`
	Object   string `yaml:"object,omitempty" json:"object,omitempty"`
}
