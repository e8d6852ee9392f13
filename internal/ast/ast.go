package ast

// Node is the base interface for all AST nodes.
type Node interface {
	String() string
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every AST the engine evaluates.
type Program struct {
	Statements []Statement
}

func (p *Program) String() string {
	var out string
	for _, s := range p.Statements {
		out += s.String() + ";\n"
	}
	return out
}

// Parameter is a single declared function parameter. An empty TypeName
// means the parameter accepts any value tag (wildcard). Mutable marks a
// parameter that receives the caller's shared cell instead of a copy,
// which is how method-call syntax updates a receiver in place.
type Parameter struct {
	Name     string
	TypeName string
	Mutable  bool
}

func (p *Parameter) String() string {
	s := p.Name
	if p.Mutable {
		s = "mut " + s
	}
	if p.TypeName != "" {
		s += ": " + p.TypeName
	}
	return s
}
