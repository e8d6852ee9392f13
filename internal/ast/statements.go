package ast

import "strings"

// LetStatement declares a mutable binding in the current scope.
type LetStatement struct {
	Name  string
	Value Expression
}

func (ls *LetStatement) statementNode() {}
func (ls *LetStatement) String() string {
	return "let " + ls.Name + " = " + ls.Value.String()
}

// ConstStatement declares an immutable binding. Const initializers are
// candidates for compile-time propagation.
type ConstStatement struct {
	Name  string
	Value Expression
}

func (cs *ConstStatement) statementNode() {}
func (cs *ConstStatement) String() string {
	return "const " + cs.Name + " = " + cs.Value.String()
}

// AssignStatement writes to an existing binding or to an indexed slot.
// Target is an *Identifier or an *IndexExpression.
type AssignStatement struct {
	Target Expression
	Value  Expression
}

func (as *AssignStatement) statementNode() {}
func (as *AssignStatement) String() string {
	return as.Target.String() + " = " + as.Value.String()
}

type ReturnStatement struct {
	Value Expression // nil returns unit
}

func (rs *ReturnStatement) statementNode() {}
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return"
	}
	return "return " + rs.Value.String()
}

type ExpressionStatement struct {
	Expression Expression
}

func (es *ExpressionStatement) statementNode() {}
func (es *ExpressionStatement) String() string { return es.Expression.String() }

type BlockStatement struct {
	Statements []Statement
}

func (bs *BlockStatement) statementNode() {}
func (bs *BlockStatement) String() string {
	parts := make([]string, len(bs.Statements))
	for i, s := range bs.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

type WhileStatement struct {
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode() {}
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

// FunctionStatement is a named function definition. Definitions are
// always inserted into the global namespace, never nested inside
// another callable.
type FunctionStatement struct {
	Name       string
	Parameters []*Parameter
	Body       *BlockStatement
}

func (fs *FunctionStatement) statementNode() {}
func (fs *FunctionStatement) String() string {
	params := make([]string, len(fs.Parameters))
	for i, p := range fs.Parameters {
		params[i] = p.String()
	}
	return "fn " + fs.Name + "(" + strings.Join(params, ", ") + ") " + fs.Body.String()
}
