package ast

import (
	"fmt"
	"strings"
)

// UnitLiteral represents the unit value ().
type UnitLiteral struct{}

func (ul *UnitLiteral) expressionNode() {}
func (ul *UnitLiteral) String() string  { return "()" }

type BooleanLiteral struct {
	Value bool
}

func (bl *BooleanLiteral) expressionNode() {}
func (bl *BooleanLiteral) String() string  { return fmt.Sprintf("%t", bl.Value) }

type IntegerLiteral struct {
	Value int64
}

func (il *IntegerLiteral) expressionNode() {}
func (il *IntegerLiteral) String() string  { return fmt.Sprintf("%d", il.Value) }

type FloatLiteral struct {
	Value float64
}

func (fl *FloatLiteral) expressionNode() {}
func (fl *FloatLiteral) String() string  { return fmt.Sprintf("%g", fl.Value) }

type CharLiteral struct {
	Value rune
}

func (cl *CharLiteral) expressionNode() {}
func (cl *CharLiteral) String() string  { return fmt.Sprintf("%q", cl.Value) }

type StringLiteral struct {
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) String() string  { return fmt.Sprintf("%q", sl.Value) }

type ArrayLiteral struct {
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode() {}
func (al *ArrayLiteral) String() string {
	elems := make([]string, len(al.Elements))
	for i, e := range al.Elements {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// MapEntry is a single name-keyed entry in a map literal. Entry order in
// the literal is the insertion order of the resulting map value.
type MapEntry struct {
	Key   string
	Value Expression
}

type MapLiteral struct {
	Entries []MapEntry
}

func (ml *MapLiteral) expressionNode() {}
func (ml *MapLiteral) String() string {
	entries := make([]string, len(ml.Entries))
	for i, en := range ml.Entries {
		entries[i] = fmt.Sprintf("%s: %s", en.Key, en.Value.String())
	}
	return "#{" + strings.Join(entries, ", ") + "}"
}

type Identifier struct {
	Value string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Value }

// PrefixExpression is a unary operator application, e.g. -x or !flag.
type PrefixExpression struct {
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode() {}
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression is a binary operator application. The two
// short-circuiting connectives are NOT represented here; they have
// dedicated node types because they are control flow, not functions.
type InfixExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

func (ie *InfixExpression) expressionNode() {}
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// AndExpression is the short-circuiting && connective.
type AndExpression struct {
	Left  Expression
	Right Expression
}

func (ae *AndExpression) expressionNode() {}
func (ae *AndExpression) String() string {
	return "(" + ae.Left.String() + " && " + ae.Right.String() + ")"
}

// OrExpression is the short-circuiting || connective.
type OrExpression struct {
	Left  Expression
	Right Expression
}

func (oe *OrExpression) expressionNode() {}
func (oe *OrExpression) String() string {
	return "(" + oe.Left.String() + " || " + oe.Right.String() + ")"
}

// CallExpression is a free function call, optionally through a qualified
// namespace path: a::b::f(x, y).
type CallExpression struct {
	Namespace []string
	Function  string
	Arguments []Expression
}

func (ce *CallExpression) expressionNode() {}
func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, a := range ce.Arguments {
		args[i] = a.String()
	}
	name := ce.Function
	if len(ce.Namespace) > 0 {
		name = strings.Join(ce.Namespace, "::") + "::" + name
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

// MethodCallExpression is method-call sugar: recv.f(args) desugars to
// f(recv, args...) during evaluation.
type MethodCallExpression struct {
	Receiver  Expression
	Method    string
	Arguments []Expression
}

func (mc *MethodCallExpression) expressionNode() {}
func (mc *MethodCallExpression) String() string {
	args := make([]string, len(mc.Arguments))
	for i, a := range mc.Arguments {
		args[i] = a.String()
	}
	return mc.Receiver.String() + "." + mc.Method + "(" + strings.Join(args, ", ") + ")"
}

// IndexExpression is indexer sugar: a[i].
type IndexExpression struct {
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode() {}
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// IfExpression evaluates to the taken branch's value, or unit when the
// condition is false and there is no alternative.
type IfExpression struct {
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (ie *IfExpression) expressionNode() {}
func (ie *IfExpression) String() string {
	s := "if " + ie.Condition.String() + " " + ie.Consequence.String()
	if ie.Alternative != nil {
		s += " else " + ie.Alternative.String()
	}
	return s
}

// FunctionLiteral is an anonymous function. Evaluating it registers the
// body under a generated global name and yields a closure pointer that
// captures the defining environment.
type FunctionLiteral struct {
	Parameters []*Parameter
	Body       *BlockStatement
}

func (fl *FunctionLiteral) expressionNode() {}
func (fl *FunctionLiteral) String() string {
	params := make([]string, len(fl.Parameters))
	for i, p := range fl.Parameters {
		params[i] = p.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") " + fl.Body.String()
}
