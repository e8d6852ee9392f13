// Package optimizer rewrites an AST into an equivalent-or-reduced AST
// before evaluation. It is a pure transform parameterized by level and
// by the live registry used for Full-level calls; it never alters
// namespace contents, receiver binding, or registry state.
package optimizer

import (
	"github.com/quoll-lang/quoll/internal/ast"
	"github.com/quoll-lang/quoll/internal/config"
	"github.com/quoll-lang/quoll/internal/evaluator"
)

// Level selects how aggressively programs are rewritten.
type Level int

const (
	// None is the identity transform.
	None Level = iota
	// Simple folds expressions of literal operands through the default
	// built-in operator semantics only. It never invokes a registered
	// override and never calls an externally defined function, so it is
	// semantically transparent.
	Simple
	// Full additionally invokes any resolvable function whose arguments
	// are all literal, replacing the call with its result. Side effects
	// of such functions occur at optimization time; that is an accepted,
	// documented hazard of this level.
	Full
)

// LevelFromName maps a configuration name to a Level.
func LevelFromName(name string) (Level, bool) {
	switch name {
	case config.OptimizationNone:
		return None, true
	case config.OptimizationSimple:
		return Simple, true
	case config.OptimizationFull:
		return Full, true
	}
	return None, false
}

type Optimizer struct {
	level Level
	eval  *evaluator.Evaluator

	// consts is a scope stack for constant propagation. An entry with a
	// nil expression is a tombstone: the name is bound but not to a
	// propagatable constant.
	consts []map[string]ast.Expression

	// scriptFns records the parameter descriptors of every function the
	// program itself defines. Such functions reach the registry only
	// when the program runs, so folding must treat them as live
	// overrides even though the registry cannot see them yet.
	scriptFns map[string][][]evaluator.ValueType
}

func New(level Level, eval *evaluator.Evaluator) *Optimizer {
	return &Optimizer{level: level, eval: eval}
}

// Optimize rewrites a program. The input AST is never mutated.
func (o *Optimizer) Optimize(program *ast.Program) *ast.Program {
	if o.level == None {
		return program
	}
	o.consts = nil
	o.scriptFns = make(map[string][][]evaluator.ValueType)
	o.collectScriptFns(program.Statements)
	o.pushScope()
	defer o.popScope()

	out := &ast.Program{Statements: make([]ast.Statement, len(program.Statements))}
	for i, stmt := range program.Statements {
		out.Statements[i] = o.optimizeStatement(stmt)
	}
	return out
}

func (o *Optimizer) collectScriptFns(stmts []ast.Statement) {
	for _, stmt := range stmts {
		o.collectFromStatement(stmt)
	}
}

func (o *Optimizer) collectFromStatement(stmt ast.Statement) {
	switch stmt := stmt.(type) {
	case *ast.FunctionStatement:
		params := make([]evaluator.ValueType, len(stmt.Parameters))
		for i, p := range stmt.Parameters {
			if p.TypeName == "" {
				params[i] = evaluator.AnyType
			} else {
				params[i] = evaluator.ValueType(p.TypeName)
			}
		}
		o.scriptFns[stmt.Name] = append(o.scriptFns[stmt.Name], params)
		o.collectScriptFns(stmt.Body.Statements)
	case *ast.ExpressionStatement:
		o.collectFromExpression(stmt.Expression)
	case *ast.LetStatement:
		o.collectFromExpression(stmt.Value)
	case *ast.ConstStatement:
		o.collectFromExpression(stmt.Value)
	case *ast.AssignStatement:
		o.collectFromExpression(stmt.Value)
	case *ast.ReturnStatement:
		if stmt.Value != nil {
			o.collectFromExpression(stmt.Value)
		}
	case *ast.BlockStatement:
		o.collectScriptFns(stmt.Statements)
	case *ast.WhileStatement:
		o.collectFromExpression(stmt.Condition)
		o.collectScriptFns(stmt.Body.Statements)
	}
}

func (o *Optimizer) collectFromExpression(expr ast.Expression) {
	switch expr := expr.(type) {
	case *ast.PrefixExpression:
		o.collectFromExpression(expr.Right)
	case *ast.InfixExpression:
		o.collectFromExpression(expr.Left)
		o.collectFromExpression(expr.Right)
	case *ast.AndExpression:
		o.collectFromExpression(expr.Left)
		o.collectFromExpression(expr.Right)
	case *ast.OrExpression:
		o.collectFromExpression(expr.Left)
		o.collectFromExpression(expr.Right)
	case *ast.IfExpression:
		o.collectFromExpression(expr.Condition)
		o.collectScriptFns(expr.Consequence.Statements)
		if expr.Alternative != nil {
			o.collectScriptFns(expr.Alternative.Statements)
		}
	case *ast.IndexExpression:
		o.collectFromExpression(expr.Left)
		o.collectFromExpression(expr.Index)
	case *ast.ArrayLiteral:
		for _, el := range expr.Elements {
			o.collectFromExpression(el)
		}
	case *ast.MapLiteral:
		for _, en := range expr.Entries {
			o.collectFromExpression(en.Value)
		}
	case *ast.CallExpression:
		for _, a := range expr.Arguments {
			o.collectFromExpression(a)
		}
	case *ast.MethodCallExpression:
		o.collectFromExpression(expr.Receiver)
		for _, a := range expr.Arguments {
			o.collectFromExpression(a)
		}
	case *ast.FunctionLiteral:
		o.collectScriptFns(expr.Body.Statements)
	}
}

// scriptOverrides reports whether a function the program defines could
// dispatch the call once registered. Matching mirrors overload
// resolution: exact tag, wildcard, or the Int-to-Float promotion.
func (o *Optimizer) scriptOverrides(name string, argTags []evaluator.ValueType) bool {
	for _, params := range o.scriptFns[name] {
		if len(params) != len(argTags) {
			continue
		}
		accepts := true
		for i, p := range params {
			if !descriptorAccepts(p, argTags[i]) {
				accepts = false
				break
			}
		}
		if accepts {
			return true
		}
	}
	return false
}

func descriptorAccepts(param, arg evaluator.ValueType) bool {
	return param == arg || param == evaluator.AnyType ||
		(param == evaluator.FloatType && arg == evaluator.IntType)
}

func (o *Optimizer) pushScope() {
	o.consts = append(o.consts, make(map[string]ast.Expression))
}

func (o *Optimizer) popScope() {
	o.consts = o.consts[:len(o.consts)-1]
}

func (o *Optimizer) recordConst(name string, value ast.Expression) {
	o.consts[len(o.consts)-1][name] = value
}

func (o *Optimizer) shadow(name string) {
	o.consts[len(o.consts)-1][name] = nil
}

func (o *Optimizer) lookupConst(name string) (ast.Expression, bool) {
	for i := len(o.consts) - 1; i >= 0; i-- {
		if expr, ok := o.consts[i][name]; ok {
			return expr, expr != nil
		}
	}
	return nil, false
}

func (o *Optimizer) optimizeStatement(stmt ast.Statement) ast.Statement {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStatement:
		return &ast.ExpressionStatement{Expression: o.optimizeExpression(stmt.Expression)}
	case *ast.LetStatement:
		value := o.optimizeExpression(stmt.Value)
		o.shadow(stmt.Name)
		return &ast.LetStatement{Name: stmt.Name, Value: value}
	case *ast.ConstStatement:
		value := o.optimizeExpression(stmt.Value)
		if isScalarLiteral(value) {
			o.recordConst(stmt.Name, value)
		} else {
			o.shadow(stmt.Name)
		}
		return &ast.ConstStatement{Name: stmt.Name, Value: value}
	case *ast.AssignStatement:
		target := stmt.Target
		if idx, ok := target.(*ast.IndexExpression); ok {
			target = &ast.IndexExpression{
				Left:  o.optimizeExpression(idx.Left),
				Index: o.optimizeExpression(idx.Index),
			}
		}
		return &ast.AssignStatement{Target: target, Value: o.optimizeExpression(stmt.Value)}
	case *ast.ReturnStatement:
		if stmt.Value == nil {
			return stmt
		}
		return &ast.ReturnStatement{Value: o.optimizeExpression(stmt.Value)}
	case *ast.BlockStatement:
		return o.optimizeBlock(stmt)
	case *ast.WhileStatement:
		return &ast.WhileStatement{
			Condition: o.optimizeExpression(stmt.Condition),
			Body:      o.optimizeBlock(stmt.Body),
		}
	case *ast.FunctionStatement:
		return &ast.FunctionStatement{
			Name:       stmt.Name,
			Parameters: stmt.Parameters,
			Body:       o.optimizeFunctionBody(stmt.Parameters, stmt.Body),
		}
	}
	return stmt
}

func (o *Optimizer) optimizeBlock(block *ast.BlockStatement) *ast.BlockStatement {
	o.pushScope()
	defer o.popScope()
	out := &ast.BlockStatement{Statements: make([]ast.Statement, len(block.Statements))}
	for i, stmt := range block.Statements {
		out.Statements[i] = o.optimizeStatement(stmt)
	}
	return out
}

// optimizeFunctionBody rewrites a function body with a fresh constant
// scope: bodies run against runtime environments, so outer const
// bindings must not leak in.
func (o *Optimizer) optimizeFunctionBody(params []*ast.Parameter, body *ast.BlockStatement) *ast.BlockStatement {
	saved := o.consts
	o.consts = nil
	o.pushScope()
	for _, p := range params {
		o.shadow(p.Name)
	}
	out := o.optimizeBlock(body)
	o.consts = saved
	return out
}

func (o *Optimizer) optimizeExpression(expr ast.Expression) ast.Expression {
	switch expr := expr.(type) {
	case *ast.Identifier:
		if value, ok := o.lookupConst(expr.Value); ok {
			return value
		}
		return expr
	case *ast.PrefixExpression:
		return o.optimizePrefix(expr)
	case *ast.InfixExpression:
		return o.optimizeInfix(expr)
	case *ast.AndExpression:
		return o.optimizeAnd(expr)
	case *ast.OrExpression:
		return o.optimizeOr(expr)
	case *ast.IfExpression:
		return o.optimizeIf(expr)
	case *ast.IndexExpression:
		return &ast.IndexExpression{
			Left:  o.optimizeExpression(expr.Left),
			Index: o.optimizeExpression(expr.Index),
		}
	case *ast.ArrayLiteral:
		elements := make([]ast.Expression, len(expr.Elements))
		for i, el := range expr.Elements {
			elements[i] = o.optimizeExpression(el)
		}
		return &ast.ArrayLiteral{Elements: elements}
	case *ast.MapLiteral:
		entries := make([]ast.MapEntry, len(expr.Entries))
		for i, en := range expr.Entries {
			entries[i] = ast.MapEntry{Key: en.Key, Value: o.optimizeExpression(en.Value)}
		}
		return &ast.MapLiteral{Entries: entries}
	case *ast.CallExpression:
		return o.optimizeCall(expr)
	case *ast.MethodCallExpression:
		args := make([]ast.Expression, len(expr.Arguments))
		for i, a := range expr.Arguments {
			args[i] = o.optimizeExpression(a)
		}
		return &ast.MethodCallExpression{
			Receiver:  o.optimizeExpression(expr.Receiver),
			Method:    expr.Method,
			Arguments: args,
		}
	case *ast.FunctionLiteral:
		return &ast.FunctionLiteral{
			Parameters: expr.Parameters,
			Body:       o.optimizeFunctionBody(expr.Parameters, expr.Body),
		}
	}
	return expr
}

func (o *Optimizer) optimizeInfix(expr *ast.InfixExpression) ast.Expression {
	left := o.optimizeExpression(expr.Left)
	right := o.optimizeExpression(expr.Right)
	out := &ast.InfixExpression{Operator: expr.Operator, Left: left, Right: right}

	lv, lok := exprToValue(left)
	rv, rok := exprToValue(right)
	if !lok || !rok {
		return out
	}
	tags := []evaluator.ValueType{lv.Type(), rv.Type()}

	if o.scriptOverrides(expr.Operator, tags) {
		// The program redefines this operator; it must dispatch at
		// runtime, after the definition is registered.
		return out
	}
	if o.eval.Registry().HasOverload(expr.Operator, tags) {
		// An override would dispatch at runtime. Simple must not invoke
		// it; Full folds right through the dispatcher.
		if o.level == Full {
			if result, err := o.eval.CallFunctionByName(expr.Operator, []evaluator.Value{lv, rv}); err == nil {
				if folded, ok := valueToExpr(result); ok {
					return folded
				}
			}
		}
		return out
	}

	result, err := evaluator.DefaultInfix(expr.Operator, lv, rv, false)
	if err != nil || result == nil {
		// Arithmetic faults surface at runtime, not at optimize time.
		return out
	}
	if folded, ok := valueToExpr(result); ok {
		return folded
	}
	return out
}

func (o *Optimizer) optimizePrefix(expr *ast.PrefixExpression) ast.Expression {
	right := o.optimizeExpression(expr.Right)
	out := &ast.PrefixExpression{Operator: expr.Operator, Right: right}

	v, ok := exprToValue(right)
	if !ok {
		return out
	}
	if o.scriptOverrides(expr.Operator, []evaluator.ValueType{v.Type()}) {
		return out
	}
	if o.eval.Registry().HasOverload(expr.Operator, []evaluator.ValueType{v.Type()}) {
		if o.level == Full {
			if result, err := o.eval.CallFunctionByName(expr.Operator, []evaluator.Value{v}); err == nil {
				if folded, ok := valueToExpr(result); ok {
					return folded
				}
			}
		}
		return out
	}
	result, err := evaluator.DefaultPrefix(expr.Operator, v, false)
	if err != nil || result == nil {
		return out
	}
	if folded, ok := valueToExpr(result); ok {
		return folded
	}
	return out
}

func (o *Optimizer) optimizeAnd(expr *ast.AndExpression) ast.Expression {
	left := o.optimizeExpression(expr.Left)
	right := o.optimizeExpression(expr.Right)

	if lb, ok := left.(*ast.BooleanLiteral); ok {
		if !lb.Value {
			// The right side would never be evaluated.
			return &ast.BooleanLiteral{Value: false}
		}
		if rb, ok := right.(*ast.BooleanLiteral); ok {
			return &ast.BooleanLiteral{Value: rb.Value}
		}
	}
	return &ast.AndExpression{Left: left, Right: right}
}

func (o *Optimizer) optimizeOr(expr *ast.OrExpression) ast.Expression {
	left := o.optimizeExpression(expr.Left)
	right := o.optimizeExpression(expr.Right)

	if lb, ok := left.(*ast.BooleanLiteral); ok {
		if lb.Value {
			return &ast.BooleanLiteral{Value: true}
		}
		if rb, ok := right.(*ast.BooleanLiteral); ok {
			return &ast.BooleanLiteral{Value: rb.Value}
		}
	}
	return &ast.OrExpression{Left: left, Right: right}
}

func (o *Optimizer) optimizeIf(expr *ast.IfExpression) ast.Expression {
	cond := o.optimizeExpression(expr.Condition)
	consequence := o.optimizeBlock(expr.Consequence)
	var alternative *ast.BlockStatement
	if expr.Alternative != nil {
		alternative = o.optimizeBlock(expr.Alternative)
	}

	if cb, ok := cond.(*ast.BooleanLiteral); ok {
		var taken *ast.BlockStatement
		if cb.Value {
			taken = consequence
		} else {
			taken = alternative
		}
		if taken == nil {
			return &ast.UnitLiteral{}
		}
		if len(taken.Statements) == 1 {
			if es, ok := taken.Statements[0].(*ast.ExpressionStatement); ok {
				return es.Expression
			}
		}
	}
	return &ast.IfExpression{Condition: cond, Consequence: consequence, Alternative: alternative}
}

// optimizeCall folds a call at Full level when every argument is a
// literal and the target resolves in the live registry. Pointers,
// currying, and the call keyword stay untouched: their late binding is
// the point.
func (o *Optimizer) optimizeCall(expr *ast.CallExpression) ast.Expression {
	args := make([]ast.Expression, len(expr.Arguments))
	for i, a := range expr.Arguments {
		args[i] = o.optimizeExpression(a)
	}
	out := &ast.CallExpression{Namespace: expr.Namespace, Function: expr.Function, Arguments: args}

	if o.level != Full || len(expr.Namespace) > 0 {
		return out
	}
	switch expr.Function {
	case config.FnPtrFuncName, config.CurryFuncName, config.CallFuncName:
		return out
	}

	values := make([]evaluator.Value, len(args))
	tags := make([]evaluator.ValueType, len(args))
	for i, a := range args {
		v, ok := exprToValue(a)
		if !ok {
			return out
		}
		values[i] = v
		tags[i] = v.Type()
	}
	if o.scriptOverrides(expr.Function, tags) {
		return out
	}

	result, err := o.eval.CallFunctionByName(expr.Function, values)
	if err != nil {
		return out
	}
	if folded, ok := valueToExpr(result); ok {
		return folded
	}
	return out
}

func isScalarLiteral(expr ast.Expression) bool {
	_, ok := exprToValue(expr)
	return ok
}

// exprToValue maps scalar literal nodes to values. Containers are left
// as displays so aliasing semantics survive optimization.
func exprToValue(expr ast.Expression) (evaluator.Value, bool) {
	switch expr := expr.(type) {
	case *ast.UnitLiteral:
		return evaluator.UNIT, true
	case *ast.BooleanLiteral:
		return evaluator.BoolValue(expr.Value), true
	case *ast.IntegerLiteral:
		return &evaluator.Integer{Value: expr.Value}, true
	case *ast.FloatLiteral:
		return &evaluator.Float{Value: expr.Value}, true
	case *ast.CharLiteral:
		return &evaluator.Char{Value: expr.Value}, true
	case *ast.StringLiteral:
		return &evaluator.String{Value: expr.Value}, true
	}
	return nil, false
}

func valueToExpr(v evaluator.Value) (ast.Expression, bool) {
	switch v := v.(type) {
	case *evaluator.Unit:
		return &ast.UnitLiteral{}, true
	case *evaluator.Boolean:
		return &ast.BooleanLiteral{Value: v.Value}, true
	case *evaluator.Integer:
		return &ast.IntegerLiteral{Value: v.Value}, true
	case *evaluator.Float:
		return &ast.FloatLiteral{Value: v.Value}, true
	case *evaluator.Char:
		return &ast.CharLiteral{Value: v.Value}, true
	case *evaluator.String:
		return &ast.StringLiteral{Value: v.Value}, true
	}
	return nil, false
}
