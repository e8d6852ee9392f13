package optimizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quoll-lang/quoll/internal/ast"
	"github.com/quoll-lang/quoll/internal/evaluator"
)

func progOf(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Statements: stmts}
}

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expression: e}
}

func intLit(v int64) *ast.IntegerLiteral { return &ast.IntegerLiteral{Value: v} }
func strLit(v string) *ast.StringLiteral { return &ast.StringLiteral{Value: v} }
func boolLit(v bool) *ast.BooleanLiteral { return &ast.BooleanLiteral{Value: v} }
func ident(name string) *ast.Identifier  { return &ast.Identifier{Value: name} }

func infix(op string, left, right ast.Expression) *ast.InfixExpression {
	return &ast.InfixExpression{Operator: op, Left: left, Right: right}
}

func callExpr(name string, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Function: name, Arguments: args}
}

func optimize(level Level, reg *evaluator.Registry, prog *ast.Program) *ast.Program {
	return New(level, evaluator.New(reg)).Optimize(prog)
}

func wantProgram(t *testing.T, got, want *ast.Program) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rewritten program mismatch (-want +got):\n%s", diff)
	}
}

func TestNoneIsIdentity(t *testing.T) {
	prog := progOf(exprStmt(infix("+", intLit(1), intLit(2))))
	got := optimize(None, evaluator.NewRegistry(), prog)
	if got != prog {
		t.Fatal("level none must return the input program untouched")
	}
}

func TestSimpleFoldsLiteralOperators(t *testing.T) {
	reg := evaluator.NewRegistry()

	tests := []struct {
		name string
		in   ast.Expression
		want ast.Expression
	}{
		{"arithmetic", infix("+", intLit(1), infix("*", intLit(2), intLit(3))), intLit(7)},
		{"comparison", infix("<", intLit(1), intLit(2)), boolLit(true)},
		{"string concat", infix("+", strLit("ab"), strLit("cd")), strLit("abcd")},
		{"prefix", &ast.PrefixExpression{Operator: "-", Right: intLit(5)}, intLit(-5)},
		{"not", &ast.PrefixExpression{Operator: "!", Right: boolLit(true)}, boolLit(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := optimize(Simple, reg, progOf(exprStmt(tt.in)))
			wantProgram(t, got, progOf(exprStmt(tt.want)))
		})
	}
}

func TestSimpleFoldsDecidedControlFlow(t *testing.T) {
	reg := evaluator.NewRegistry()

	// if true { 1 } else { 2 }  =>  1
	got := optimize(Simple, reg, progOf(exprStmt(&ast.IfExpression{
		Condition:   boolLit(true),
		Consequence: &ast.BlockStatement{Statements: []ast.Statement{exprStmt(intLit(1))}},
		Alternative: &ast.BlockStatement{Statements: []ast.Statement{exprStmt(intLit(2))}},
	})))
	wantProgram(t, got, progOf(exprStmt(intLit(1))))

	// if false { 1 }  =>  ()
	got = optimize(Simple, reg, progOf(exprStmt(&ast.IfExpression{
		Condition:   boolLit(false),
		Consequence: &ast.BlockStatement{Statements: []ast.Statement{exprStmt(intLit(1))}},
	})))
	wantProgram(t, got, progOf(exprStmt(&ast.UnitLiteral{})))

	// false && f()  =>  false, without touching the right side.
	got = optimize(Simple, reg, progOf(exprStmt(&ast.AndExpression{
		Left:  boolLit(false),
		Right: callExpr("f"),
	})))
	wantProgram(t, got, progOf(exprStmt(boolLit(false))))

	// true || f()  =>  true
	got = optimize(Simple, reg, progOf(exprStmt(&ast.OrExpression{
		Left:  boolLit(true),
		Right: callExpr("f"),
	})))
	wantProgram(t, got, progOf(exprStmt(boolLit(true))))

	// true && x stays: x is not a literal.
	undecided := &ast.AndExpression{Left: boolLit(true), Right: ident("x")}
	got = optimize(Simple, reg, progOf(exprStmt(undecided)))
	wantProgram(t, got, progOf(exprStmt(undecided)))
}

func TestSimpleConstPropagation(t *testing.T) {
	reg := evaluator.NewRegistry()

	got := optimize(Simple, reg, progOf(
		&ast.ConstStatement{Name: "k", Value: intLit(40)},
		exprStmt(infix("+", ident("k"), intLit(2))),
	))
	wantProgram(t, got, progOf(
		&ast.ConstStatement{Name: "k", Value: intLit(40)},
		exprStmt(intLit(42)),
	))

	// let bindings are mutable and never propagate.
	got = optimize(Simple, reg, progOf(
		&ast.LetStatement{Name: "x", Value: intLit(40)},
		exprStmt(infix("+", ident("x"), intLit(2))),
	))
	wantProgram(t, got, progOf(
		&ast.LetStatement{Name: "x", Value: intLit(40)},
		exprStmt(infix("+", ident("x"), intLit(2))),
	))

	// A function body starts a fresh scope: outer consts do not reach
	// into code that runs against a runtime environment of its own.
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: ident("k")},
	}}
	got = optimize(Simple, reg, progOf(
		&ast.ConstStatement{Name: "k", Value: intLit(1)},
		&ast.FunctionStatement{Name: "f", Body: body},
	))
	wantProgram(t, got, progOf(
		&ast.ConstStatement{Name: "k", Value: intLit(1)},
		&ast.FunctionStatement{Name: "f", Body: body},
	))
}

func TestSimpleSkipsOverriddenOperator(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register(nil, &evaluator.Function{
		Sig: evaluator.Signature{Name: "+", Params: []evaluator.Param{
			{Name: "a", Type: evaluator.IntType}, {Name: "b", Type: evaluator.IntType},
		}},
		Origin: evaluator.NativeOrigin,
		Return: evaluator.IntType,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			return &evaluator.Integer{Value: 42}, nil
		},
	})

	// 1+1 must stay an operator node so the override dispatches at
	// runtime; 1.0+1.0 has no override and folds.
	ev := evaluator.New(reg)
	opt := New(Simple, ev)
	got := opt.Optimize(progOf(
		exprStmt(infix("+", intLit(1), intLit(1))),
		exprStmt(infix("+", &ast.FloatLiteral{Value: 1.0}, &ast.FloatLiteral{Value: 1.0})),
	))
	wantProgram(t, got, progOf(
		exprStmt(infix("+", intLit(1), intLit(1))),
		exprStmt(&ast.FloatLiteral{Value: 2.0}),
	))

	// Running the preserved node dispatches the override.
	result, err := ev.Evaluate(got, evaluator.NewEnvironment())
	if err != nil {
		t.Fatalf("evaluation failed: %s", err.Error())
	}
	if f, ferr := evaluator.AsFloat(result); ferr != nil || f != 2.0 {
		t.Errorf("expected 2.0, got %s", result.Inspect())
	}
	first, err := ev.Evaluate(progOf(got.Statements[0]), evaluator.NewEnvironment())
	if err != nil {
		t.Fatalf("evaluation failed: %s", err.Error())
	}
	if n, nerr := evaluator.AsInt(first); nerr != nil || n != 42 {
		t.Errorf("override must produce 42, got %s", first.Inspect())
	}
}

func TestFoldingRespectsScriptDefinedOverrides(t *testing.T) {
	// fn +(a: Int, b: Int) { return 42 }
	// 1 + 1
	makeProg := func() *ast.Program {
		return progOf(
			&ast.FunctionStatement{
				Name: "+",
				Parameters: []*ast.Parameter{
					{Name: "a", TypeName: "Int"},
					{Name: "b", TypeName: "Int"},
				},
				Body: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.ReturnStatement{Value: intLit(42)},
				}},
			},
			exprStmt(infix("+", intLit(1), intLit(1))),
		)
	}

	for _, level := range []Level{Simple, Full} {
		reg := evaluator.NewRegistry()
		ev := evaluator.New(reg)
		got := New(level, ev).Optimize(makeProg())

		es, ok := got.Statements[1].(*ast.ExpressionStatement)
		if !ok {
			t.Fatalf("unexpected statement %T", got.Statements[1])
		}
		if _, ok := es.Expression.(*ast.InfixExpression); !ok {
			t.Fatalf("folded through an operator the program itself defines: %s",
				es.Expression.String())
		}

		// Optimized and unoptimized evaluation must agree.
		result, err := ev.Evaluate(got, evaluator.NewEnvironment())
		if err != nil {
			t.Fatalf("evaluation failed: %s", err.Error())
		}
		if n, nerr := evaluator.AsInt(result); nerr != nil || n != 42 {
			t.Errorf("expected the script override result 42, got %s", result.Inspect())
		}
	}

	// Same guard for named calls at the full level: the program
	// redefines a native, and hoisting makes the script version win at
	// runtime, so folding through the native would change the result.
	reg := evaluator.NewRegistry()
	reg.Register(nil, &evaluator.Function{
		Sig:    evaluator.Signature{Name: "tag", Params: []evaluator.Param{{Name: "x", Type: evaluator.IntType}}},
		Origin: evaluator.NativeOrigin,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			n, _ := evaluator.AsInt(args[0])
			return &evaluator.Integer{Value: n * 2}, nil
		},
	})
	prog := progOf(
		exprStmt(callExpr("tag", intLit(7))),
		&ast.FunctionStatement{
			Name:       "tag",
			Parameters: []*ast.Parameter{{Name: "x", TypeName: "Int"}},
			Body: &ast.BlockStatement{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: infix("+", ident("x"), intLit(1))},
			}},
		},
	)
	ev := evaluator.New(reg)
	got := New(Full, ev).Optimize(prog)
	es := got.Statements[0].(*ast.ExpressionStatement)
	if _, ok := es.Expression.(*ast.CallExpression); !ok {
		t.Fatalf("folded a call whose target is redefined by the program: %s",
			es.Expression.String())
	}
	result, err := ev.Evaluate(progOf(got.Statements[1], got.Statements[0]), evaluator.NewEnvironment())
	if err != nil {
		t.Fatalf("evaluation failed: %s", err.Error())
	}
	if n, nerr := evaluator.AsInt(result); nerr != nil || n != 8 {
		t.Errorf("expected the hoisted script definition to win with 8, got %s", result.Inspect())
	}
}

func TestSimpleNeverInvokesFunctions(t *testing.T) {
	reg := evaluator.NewRegistry()
	called := false
	reg.Register(nil, &evaluator.Function{
		Sig:    evaluator.Signature{Name: "double", Params: []evaluator.Param{{Name: "x", Type: evaluator.IntType}}},
		Origin: evaluator.NativeOrigin,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			called = true
			n, _ := evaluator.AsInt(args[0])
			return &evaluator.Integer{Value: n * 2}, nil
		},
	})

	in := progOf(exprStmt(callExpr("double", intLit(21))))
	got := optimize(Simple, reg, in)
	wantProgram(t, got, in)
	if called {
		t.Fatal("simple level must not invoke registered functions")
	}
}

func TestFullFoldsResolvableCalls(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register(nil, &evaluator.Function{
		Sig:    evaluator.Signature{Name: "double", Params: []evaluator.Param{{Name: "x", Type: evaluator.IntType}}},
		Origin: evaluator.NativeOrigin,
		Return: evaluator.IntType,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			n, _ := evaluator.AsInt(args[0])
			return &evaluator.Integer{Value: n * 2}, nil
		},
	})

	got := optimize(Full, reg, progOf(exprStmt(callExpr("double", intLit(21)))))
	wantProgram(t, got, progOf(exprStmt(intLit(42))))

	// Unresolvable calls and calls with non-literal arguments survive.
	got = optimize(Full, reg, progOf(exprStmt(callExpr("missing", intLit(1)))))
	wantProgram(t, got, progOf(exprStmt(callExpr("missing", intLit(1)))))

	got = optimize(Full, reg, progOf(exprStmt(callExpr("double", ident("x")))))
	wantProgram(t, got, progOf(exprStmt(callExpr("double", ident("x")))))
}

func TestFullFoldsOverriddenOperator(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register(nil, &evaluator.Function{
		Sig: evaluator.Signature{Name: "+", Params: []evaluator.Param{
			{Name: "a", Type: evaluator.IntType}, {Name: "b", Type: evaluator.IntType},
		}},
		Origin: evaluator.NativeOrigin,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			return &evaluator.Integer{Value: 42}, nil
		},
	})

	got := optimize(Full, reg, progOf(exprStmt(infix("+", intLit(1), intLit(1)))))
	wantProgram(t, got, progOf(exprStmt(intLit(42))))
}

func TestFullLeavesPointerKeywordsAlone(t *testing.T) {
	reg := evaluator.NewRegistry()

	in := progOf(
		exprStmt(callExpr("Fn", strLit("tgt"))),
		exprStmt(callExpr("call", ident("p"))),
		exprStmt(callExpr("curry", ident("p"), intLit(1))),
	)
	got := optimize(Full, reg, in)
	wantProgram(t, got, in)
}

func TestFullRunsSideEffectsAtOptimizeTime(t *testing.T) {
	reg := evaluator.NewRegistry()
	ticks := 0
	reg.Register(nil, &evaluator.Function{
		Sig:    evaluator.Signature{Name: "tick"},
		Origin: evaluator.NativeOrigin,
		Return: evaluator.IntType,
		Native: func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
			ticks++
			return &evaluator.Integer{Value: int64(ticks)}, nil
		},
	})

	got := optimize(Full, reg, progOf(exprStmt(callExpr("tick"))))
	wantProgram(t, got, progOf(exprStmt(intLit(1))))
	if ticks != 1 {
		t.Errorf("the folded call must have run exactly once, ran %d times", ticks)
	}
}

func TestArithmeticFaultsDeferToRuntime(t *testing.T) {
	reg := evaluator.NewRegistry()

	// 1/0 cannot fold; the fault belongs to evaluation.
	in := progOf(exprStmt(infix("/", intLit(1), intLit(0))))
	got := optimize(Simple, reg, in)
	wantProgram(t, got, in)
}

func TestContainerLiteralsOptimizeElementWise(t *testing.T) {
	reg := evaluator.NewRegistry()

	got := optimize(Simple, reg, progOf(exprStmt(&ast.ArrayLiteral{
		Elements: []ast.Expression{infix("+", intLit(1), intLit(1)), ident("x")},
	})))
	wantProgram(t, got, progOf(exprStmt(&ast.ArrayLiteral{
		Elements: []ast.Expression{intLit(2), ident("x")},
	})))

	got = optimize(Simple, reg, progOf(exprStmt(&ast.MapLiteral{
		Entries: []ast.MapEntry{{Key: "a", Value: infix("*", intLit(6), intLit(7))}},
	})))
	wantProgram(t, got, progOf(exprStmt(&ast.MapLiteral{
		Entries: []ast.MapEntry{{Key: "a", Value: intLit(42)}},
	})))
}

func TestLevelFromName(t *testing.T) {
	cases := map[string]Level{"none": None, "simple": Simple, "full": Full}
	for name, want := range cases {
		got, ok := LevelFromName(name)
		if !ok || got != want {
			t.Errorf("LevelFromName(%q) = %v, %t", name, got, ok)
		}
	}
	if _, ok := LevelFromName("aggressive"); ok {
		t.Error("unknown level names must be rejected")
	}
}
