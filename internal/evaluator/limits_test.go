package evaluator

import (
	"math"
	"testing"

	"github.com/quoll-lang/quoll/internal/ast"
)

func runLimited(t *testing.T, reg *Registry, limits Limits, prog *ast.Program) (Value, *Error) {
	t.Helper()
	ev := New(reg)
	ev.SetLimits(limits)
	return ev.Evaluate(prog, NewEnvironment())
}

// recProgram defines fn rec(n) { if n <= 0 { return 0 } return rec(n - 1) }
// and calls rec(start). The call occupies start+1 stack frames.
func recProgram(start int64) *ast.Program {
	return progOf(
		&ast.FunctionStatement{
			Name:       "rec",
			Parameters: []*ast.Parameter{anyParam("n")},
			Body: block(
				exprStmt(&ast.IfExpression{
					Condition:   infix("<=", ident("n"), intLit(0)),
					Consequence: block(&ast.ReturnStatement{Value: intLit(0)}),
				}),
				&ast.ReturnStatement{Value: callExpr("rec", infix("-", ident("n"), intLit(1)))},
			),
		},
		exprStmt(callExpr("rec", intLit(start))),
	)
}

func TestCallDepthLimit(t *testing.T) {
	reg := NewRegistry()
	limits := Limits{MaxCallDepth: 10}

	// Recursion through exactly the configured depth succeeds.
	result, err := runLimited(t, reg, limits, recProgram(9))
	if err != nil {
		t.Fatalf("recursion within the limit failed: %s", err.Error())
	}
	wantInt(t, result, 0)

	// One frame deeper fails, and the callee body never runs.
	_, err = runLimited(t, reg, limits, recProgram(10))
	if err == nil {
		t.Fatal("expected the depth ceiling to trip")
	}
	wantErrorKind(t, err, ErrCallStackOverflow)
	if err.Limit != 10 {
		t.Errorf("expected limit context 10, got %d", err.Limit)
	}
}

func TestZeroCeilingMeansUnlimited(t *testing.T) {
	reg := NewRegistry()
	result, err := runLimited(t, reg, Limits{}, recProgram(200))
	if err != nil {
		t.Fatalf("zero ceilings must not constrain: %s", err.Error())
	}
	wantInt(t, result, 0)
}

func TestOperationLimitStopsInfiniteLoop(t *testing.T) {
	reg := NewRegistry()
	prog := progOf(&ast.WhileStatement{
		Condition: boolLit(true),
		Body:      block(),
	})

	_, err := runLimited(t, reg, Limits{MaxOperations: 100}, prog)
	if err == nil {
		t.Fatal("expected the operation ceiling to trip")
	}
	wantErrorKind(t, err, ErrTooManyOperations)
	if err.Limit != 100 {
		t.Errorf("expected limit context 100, got %d", err.Limit)
	}
}

func TestCancellationHook(t *testing.T) {
	reg := NewRegistry()
	prog := progOf(&ast.WhileStatement{
		Condition: boolLit(true),
		Body:      block(),
	})

	var polled uint64
	ev := New(reg)
	ev.SetProgress(func(ops uint64) bool {
		polled = ops
		return ops >= 25
	})
	_, err := ev.Evaluate(prog, NewEnvironment())
	if err == nil {
		t.Fatal("expected the hook to terminate the evaluation")
	}
	wantErrorKind(t, err, ErrScriptTerminated)
	if polled < 25 {
		t.Errorf("hook must see the running operation count, last saw %d", polled)
	}
}

func TestStringSizeLimit(t *testing.T) {
	reg := NewRegistry()
	_, err := runLimited(t, reg, Limits{MaxStringSize: 5},
		progOf(exprStmt(infix("+", strLit("abc"), strLit("defg")))))
	if err == nil {
		t.Fatal("expected the string ceiling to trip")
	}
	wantErrorKind(t, err, ErrDataTooLarge)
	if err.LimitKind != "string" || err.Limit != 5 {
		t.Errorf("unexpected limit context %s/%d", err.LimitKind, err.Limit)
	}

	// Results within the ceiling commit normally.
	result, err := runLimited(t, reg, Limits{MaxStringSize: 5},
		progOf(exprStmt(infix("+", strLit("ab"), strLit("cde")))))
	if err != nil {
		t.Fatal(err)
	}
	wantString(t, result, "abcde")
}

func TestArraySizeLimit(t *testing.T) {
	reg := NewRegistry()

	big := &ast.ArrayLiteral{Elements: []ast.Expression{intLit(1), intLit(2), intLit(3)}}
	_, err := runLimited(t, reg, Limits{MaxArraySize: 2}, progOf(exprStmt(big)))
	if err == nil {
		t.Fatal("expected the array ceiling to trip on a literal")
	}
	wantErrorKind(t, err, ErrDataTooLarge)

	// Concatenation growing past the ceiling is rejected before the
	// result escapes.
	concat := infix("+",
		&ast.ArrayLiteral{Elements: []ast.Expression{intLit(1), intLit(2)}},
		&ast.ArrayLiteral{Elements: []ast.Expression{intLit(3)}})
	_, err = runLimited(t, reg, Limits{MaxArraySize: 2}, progOf(exprStmt(concat)))
	if err == nil {
		t.Fatal("expected the array ceiling to trip on concatenation")
	}
	wantErrorKind(t, err, ErrDataTooLarge)
}

func TestMapSizeLimit(t *testing.T) {
	reg := NewRegistry()
	prog := progOf(
		letStmt("m", &ast.MapLiteral{Entries: []ast.MapEntry{{Key: "a", Value: intLit(1)}}}),
		&ast.AssignStatement{
			Target: &ast.IndexExpression{Left: ident("m"), Index: strLit("b")},
			Value:  intLit(2),
		},
	)

	_, err := runLimited(t, reg, Limits{MaxMapSize: 1}, prog)
	if err == nil {
		t.Fatal("expected the map ceiling to trip on growth")
	}
	wantErrorKind(t, err, ErrDataTooLarge)

	// Overwriting an existing key is not growth.
	overwrite := progOf(
		letStmt("m", &ast.MapLiteral{Entries: []ast.MapEntry{{Key: "a", Value: intLit(1)}}}),
		&ast.AssignStatement{
			Target: &ast.IndexExpression{Left: ident("m"), Index: strLit("a")},
			Value:  intLit(2),
		},
	)
	if _, err := runLimited(t, reg, Limits{MaxMapSize: 1}, overwrite); err != nil {
		t.Fatalf("overwrite within the ceiling failed: %s", err.Error())
	}

	// A literal with duplicate keys commits fewer entries than it
	// lists; the ceiling applies to the committed count.
	dup := progOf(exprStmt(&ast.MapLiteral{Entries: []ast.MapEntry{
		{Key: "a", Value: intLit(1)},
		{Key: "a", Value: intLit(2)},
	}}))
	v, err := runLimited(t, reg, Limits{MaxMapSize: 1}, dup)
	if err != nil {
		t.Fatalf("duplicate-key literal within the ceiling failed: %s", err.Error())
	}
	m, merr := AsMap(v)
	if merr != nil {
		t.Fatal(merr.Error())
	}
	if m.Len() != 1 {
		t.Errorf("expected one committed entry, got %d", m.Len())
	}
	distinct := progOf(exprStmt(&ast.MapLiteral{Entries: []ast.MapEntry{
		{Key: "a", Value: intLit(1)},
		{Key: "b", Value: intLit(2)},
	}}))
	if _, err := runLimited(t, reg, Limits{MaxMapSize: 1}, distinct); err == nil {
		t.Fatal("expected two distinct keys to trip the ceiling")
	}
}

func TestExpressionDepthLimit(t *testing.T) {
	reg := NewRegistry()

	// ((1+2)+3) nests three expression levels.
	threeDeep := infix("+", infix("+", intLit(1), intLit(2)), intLit(3))
	result, err := runLimited(t, reg, Limits{MaxExprDepth: 3}, progOf(exprStmt(threeDeep)))
	if err != nil {
		t.Fatalf("nesting within the limit failed: %s", err.Error())
	}
	wantInt(t, result, 6)

	fourDeep := infix("+", threeDeep, intLit(4))
	_, err = runLimited(t, reg, Limits{MaxExprDepth: 3}, progOf(exprStmt(fourDeep)))
	if err == nil {
		t.Fatal("expected the nesting ceiling to trip")
	}
	wantErrorKind(t, err, ErrExpressionTooDeep)
}

func TestUncheckedModeDisablesChecks(t *testing.T) {
	reg := NewRegistry()

	// Arithmetic wraps instead of faulting.
	result, err := runLimited(t, reg, Limits{Unchecked: true},
		progOf(exprStmt(infix("+", intLit(math.MaxInt64), intLit(1)))))
	if err != nil {
		t.Fatalf("unchecked overflow must wrap: %s", err.Error())
	}
	wantInt(t, result, math.MinInt64)

	// Ceilings are ignored entirely.
	limits := Limits{MaxCallDepth: 2, MaxExprDepth: 2, MaxArraySize: 1, Unchecked: true}
	result, err = runLimited(t, reg, limits, recProgram(20))
	if err != nil {
		t.Fatalf("unchecked mode must skip the depth ceiling: %s", err.Error())
	}
	wantInt(t, result, 0)
}

func TestGovernorCheckpoints(t *testing.T) {
	g := NewGovernor(Limits{MaxCallDepth: 1, MaxOperations: 2}, nil)

	if err := g.Step(); err != nil {
		t.Fatal(err)
	}
	if err := g.Step(); err != nil {
		t.Fatal(err)
	}
	if err := g.Step(); err == nil {
		t.Fatal("third step must exceed the two-operation ceiling")
	} else {
		wantErrorKind(t, err, ErrTooManyOperations)
	}
	if g.Ops() != 3 {
		t.Errorf("expected 3 counted operations, got %d", g.Ops())
	}

	if err := g.EnterCall(); err != nil {
		t.Fatal(err)
	}
	if err := g.EnterCall(); err == nil {
		t.Fatal("second frame must exceed the depth ceiling")
	} else {
		wantErrorKind(t, err, ErrCallStackOverflow)
	}
	if g.Depth() != 1 {
		t.Errorf("a rejected frame must not count, depth is %d", g.Depth())
	}
	g.ExitCall()
	if g.Depth() != 0 {
		t.Errorf("expected depth 0 after exit, got %d", g.Depth())
	}
}
