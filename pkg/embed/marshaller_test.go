package quoll_test

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quoll-lang/quoll/internal/evaluator"
	quoll "github.com/quoll-lang/quoll/pkg/embed"
)

func TestToValue(t *testing.T) {
	m := quoll.NewMarshaller()

	tests := []struct {
		name string
		in   any
		tag  evaluator.ValueType
		want string
	}{
		{"int", 42, evaluator.IntType, "42"},
		{"uint16", uint16(7), evaluator.IntType, "7"},
		{"float", 2.5, evaluator.FloatType, "2.5"},
		{"bool", true, evaluator.BoolType, "true"},
		{"string", "hi", evaluator.StringType, "hi"},
		{"nil", nil, evaluator.UnitType, "()"},
		{"slice", []int{1, 2}, evaluator.ArrayType, "[1, 2]"},
		{"map", map[string]int{"a": 1}, evaluator.MapType, "#{a: 1}"},
		{"passthrough", evaluator.TRUE, evaluator.BoolType, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if v.Type() != tt.tag {
				t.Errorf("expected tag %s, got %s", tt.tag, v.Type())
			}
			if v.Inspect() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, v.Inspect())
			}
		})
	}

	if _, err := m.ToValue(map[int]string{1: "a"}); err == nil {
		t.Error("non-string map keys must be rejected")
	}
	if _, err := m.ToValue(struct{}{}); err == nil {
		t.Error("unsupported Go kinds must be rejected")
	}
}

func TestFromValue(t *testing.T) {
	m := quoll.NewMarshaller()

	got, err := m.FromValue(&evaluator.Integer{Value: 42}, reflect.TypeOf(int(0)))
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("expected int 42, got %#v", got)
	}

	// An integer argument fills a float64 parameter.
	got, err = m.FromValue(&evaluator.Integer{Value: 3}, reflect.TypeOf(float64(0)))
	if err != nil {
		t.Fatal(err)
	}
	if got != 3.0 {
		t.Errorf("expected float64 3, got %#v", got)
	}

	arr := evaluator.NewArray([]evaluator.Value{
		&evaluator.Integer{Value: 1},
		&evaluator.Integer{Value: 2},
	})
	got, err = m.FromValue(arr, reflect.TypeOf([]int(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("slice conversion mismatch (-want +got):\n%s", diff)
	}

	mv := evaluator.NewMap()
	mv.Set("a", &evaluator.Integer{Value: 1})
	got, err = m.FromValue(mv, reflect.TypeOf(map[string]int(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"a": 1}, got); diff != "" {
		t.Errorf("map conversion mismatch (-want +got):\n%s", diff)
	}

	got, err = m.FromValue(evaluator.UNIT, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("unit must convert to nil, got %#v", got)
	}

	// Shared cells convert through their payload.
	cell := evaluator.NewShared(&evaluator.String{Value: "hi"}, false)
	got, err = m.FromValue(cell, reflect.TypeOf(""))
	if err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Errorf("expected the cell payload, got %#v", got)
	}

	if _, err := m.FromValue(&evaluator.FnPtr{Name: "f"}, reflect.TypeOf(int(0))); err == nil {
		t.Error("function pointers have no Go counterpart")
	}
}
