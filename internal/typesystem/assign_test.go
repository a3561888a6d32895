package typesystem

import (
	"testing"

	"github.com/funvibe/sigcheck/internal/config"
)

func TestAssignable(t *testing.T) {
	classes := classTable{"Dog": "Animal", "Cat": "Animal"}
	a := NewAssigner(config.DefaultPolicy(), classes)
	strict := NewAssigner(config.Policy{}, classes)

	animal := TClass{Name: "Animal"}
	dog := TClass{Name: "Dog"}
	foo := TClass{Name: "Foo"}

	tests := []struct {
		name     string
		a        Assigner
		expected Type
		actual   Type
		want     bool
	}{
		{"int to int", a, Int, Int, true},
		{"str to int", a, Int, Str, false},
		{"bytes to str", a, Str, Bytes, false},
		{"bool to int by policy", a, Int, Bool, true},
		{"bool to int strict", strict, Int, Bool, false},
		{"int to float by policy", a, Float, Int, true},
		{"int to float strict", strict, Float, Int, false},
		{"anything to object", a, Object, foo, true},
		{"any to int", a, Int, TAny{}, true},
		{"int to any", a, TAny{}, Int, true},
		{"same class", a, foo, foo, true},
		{"subclass", a, animal, dog, true},
		{"superclass", a, dog, animal, false},
		{"unrelated class", a, foo, dog, false},
		{"primitive to class", a, foo, Int, false},
		{"None to Optional", a, NewOptional(Int), TNone{}, true},
		{"T to Optional[T]", a, NewOptional(Int), Int, true},
		{"Optional to Optional", a, NewOptional(animal), NewOptional(dog), true},
		{"Optional to T", a, Int, NewOptional(Int), false},
		{"None to int", a, Int, TNone{}, false},
		{"tuple element-wise", a, TTuple{Elements: []Type{Int, Str}}, TTuple{Elements: []Type{Bool, Str}}, true},
		{"tuple length", a, TTuple{Elements: []Type{Int}}, TTuple{Elements: []Type{Int, Int}}, false},
		{"list same element", a, ListOf(dog), ListOf(dog), true},
		{"list is invariant", a, ListOf(animal), ListOf(dog), false},
		{"list of any", a, ListOf(Int), ListOf(TAny{}), true},
		{"bounded var member", a, TVar{Name: "S", Constraints: []Type{Str, Bytes}}, Bytes, true},
		{"bounded var non-member", a, TVar{Name: "S", Constraints: []Type{Str, Bytes}}, Int, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Assignable(tt.expected, tt.actual); got != tt.want {
				t.Errorf("Assignable(%s, %s) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	classes := classTable{"Dog": "Animal", "Cat": "Animal", "Puppy": "Dog"}
	a := NewAssigner(config.DefaultPolicy(), classes)

	tests := []struct {
		name string
		x, y Type
		want string
	}{
		{"same", Str, Str, "str"},
		{"str and bytes", Str, Bytes, "object"},
		{"bool widens to int", Bool, Int, "int"},
		{"None makes Optional", TNone{}, Int, "Optional[int]"},
		{"siblings share base", TClass{Name: "Puppy"}, TClass{Name: "Cat"}, "Animal"},
		{"unrelated classes", TClass{Name: "Dog"}, TClass{Name: "Foo"}, "object"},
		{"any wins", Int, TAny{}, "Any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Join(tt.x, tt.y).String(); got != tt.want {
				t.Errorf("Join(%s, %s) = %s, want %s", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if got := a.JoinAll(nil); got.String() != "Any" {
		t.Errorf("JoinAll(nil) = %s, want Any", got)
	}
}

func TestIsSubclassStopsOnCycles(t *testing.T) {
	a := NewAssigner(config.DefaultPolicy(), classTable{"A": "B", "B": "A"})
	if a.IsSubclass("A", "C") {
		t.Error("cyclic hierarchy should not reach C")
	}
	if !a.IsSubclass("A", "B") {
		t.Error("A derives from B")
	}
}
