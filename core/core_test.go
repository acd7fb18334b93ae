package core

import (
	"errors"
	"testing"
)

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name   string
		r      Rect
		bounds Rect
		want   Rect
	}{
		{"Inside", Rect{10, 10, 20, 20}, Rect{0, 0, 100, 100}, Rect{10, 10, 20, 20}},
		{"LeftEdge", Rect{-30, 10, 100, 10}, Rect{0, 0, 100, 100}, Rect{0, 10, 70, 10}},
		{"Disjoint", Rect{200, 0, 10, 10}, Rect{0, 0, 100, 100}, Rect{200, 0, -100, 10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Intersect(tc.bounds); got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestRect_OffsetArea(t *testing.T) {
	r := Rect{X: 50, Y: 40, Width: 3, Height: 4}.Offset(10, 20)
	if r.X != 40 || r.Y != 20 || r.Right() != 43 || r.Bottom() != 24 {
		t.Errorf("Unexpected offset rect %+v", r)
	}
	if a := (Rect{Width: 100000, Height: 100000}).Area(); a != 1e10 {
		t.Errorf("Expected 1e10, got %v", a)
	}
}

func TestObjectClass(t *testing.T) {
	for c := ClassMob; c <= ClassLadderRope; c++ {
		if !c.Valid() {
			t.Errorf("Expected %s valid", c)
		}
		parsed, err := ParseObjectClass(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseObjectClass(%s): got %v, %v", c, parsed, err)
		}
	}
	if ClassUnknown.Valid() || ObjectClass(0).Valid() {
		t.Error("Expected Unknown and zero invalid")
	}
	if c, err := ParseObjectClass("mob"); err != nil || c != ClassMob {
		t.Errorf("Expected case-insensitive parse, got %v, %v", c, err)
	}
	if _, err := ParseObjectClass("Boss"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

func TestNewSample_OwnsItems(t *testing.T) {
	items := []TargetItem{{ID: 1, Class: ClassMob}}
	s := NewSample(nil, 10, 10, items)
	items[0].Class = ClassNpc
	if s.Items[0].Class != ClassMob {
		t.Error("Expected sample to own a copy of its items")
	}
	if s.FileName() != s.ID.String()+".jpg" {
		t.Errorf("Unexpected file name %s", s.FileName())
	}
	if NewSample(nil, 1, 1, nil).ID == s.ID {
		t.Error("Expected distinct sample ids")
	}
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := run()
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" || len(pe.Stack) == 0 {
		t.Errorf("Expected PanicError(boom) with stack, got %v", err)
	}
}

func TestGo_UsesCrashHandler(t *testing.T) {
	got := make(chan any, 1)
	SetCrashHandler(func(r any, stack []byte) { got <- r })
	defer SetCrashHandler(nil)

	Go(func() { panic("render") })
	if r := <-got; r != "render" {
		t.Errorf("Expected render panic, got %v", r)
	}
}
