package tree

import "testing"

func TestGetSet_RoundTrip(t *testing.T) {
	cases := []string{
		"name",
		"name.given",
		"identifier[0].value",
		"name[0].given[0]",
		"a.b.c[2].d",
	}
	for _, path := range cases {
		t.Run(path, func(t *testing.T) {
			root := NewMap()
			if err := Set(root, path, "X"); err != nil {
				t.Fatalf("Set(%q) error: %v", path, err)
			}
			got, ok, err := Get(root, path)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", path, err)
			}
			if !ok {
				t.Fatalf("Get(%q) reported missing after Set", path)
			}
			if got != "X" {
				t.Fatalf("Get(%q) = %v, want X", path, got)
			}
		})
	}
}

func TestGet_MissingOnAbsentKey(t *testing.T) {
	root := NewMap()
	v, ok, err := Get(root, "nothing.here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing, got value %v", v)
	}
}

func TestGet_MissingOnOutOfRangeIndex(t *testing.T) {
	root := NewMap()
	if err := Set(root, "identifier[0].value", "P1"); err != nil {
		t.Fatal(err)
	}
	_, ok, err := Get(root, "identifier[5].value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing for out-of-range index")
	}
}

func TestSet_ArrayGapFilledWithNull(t *testing.T) {
	root := NewMap()
	if err := Set(root, "identifier[2].value", "P1"); err != nil {
		t.Fatal(err)
	}
	list, ok := root.Get("identifier")
	if !ok {
		t.Fatal("expected identifier list to be materialised")
	}
	l, ok := list.(*List)
	if !ok {
		t.Fatalf("expected *List, got %T", list)
	}
	if l.Len() != 3 {
		t.Fatalf("expected length 3, got %d", l.Len())
	}
	if v, _ := l.Get(0); v != nil {
		t.Fatalf("expected nil placeholder at index 0, got %v", v)
	}
	if v, _ := l.Get(1); v != nil {
		t.Fatalf("expected nil placeholder at index 1, got %v", v)
	}
}

func TestSet_PathConflictThroughScalar(t *testing.T) {
	root := NewMap()
	root.Set("gender", "male")
	if err := Set(root, "gender.code", "M"); err == nil {
		t.Fatal("expected PathConflictError, got nil")
	} else if _, ok := err.(*PathConflictError); !ok {
		t.Fatalf("expected *PathConflictError, got %T: %v", err, err)
	}
}

func TestSet_PathConflictListWhereMapExpected(t *testing.T) {
	root := NewMap()
	if err := Set(root, "name[0].given[0]", "John"); err != nil {
		t.Fatal(err)
	}
	// "name" is a list; addressing it as a plain map key should conflict.
	if err := Set(root, "name.family", "Doe"); err == nil {
		t.Fatal("expected PathConflictError, got nil")
	} else if _, ok := err.(*PathConflictError); !ok {
		t.Fatalf("expected *PathConflictError, got %T", err)
	}
}

func TestSet_SharedPrefixNotDisturbed(t *testing.T) {
	root := NewMap()
	if err := Set(root, "name[0].given[0]", "John"); err != nil {
		t.Fatal(err)
	}
	if err := Set(root, "name[0].family", "Doe"); err != nil {
		t.Fatal(err)
	}
	given, ok, err := Get(root, "name[0].given[0]")
	if err != nil || !ok {
		t.Fatalf("expected given to survive, err=%v ok=%v", err, ok)
	}
	if given != "John" {
		t.Fatalf("expected John, got %v", given)
	}
	family, ok, err := Get(root, "name[0].family")
	if err != nil || !ok || family != "Doe" {
		t.Fatalf("expected Doe, got %v (ok=%v err=%v)", family, ok, err)
	}
}

func TestParsePath_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"a..b",
		"a[x]",
		"a[-1]",
		"a[",
		"1abc",
	}
	for _, p := range invalid {
		if _, err := parsePath(p); err == nil {
			t.Errorf("parsePath(%q) expected error, got nil", p)
		}
	}
}

func TestDecodeEncode_PreservesKeyOrder(t *testing.T) {
	input := []byte(`{"z":1,"a":2,"m":3}`)
	m, err := Decode(input)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"z", "a", "m"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("key count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order mismatch at %d: got %v want %v", i, got, want)
		}
	}
	out, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"z":1,"a":2,"m":3}` {
		t.Fatalf("unexpected re-encode: %s", out)
	}
}
