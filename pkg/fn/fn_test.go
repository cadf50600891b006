package fn

import (
	"errors"
	"strconv"
	"testing"
)

func TestResultOk(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok result should be ok")
	}
	v, err := r.Unwrap()
	if err != nil || v != 42 {
		t.Fatalf("unexpected unwrap: %v, %v", v, err)
	}
	if r.Must() != 42 {
		t.Fatal("Must should return value")
	}
}

func TestResultErr(t *testing.T) {
	sentinel := errors.New("boom")
	r := Err[int](sentinel)
	if r.IsOk() || !r.IsErr() {
		t.Fatal("Err result should be err")
	}
	if _, err := r.Unwrap(); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if r.UnwrapOr(7) != 7 {
		t.Fatal("UnwrapOr should return fallback")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Must should panic on error")
		}
	}()
	r.Must()
}

func TestErrf(t *testing.T) {
	r := Errf[string]("bad page %d", 3)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "bad page 3" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(21), func(v int) string { return strconv.Itoa(v * 2) })
	if v := r.Must(); v != "42" {
		t.Fatalf("expected 42, got %s", v)
	}

	e := MapResult(Err[int](errors.New("nope")), func(v int) string { return "" })
	if e.IsOk() {
		t.Fatal("mapping an error should stay an error")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); !r.IsOk() {
		t.Fatal("nil error should be ok")
	}
	if r := FromPair(0, errors.New("x")); !r.IsErr() {
		t.Fatal("non-nil error should be err")
	}
}

func TestOksErrs(t *testing.T) {
	results := []Result[int]{Ok(1), Err[int](errors.New("a")), Ok(3), Err[int](errors.New("b"))}

	vals := Oks(results)
	if len(vals) != 2 || vals[0] != 1 || vals[1] != 3 {
		t.Fatalf("unexpected oks: %v", vals)
	}

	errs := Errs(results)
	if len(errs) != 2 || errs[0].Error() != "a" || errs[1].Error() != "b" {
		t.Fatalf("unexpected errs: %v", errs)
	}
}
