package testlist

import (
	"testing"

	"github.com/nextrunner/nextrunner/internal/binaryid"
)

func mustID(t *testing.T, pkg string, kind binaryid.Kind, target string) binaryid.ID {
	t.Helper()
	id, err := binaryid.FromParts(pkg, kind, target)
	if err != nil {
		t.Fatalf("FromParts: %v", err)
	}
	return id
}

func TestAddBinaryDuplicateRejected(t *testing.T) {
	c := NewCatalog()
	id := mustID(t, "pkg", binaryid.KindLib, "")

	if err := c.AddBinary(id); err != nil {
		t.Fatalf("first AddBinary: %v", err)
	}
	if err := c.AddBinary(id); err == nil {
		t.Fatal("expected error registering the same binary ID twice")
	}
}

func TestAddTestRequiresRegisteredBinary(t *testing.T) {
	c := NewCatalog()
	id := mustID(t, "pkg", binaryid.KindLib, "")

	if err := c.AddTest(id, TestCase{Name: "t1"}); err == nil {
		t.Fatal("expected error adding a test to an unregistered binary")
	}
}

func TestAddTestDuplicateNameRejected(t *testing.T) {
	c := NewCatalog()
	id := mustID(t, "pkg", binaryid.KindLib, "")
	if err := c.AddBinary(id); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTest(id, TestCase{Name: "t1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTest(id, TestCase{Name: "t1"}); err == nil {
		t.Fatal("expected error for duplicate test name")
	}
}

func TestBinariesCanonicalOrder(t *testing.T) {
	c := NewCatalog()
	z := mustID(t, "zzz", binaryid.KindLib, "")
	a := mustID(t, "aaa", binaryid.KindLib, "")

	if err := c.AddBinary(z); err != nil {
		t.Fatal(err)
	}
	if err := c.AddBinary(a); err != nil {
		t.Fatal(err)
	}

	ids := c.Binaries()
	if len(ids) != 2 || ids[0] != a || ids[1] != z {
		t.Fatalf("expected canonical order [aaa, zzz], got %v", ids)
	}
}

func TestSetFilterMatchStability(t *testing.T) {
	c := NewCatalog()
	id := mustID(t, "pkg", binaryid.KindLib, "")
	if err := c.AddBinary(id); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTest(id, TestCase{Name: "t1"}); err != nil {
		t.Fatal(err)
	}

	if err := c.SetFilterMatch(id, "t1", Matches()); err != nil {
		t.Fatalf("first SetFilterMatch: %v", err)
	}
	// Setting the same value again is a stable no-op.
	if err := c.SetFilterMatch(id, "t1", Matches()); err != nil {
		t.Fatalf("idempotent SetFilterMatch: %v", err)
	}
	// Setting a different value is rejected.
	if err := c.SetFilterMatch(id, "t1", Mismatch(ReasonIgnored)); err == nil {
		t.Fatal("expected error changing an already-computed filter match")
	}

	tests, err := c.Tests(id)
	if err != nil {
		t.Fatal(err)
	}
	if !tests[0].Filter.IsMatch() {
		t.Fatal("expected t1's filter match to remain Matches()")
	}
}

func TestSummarize(t *testing.T) {
	c := NewCatalog()
	id := mustID(t, "pkg", binaryid.KindLib, "")
	if err := c.AddBinary(id); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []TestCase{
		{Name: "a"},
		{Name: "b", Ignored: true},
		{Name: "bench_c", IsBenchmark: true},
	} {
		if err := c.AddTest(id, tc); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.SetFilterMatch(id, "a", Matches()); err != nil {
		t.Fatal(err)
	}
	if err := c.SetFilterMatch(id, "b", Mismatch(ReasonIgnored)); err != nil {
		t.Fatal(err)
	}

	summary := c.Summarize()
	if summary.TotalTests != 3 {
		t.Errorf("TotalTests = %d, want 3", summary.TotalTests)
	}
	if summary.TotalMatch != 1 {
		t.Errorf("TotalMatch = %d, want 1", summary.TotalMatch)
	}
	if len(summary.Binaries) != 1 {
		t.Fatalf("expected 1 binary summary, got %d", len(summary.Binaries))
	}
	bs := summary.Binaries[0]
	if bs.Ignored != 1 || bs.Benchmarks != 1 {
		t.Errorf("unexpected summary counts: %+v", bs)
	}
}
