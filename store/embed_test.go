package store

import (
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestNameVectorUnitLength(t *testing.T) {
	for _, name := range []string{"李笑来", "index fund", "a"} {
		v := NameVector(name, 64)
		if len(v) != 64 {
			t.Fatalf("len = %d, want 64", len(v))
		}
		if n := cosine(v, v); math.Abs(n-1) > 1e-5 {
			t.Errorf("%q: squared norm = %f, want 1", name, n)
		}
	}
}

func TestNameVectorEmpty(t *testing.T) {
	for _, x := range NameVector("", 8) {
		if x != 0 {
			t.Fatal("expected zero vector for empty name")
		}
	}
	if len(NameVector("abc", 0)) != 0 {
		t.Fatal("expected empty vector for zero dim")
	}
}

func TestNameVectorSimilarity(t *testing.T) {
	base := NameVector("穷爸爸富爸爸", 64)
	variant := NameVector("穷爸爸富爸爸这本书", 64)
	other := NameVector("巴菲特", 64)

	if cosine(base, NameVector("穷爸爸富爸爸", 64)) < 0.9999 {
		t.Error("identical names should have cosine 1")
	}
	if cosine(base, variant) <= cosine(base, other) {
		t.Errorf("variant should be closer than unrelated name: %f vs %f",
			cosine(base, variant), cosine(base, other))
	}
	if cosine(NameVector("Index Fund", 64), NameVector("indexfund", 64)) < 0.9999 {
		t.Error("case and whitespace should not matter")
	}
}
