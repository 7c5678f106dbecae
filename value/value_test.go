package value

import "testing"

func TestEqualsReflexive(t *testing.T) {
	vals := []Value{
		NewBool(true),
		NewInt32(-7),
		NewUint32(42),
		NewFloat32(3.5),
		NewFloat2(1, 2),
		NewFloat3(1, 2, 3),
		NewFloat4(1, 2, 3, 4),
	}
	for _, v := range vals {
		if !Equals(v, v) {
			t.Fatalf("Equals(%v, %v) = false, want true", v, v)
		}
		if Hash(v) != Hash(v) {
			t.Fatalf("Hash not stable for %v", v)
		}
	}
}

func TestHashAgreesWithEquals(t *testing.T) {
	a := NewFloat3(0.25, 0.5, 0.75)
	b := NewFloat3(0.25, 0.5, 0.75)
	if !Equals(a, b) {
		t.Fatalf("expected a == b")
	}
	if Hash(a) != Hash(b) {
		t.Fatalf("equal values hashed differently")
	}
}

// TestPromoteFloat3RoundTrip exercises S5: float3 -> UX10Y10Z10W2N -> float3
// must round-trip within the packed format's documented quantization.
func TestPromoteFloat3RoundTrip(t *testing.T) {
	v := NewFloat3(0.1, 0.5, 0.9)
	packed, err := Promote(TypeUX10Y10Z10W2N, TypeFloat3, v)
	if err != nil {
		t.Fatalf("promote to packed: %v", err)
	}
	back, err := Promote(TypeFloat3, TypeUX10Y10Z10W2N, packed)
	if err != nil {
		t.Fatalf("promote from packed: %v", err)
	}

	const tolerance = 1.0 / 1023
	orig := v.Components()
	got := back.Components()
	for i := 0; i < 3; i++ {
		diff := orig[i] - got[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Fatalf("component %d: |%.6f - %.6f| = %.6f exceeds tolerance %.6f", i, orig[i], got[i], diff, tolerance)
		}
	}
}

func TestPromoteUnsupportedPairFails(t *testing.T) {
	v := NewBool(true)
	if _, err := Promote(TypeFloat4, TypeBool, v); err == nil {
		t.Fatalf("expected error for unsupported promotion pair")
	}
}
