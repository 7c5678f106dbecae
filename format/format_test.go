package format

import "testing"

func TestSizeOfTexture2DUncompressed(t *testing.T) {
	rowBytes, rowCount := SizeOfTexture2D(RGBA8Unorm, 16, 16)
	if rowBytes != 16*4 {
		t.Fatalf("rowBytes = %d, want %d", rowBytes, 16*4)
	}
	if rowCount != 16 {
		t.Fatalf("rowCount = %d, want 16", rowCount)
	}
}

func TestSizeOfTexture2DBlockCompressed(t *testing.T) {
	// BC1 packs a 4x4 pixel block into 8 bytes (64 bits).
	rowBytes, rowCount := SizeOfTexture2D(BC1RGBAUnorm, 8, 8)
	if rowBytes != 16 {
		t.Fatalf("rowBytes = %d, want 16", rowBytes)
	}
	if rowCount != 2 {
		t.Fatalf("rowCount = %d, want 2", rowCount)
	}
}

func TestSizeOfTexture2DLevelsClampsToOne(t *testing.T) {
	total := SizeOfTexture2DLevels(RGBA8Unorm, 4, 4, 4)
	// levels: 4x4, 2x2, 1x1, 1x1 (clamped)
	want := uint64(4*4*4) + uint64(2*2*4) + uint64(1*1*4) + uint64(1*1*4)
	if total != want {
		t.Fatalf("SizeOfTexture2DLevels = %d, want %d", total, want)
	}
}

func TestSupportBitmapDefaultsToUnsupported(t *testing.T) {
	if SupportRenderTargetOK(R8Unorm) {
		t.Fatalf("expected R8Unorm render-target support to default to false")
	}
	SetSupport(R8Unorm, SupportRenderTarget)
	if !SupportRenderTargetOK(R8Unorm) {
		t.Fatalf("expected SetSupport to mark render-target support")
	}
	// Reset for other tests sharing the process-wide table.
	SetSupport(R8Unorm, 0)
}

func TestCapabilityFlags(t *testing.T) {
	if !Has(Depth32Float, Depth|FloatingPoint) {
		t.Fatalf("Depth32Float should carry Depth|FloatingPoint")
	}
	if Has(R8Unorm, Depth) {
		t.Fatalf("R8Unorm should not carry Depth")
	}
}
