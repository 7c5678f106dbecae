package pool

import "testing"

type fakeEntity struct {
	size      uint64
	destroyed bool
}

func (f *fakeEntity) VideoMemorySizeInBytes() uint64 { return f.size }
func (f *fakeEntity) Destroy()                       { f.destroyed = true }

type fakeMatcher struct{ key Key }

func (m fakeMatcher) PoolKey() Key { return m.key }

func TestKeyFolding(t *testing.T) {
	k1 := NewKey(ResourceTypeVertices, 0xDEADBEEF)
	k2 := NewKey(ResourceTypeVertices, 0xDEADBEEF)
	if k1 != k2 {
		t.Fatalf("keys built from identical inputs must be equal")
	}
	if k1.ResourceType() != ResourceTypeVertices {
		t.Fatalf("ResourceType() = %v, want %v", k1.ResourceType(), ResourceTypeVertices)
	}
	if !k1.IsValid() {
		t.Fatalf("expected key to be valid")
	}
	if InvalidKey.IsValid() {
		t.Fatalf("InvalidKey must report invalid")
	}
}

// TestSharedPoolReuse exercises S2: two identical sharable buffers, the
// second exclusive-acquire gets the first's entity back, and tracked
// bytes return to zero.
func TestSharedPoolReuse(t *testing.T) {
	p := New()
	key := NewKey(ResourceTypeVertices, 42)
	e1 := &fakeEntity{size: 1024}

	p.ReleaseExclusive(key, e1)
	if p.Tracked() != 1024 {
		t.Fatalf("Tracked() = %d, want 1024", p.Tracked())
	}

	got, hit := p.AcquireExclusive(fakeMatcher{key})
	if !hit {
		t.Fatalf("expected exclusive acquire hit")
	}
	if got != e1 {
		t.Fatalf("acquired entity does not match released entity")
	}
	if p.Tracked() != 0 {
		t.Fatalf("Tracked() after acquire = %d, want 0", p.Tracked())
	}
}

// TestLRUEviction exercises S3: a budget of 3*S with four same-sized
// entities released in order; ReleaseLRU(3*S) must evict exactly the
// oldest.
func TestLRUEviction(t *testing.T) {
	p := New()
	const s = 256
	key := NewKey(ResourceTypeTexture2D, 7)

	entities := make([]*fakeEntity, 4)
	for i := range entities {
		entities[i] = &fakeEntity{size: s}
		p.ReleaseExclusive(key, entities[i])
	}

	remaining := p.ReleaseLRU(3 * s)
	if remaining != 3*s {
		t.Fatalf("ReleaseLRU returned %d, want %d", remaining, 3*s)
	}
	if !entities[0].destroyed {
		t.Fatalf("oldest entity E1 should have been evicted")
	}
	for i, e := range entities[1:] {
		if e.destroyed {
			t.Fatalf("entity E%d should not have been evicted", i+2)
		}
	}
}

// TestCooperativeLockGuardsEviction exercises S4: a locked record
// survives ReleaseLRU(0); once released it is evicted.
func TestCooperativeLockGuardsEviction(t *testing.T) {
	p := New()
	key := NewKey(ResourceTypeConstants, 99)
	e := &fakeEntity{size: 64}
	p.ReleaseExclusive(key, e)

	got, hit := p.AcquireCooperative(fakeMatcher{key})
	if !hit || got != e {
		t.Fatalf("expected cooperative acquire hit on e")
	}

	p.ReleaseLRU(0)
	if e.destroyed {
		t.Fatalf("locked entity must not be evicted")
	}

	p.ReleaseCooperative(key, e)
	p.ReleaseLRU(0)
	if !e.destroyed {
		t.Fatalf("entity should be evicted once unlocked")
	}
}
