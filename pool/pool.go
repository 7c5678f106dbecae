// Package pool implements the shared-entity key and the dual-LRU pool
// that lets content-identical sharable resources reuse one backend
// terminal entity: cooperative (refcounted) acquisition for read-mostly
// sharing, exclusive (move-out) acquisition for callers that will mutate
// the entity, and byte-budgeted LRU eviction.
//
// The two intrusive linked lists (a global recency list across all keys,
// and a per-key bucket list for fast candidate enumeration) are adapted
// from the sibling gogpu-gg repo's internal/cache/lru.go, generalized
// from a single list into the pair this pool's matching rules require.
package pool

// ResourceType tags the kind of resource a pooled entity backs. It is the
// low-order component of a Key and is shared with the device-resource
// layer's own resource-type tag.
type ResourceType uint32

const (
	ResourceTypeInvalid ResourceType = iota
	ResourceTypeConstants
	ResourceTypeIndices
	ResourceTypeVertices
	ResourceTypeRenderTarget
	ResourceTypeDepthStencil
	ResourceTypeTexture2D
	ResourceTypeTextureCube
	ResourceTypeShaderEffect
	ResourceTypeShaderProgram
	ResourceTypeBlendState
	ResourceTypeRasterizerState
	ResourceTypeDepthStencilState
	ResourceTypeSamplerState
	ResourceTypeVertexDeclaration
)

const (
	keyTypeBits = 8
	keyTypeMask = 1<<keyTypeBits - 1
)

// Key is a packed (resource-type, content-hash) pair: the resource type
// occupies the low keyTypeBits bits, the content hash is folded into the
// remaining high bits of the machine word.
type Key uint64

// InvalidKey is the sentinel Key value; no real entity is ever stored
// under it.
const InvalidKey Key = 0

// NewKey packs a resource type and a 64-bit content hash into a Key. The
// hash's low keyTypeBits are XOR-folded up into the bits above the type
// field, so they still contribute to the key once the type tag takes
// their place.
func NewKey(rt ResourceType, hash uint64) Key {
	folded := hash ^ (hash << keyTypeBits)
	return Key(uint64(rt)&keyTypeMask | (folded &^ keyTypeMask))
}

// ResourceType extracts the resource-type component of the key.
func (k Key) ResourceType() ResourceType {
	return ResourceType(k & keyTypeMask)
}

// IsValid reports whether k is not the invalid sentinel.
func (k Key) IsValid() bool { return k != InvalidKey }

// Entity is the minimal contract a pooled terminal entity must satisfy:
// the pool needs to know its video-memory footprint for byte accounting
// and needs a way to tear it down on eviction.
type Entity interface {
	VideoMemorySizeInBytes() uint64
	Destroy()
}

// record is one parked entity. It belongs to exactly two intrusive
// doubly-linked lists at once: the pool-wide global recency list, and
// the bucket list of every record sharing the same key.
type record struct {
	key       Key
	entity    Entity
	lockCount int

	globalPrev, globalNext *record
	localPrev, localNext   *record
}

// bucket is the local list head/tail for one key.
type bucket struct {
	head, tail *record
	len        int
}

// Pool is the shared-entity pool described by spec component E. It is
// not safe for concurrent use — per the core's single-thread-per-device
// model, it is owned by exactly one device encapsulator and reached only
// through that encapsulator's owner thread.
type Pool struct {
	buckets map[Key]*bucket

	globalHead, globalTail *record
	globalLen              int

	tracked uint64
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{buckets: make(map[Key]*bucket)}
}

// Tracked returns the sum of VideoMemorySizeInBytes across every record
// currently held by the pool (parked or checked out cooperatively).
func (p *Pool) Tracked() uint64 { return p.tracked }

// Len returns the number of records currently parked in the pool.
func (p *Pool) Len() int { return p.globalLen }

func (p *Pool) pushGlobalFront(r *record) {
	r.globalPrev = nil
	r.globalNext = p.globalHead
	if p.globalHead != nil {
		p.globalHead.globalPrev = r
	}
	p.globalHead = r
	if p.globalTail == nil {
		p.globalTail = r
	}
	p.globalLen++
}

func (p *Pool) unlinkGlobal(r *record) {
	if r.globalPrev != nil {
		r.globalPrev.globalNext = r.globalNext
	} else {
		p.globalHead = r.globalNext
	}
	if r.globalNext != nil {
		r.globalNext.globalPrev = r.globalPrev
	} else {
		p.globalTail = r.globalPrev
	}
	r.globalPrev, r.globalNext = nil, nil
}

func (p *Pool) moveGlobalToFront(r *record) {
	if p.globalHead == r {
		return
	}
	p.unlinkGlobal(r)
	p.globalLen--
	p.pushGlobalFront(r)
}

func (b *bucket) pushFront(r *record) {
	r.localPrev = nil
	r.localNext = b.head
	if b.head != nil {
		b.head.localPrev = r
	}
	b.head = r
	if b.tail == nil {
		b.tail = r
	}
	b.len++
}

func (b *bucket) unlink(r *record) {
	if r.localPrev != nil {
		r.localPrev.localNext = r.localNext
	} else {
		b.head = r.localNext
	}
	if r.localNext != nil {
		r.localNext.localPrev = r.localPrev
	} else {
		b.tail = r.localPrev
	}
	r.localPrev, r.localNext = nil, nil
	b.len--
}

func (p *Pool) bucketFor(key Key, createIfMissing bool) *bucket {
	b, ok := p.buckets[key]
	if !ok && createIfMissing {
		b = &bucket{}
		p.buckets[key] = b
	}
	return b
}

// pokeMRU moves r to the most-recently-used end of both lists it
// belongs to.
func (p *Pool) pokeMRU(r *record, b *bucket) {
	p.moveGlobalToFront(r)
	if b.head != r {
		b.unlink(r)
		b.pushFront(r)
	}
}

func (p *Pool) removeRecord(r *record, b *bucket) {
	p.unlinkGlobal(r)
	p.globalLen--
	b.unlink(r)
	if b.len == 0 {
		delete(p.buckets, r.key)
	}
	p.tracked -= r.entity.VideoMemorySizeInBytes()
}

// Matcher identifies the resource seeking a pooled entity by its pool
// key alone. Acquisition treats every record parked under an equal key
// as interchangeable; no structural comparison of the entity is made.
type Matcher interface {
	PoolKey() Key
}

// AcquireCooperative finds a parked record matching m's key, increments
// its lock count, pokes it MRU in both lists, and returns it without
// removing it from the pool. hit is false on a clean miss.
func (p *Pool) AcquireCooperative(m Matcher) (entity Entity, hit bool) {
	key := m.PoolKey()
	b := p.bucketFor(key, false)
	if b == nil || b.head == nil {
		return nil, false
	}
	r := b.head
	r.lockCount++
	p.pokeMRU(r, b)
	return r.entity, true
}

// ReleaseCooperative decrements the lock count of the record parked
// under key holding entity, and pokes it MRU. It is a no-op if no such
// record is parked.
func (p *Pool) ReleaseCooperative(key Key, entity Entity) {
	b := p.bucketFor(key, false)
	if b == nil {
		return
	}
	for r := b.head; r != nil; r = r.localNext {
		if r.entity == entity {
			if r.lockCount > 0 {
				r.lockCount--
			}
			p.pokeMRU(r, b)
			return
		}
	}
}

// AcquireExclusive finds a record matching m's key with lockCount==0,
// removes it from both lists and the key bucket, and transfers
// ownership of the entity to the caller. hit is false on a clean miss
// (including when the only matching record is locked).
func (p *Pool) AcquireExclusive(m Matcher) (entity Entity, hit bool) {
	key := m.PoolKey()
	b := p.bucketFor(key, false)
	if b == nil {
		return nil, false
	}
	for r := b.head; r != nil; r = r.localNext {
		if r.lockCount == 0 {
			p.removeRecord(r, b)
			return r.entity, true
		}
	}
	return nil, false
}

// ReleaseExclusive parks entity under key as a fresh record with
// lockCount=0, at the MRU end of both lists, and updates byte
// accounting.
func (p *Pool) ReleaseExclusive(key Key, entity Entity) {
	r := &record{key: key, entity: entity}
	b := p.bucketFor(key, true)
	b.pushFront(r)
	p.pushGlobalFront(r)
	p.tracked += entity.VideoMemorySizeInBytes()
}

// ReleaseLRU walks the global list from least-recently-used toward
// most-recently-used, destroying unlocked records until the tracked
// total is at or below targetBytes, and returns the resulting total.
func (p *Pool) ReleaseLRU(targetBytes uint64) (remainingBytes uint64) {
	for p.tracked > targetBytes {
		r := p.globalTail
		for r != nil && r.lockCount > 0 {
			r = r.globalPrev
		}
		if r == nil {
			break
		}
		b := p.bucketFor(r.key, false)
		p.removeRecord(r, b)
		r.entity.Destroy()
	}
	return p.tracked
}

// ReleaseAll tears down every parked record. It panics if any record is
// still locked; per spec §4.E this is disallowed, not a soft failure.
func (p *Pool) ReleaseAll() {
	for r := p.globalHead; r != nil; r = r.globalNext {
		if r.lockCount > 0 {
			panic("pool: ReleaseAll called while a record is still locked")
		}
	}
	for key, b := range p.buckets {
		for r := b.head; r != nil; {
			next := r.localNext
			r.entity.Destroy()
			r = next
		}
		delete(p.buckets, key)
	}
	p.globalHead, p.globalTail = nil, nil
	p.globalLen = 0
	p.tracked = 0
}
