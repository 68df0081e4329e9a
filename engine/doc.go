// Package engine provides a pure Go foreign interpreter backend built on
// wazero.
//
// Heap keeps every foreign value in the linear memory of a memory-only WASM
// module, outside the Go heap. Values are allocated and freed explicitly
// through a first-fit free list with coalescing, so a value that is never
// freed stays allocated: exactly the ownership contract of a native
// interpreter's allocator.
//
// # Value Layout
//
// Each value is an 8-byte aligned block:
//
//	Offset  Size    Field
//	──────────────────────────────
//	0       4       kind (u32 LE)
//	4       4       length (u32 LE)
//	8       8*len   payload (f64 LE, or u32 code point for characters)
//
// The Value handed out is the block's offset. Offset 0 is never allocated.
//
// # Memory
//
// Memory grows a page (64 KiB) at a time up to Config.MemoryLimitPages.
// WASM memory never shrinks; freed blocks are reused. Exhausting the limit
// is fatal and panics.
//
// # Thread Safety
//
// Heap is safe for concurrent use.
package engine
