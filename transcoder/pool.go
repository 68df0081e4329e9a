package transcoder

import "sync"

const (
	// Pool limits to prevent memory bloat
	poolMaxCapF64  = 1 << 16 // max float64 elements kept
	poolInitCapF64 = 16
)

// float64 buffer pool for list staging and bulk reads
var bufF64Pool = sync.Pool{
	New: func() any {
		buf := make([]float64, 0, poolInitCapF64)
		return &buf
	},
}

// getBufF64 returns a buffer of length n.
func getBufF64(n int) *[]float64 {
	buf := bufF64Pool.Get().(*[]float64)
	if cap(*buf) < n {
		*buf = make([]float64, n)
	} else {
		*buf = (*buf)[:n]
	}
	return buf
}

func putBufF64(buf *[]float64) {
	if buf == nil || cap(*buf) > poolMaxCapF64 {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	bufF64Pool.Put(buf)
}
