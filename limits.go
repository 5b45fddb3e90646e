package gorepo

const (
	// NoLimit disables page size clamping.
	NoLimit         = 0
	MaxPageSize     = 100
	DefaultPageSize = 10
)

// IsNormalizedPageSizeMax clamps an API-supplied page size: non-positive sizes
// become DefaultPageSize and sizes above maxSize become maxSize. The boolean
// reports whether size was already valid.
func IsNormalizedPageSizeMax(size int, maxSize int) (int, bool) {
	if size <= 0 {
		return DefaultPageSize, false
	} else if maxSize != NoLimit && size > maxSize {
		return maxSize, false
	}

	return size, true
}

func NormalizePageSizeMax(size int, maxSize int) int {
	ret, _ := IsNormalizedPageSizeMax(size, maxSize)
	return ret
}

func NormalizePageSize(size int) int {
	return NormalizePageSizeMax(size, MaxPageSize)
}

// clampPageSize caps size at maxSize without touching the zero "no paging"
// value.
func clampPageSize(size int, maxSize int) int {
	if maxSize == NoLimit || size <= maxSize {
		return size
	}

	return maxSize
}
