package httpcore

// Headers holds request header names/values as slices borrowed from the
// connection's read buffer. Capacity is fixed at MaxHeaders; a 25th header
// is a LimitExceeded parse error, not an overflow allocation — unlike a
// general-purpose header map, this type never grows past its array.
type Headers struct {
	names   [MaxHeaders][]byte
	values  [MaxHeaders][]byte
	hOffset int
}

// reset clears the header set for reuse on the next parse of the same
// connection buffer.
func (h *Headers) reset() {
	for i := 0; i < h.hOffset; i++ {
		h.names[i] = nil
		h.values[i] = nil
	}
	h.hOffset = 0
}

// add appends a trimmed name/value pair. Returns ErrLimitExceeded once
// MaxHeaders entries are already occupied.
func (h *Headers) add(name, value []byte) error {
	if h.hOffset >= MaxHeaders {
		return ErrLimitExceeded
	}
	h.names[h.hOffset] = name
	h.values[h.hOffset] = value
	h.hOffset++
	return nil
}

// Len returns the number of occupied header slots.
func (h *Headers) Len() int { return h.hOffset }

// Get returns the value for name (case-insensitive), or nil if absent.
func (h *Headers) Get(name []byte) []byte {
	for i := 0; i < h.hOffset; i++ {
		if bytesEqualFold(h.names[i], name) {
			return h.values[i]
		}
	}
	return nil
}

// GetString is Get with an allocating string conversion for callers that
// need to retain the value past the connection buffer's lifetime.
func (h *Headers) GetString(name string) string {
	v := h.Get([]byte(name))
	if v == nil {
		return ""
	}
	return string(v)
}

// VisitAll calls fn for each occupied header in insertion order.
func (h *Headers) VisitAll(fn func(name, value []byte)) {
	for i := 0; i < h.hOffset; i++ {
		fn(h.names[i], h.values[i])
	}
}

func bytesEqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLowerASCII(a[i]) != toLowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

func trimOWS(b []byte) []byte {
	start := 0
	for start < len(b) && isOWS(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isOWS(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isOWS(b byte) bool {
	return b == ' ' || b == '\t'
}

// --- response-side headers (spec §3: parallel arrays of value variants) ---

// ValueKind tags how a ResponseHeaders entry's value is stored.
type ValueKind uint8

const (
	// ValueNumber renders an integer (e.g. Content-Length) without an
	// intermediate string allocation.
	ValueNumber ValueKind = iota
	// ValueStatic holds borrowed, non-owned bytes (e.g. a package-level
	// constant). Free is a no-op.
	ValueStatic
	// ValueDynamic holds owned bytes that must be released on Free.
	ValueDynamic
)

// ResponseHeaders is the response-side counterpart of Headers: parallel
// fixed-capacity arrays (≤24) of name slices and tagged value variants.
type ResponseHeaders struct {
	names      [MaxHeaders][]byte
	kinds      [MaxHeaders]ValueKind
	numbers    [MaxHeaders]uint64
	byteValues [MaxHeaders][]byte
	count      int
}

// SetStatic sets a header to a borrowed, statically-lived value.
func (r *ResponseHeaders) SetStatic(name string, value []byte) error {
	return r.set(name, ValueStatic, 0, value)
}

// SetDynamic sets a header to an owned value the response must free.
func (r *ResponseHeaders) SetDynamic(name string, value []byte) error {
	return r.set(name, ValueDynamic, 0, value)
}

// SetNumber sets a header to an integer value rendered at serialization
// time, avoiding a strconv allocation for the common Content-Length case.
func (r *ResponseHeaders) SetNumber(name string, value uint64) error {
	return r.set(name, ValueNumber, value, nil)
}

func (r *ResponseHeaders) set(name string, kind ValueKind, number uint64, value []byte) error {
	nb := []byte(name)
	for i := 0; i < r.count; i++ {
		if bytesEqualFold(r.names[i], nb) {
			r.kinds[i] = kind
			r.numbers[i] = number
			r.byteValues[i] = value
			return nil
		}
	}
	if r.count >= MaxHeaders {
		return ErrLimitExceeded
	}
	r.names[r.count] = nb
	r.kinds[r.count] = kind
	r.numbers[r.count] = number
	r.byteValues[r.count] = value
	r.count++
	return nil
}

// Free releases every Dynamic value. Static and Number entries are
// untouched.
func (r *ResponseHeaders) Free() {
	for i := 0; i < r.count; i++ {
		if r.kinds[i] == ValueDynamic {
			r.byteValues[i] = nil
		}
	}
}

// reset clears the header set for reuse by the next response on this
// connection.
func (r *ResponseHeaders) reset() {
	r.Free()
	r.count = 0
}

// Reset is reset exported for callers outside the package (the connection
// state machine) that reuse a ResponseHeaders value across requests on a
// kept-alive connection.
func (r *ResponseHeaders) Reset() {
	r.reset()
}

// WriteTo serializes "name: value\r\n" per entry followed by a final
// "\r\n", appending to dst.
func (r *ResponseHeaders) WriteTo(dst []byte) []byte {
	for i := 0; i < r.count; i++ {
		dst = append(dst, r.names[i]...)
		dst = append(dst, headerSep...)
		switch r.kinds[i] {
		case ValueNumber:
			dst = appendUint(dst, r.numbers[i])
		default:
			dst = append(dst, r.byteValues[i]...)
		}
		dst = append(dst, '\r', '\n')
	}
	dst = append(dst, '\r', '\n')
	return dst
}
