package httpcore

import "github.com/valyala/fasthttp"

// ResponseStatus is a (code, reason) pair. The core only ever constructs
// the codes it actually emits.
type ResponseStatus struct {
	Code   uint16
	Reason string
}

func newStatus(code uint16) ResponseStatus {
	return ResponseStatus{Code: code, Reason: fasthttp.StatusMessage(int(code))}
}

var (
	StatusOK                  = newStatus(200)
	StatusBadRequest          = newStatus(400)
	StatusNotFound            = newStatus(404)
	StatusMethodNotAllowed    = newStatus(405)
	StatusPayloadTooLarge     = newStatus(413)
	StatusInternalServerError = newStatus(500)
	StatusNotImplemented      = newStatus(501)
	StatusServiceUnavailable  = newStatus(503)
)

// WriteStatusLine appends "HTTP/1.1 <code> <reason>\r\n" to dst and
// returns the extended slice.
func (s ResponseStatus) WriteStatusLine(dst []byte) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = appendUint(dst, uint64(s.Code))
	dst = append(dst, ' ')
	dst = append(dst, s.Reason...)
	dst = append(dst, '\r', '\n')
	return dst
}

func appendUint(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, '0')
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return append(dst, buf[i:]...)
}
