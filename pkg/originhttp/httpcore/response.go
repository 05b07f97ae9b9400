package httpcore

// BodySource tags how a Response's body bytes are owned.
type BodySource uint8

const (
	// BodyEmpty carries no body; BodyLength is always 0.
	BodyEmpty BodySource = iota
	// BodyStatic borrows bytes with a lifetime beyond the response (e.g. a
	// package-level constant). No free is performed.
	BodyStatic
	// BodyDynamic owns its bytes; the connection frees them after the
	// send completes.
	BodyDynamic
)

// Response pairs a status with a body source. BytesSent is tracked by the
// connection FSM across possibly multiple WritingBody completions and
// must never exceed BodyLength.
type Response struct {
	Status     ResponseStatus
	Source     BodySource
	Body       []byte
	BodyLength int
	BytesSent  int
}

// NewStaticResponse builds a response over borrowed bytes.
func NewStaticResponse(status ResponseStatus, body []byte) Response {
	return Response{Status: status, Source: BodyStatic, Body: body, BodyLength: len(body)}
}

// NewDynamicResponse builds a response over owned bytes the connection
// must free once sent.
func NewDynamicResponse(status ResponseStatus, body []byte) Response {
	return Response{Status: status, Source: BodyDynamic, Body: body, BodyLength: len(body)}
}

// NewEmptyResponse builds a bodyless response (status line only, or
// status line + headers with Content-Length: 0).
func NewEmptyResponse(status ResponseStatus) Response {
	return Response{Status: status, Source: BodyEmpty}
}

// Remaining returns the body bytes not yet handed to a SEND completion.
func (r *Response) Remaining() []byte {
	if r.BytesSent >= r.BodyLength {
		return nil
	}
	return r.Body[r.BytesSent:]
}

// Done reports whether the full body has been sent.
func (r *Response) Done() bool {
	return r.BytesSent >= r.BodyLength
}

// Free releases a Dynamic body. Static and Empty sources are untouched.
func (r *Response) Free() {
	if r.Source == BodyDynamic {
		r.Body = nil
	}
}
