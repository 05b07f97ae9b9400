package httpcore

import (
	"bytes"
	"testing"
)

func mustParse(t *testing.T, raw string) *Request {
	t.Helper()
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("Parse(%q) returned error: %v", raw, err)
	}
	return req
}

func TestParseSimpleGet(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	if req.Method != MethodGet {
		t.Fatalf("method = %v, want GET", req.Method)
	}
	if string(req.URL) != "/" {
		t.Fatalf("url = %q, want /", req.URL)
	}
	if req.Header.Len() != 1 {
		t.Fatalf("header len = %d, want 1", req.Header.Len())
	}
	if got := req.Header.Get([]byte("host")); string(got) != "x" {
		t.Fatalf("Host = %q, want x", got)
	}
}

func TestParseQueryPairs(t *testing.T) {
	req := mustParse(t, "GET /home?a=1&b=2 HTTP/1.1\r\nHost: x\r\n\r\n")
	if string(req.URL) != "/home" {
		t.Fatalf("url = %q, want /home", req.URL)
	}
	if req.QueryOffset() != 2 {
		t.Fatalf("qOffset = %d, want 2", req.QueryOffset())
	}
	n0, v0 := req.Query(0)
	n1, v1 := req.Query(1)
	if string(n0) != "a" || string(v0) != "1" || string(n1) != "b" || string(v1) != "2" {
		t.Fatalf("query pairs = (%s=%s, %s=%s), want (a=1, b=2)", n0, v0, n1, v1)
	}
}

func TestParseDuplicateQueryRetained(t *testing.T) {
	req := mustParse(t, "GET /x?a=1&a=2 HTTP/1.1\r\n\r\n")
	if req.QueryOffset() != 2 {
		t.Fatalf("qOffset = %d, want 2", req.QueryOffset())
	}
	_, v0 := req.Query(0)
	_, v1 := req.Query(1)
	if string(v0) != "1" || string(v1) != "2" {
		t.Fatalf("duplicates not retained in order: %s, %s", v0, v1)
	}
}

func TestParseMethodUnsupportedVsInvalid(t *testing.T) {
	cases := []struct {
		method string
		want   error
	}{
		{"HEAD", ErrUnsupported},
		{"DELETE", ErrUnsupported},
		{"CONNECT", ErrUnsupported},
		{"OPTIONS", ErrUnsupported},
		{"TRACE", ErrUnsupported},
		{"PUT", ErrUnsupported},
		{"PATCH", ErrInvalidMethodName},
		{"FOO", ErrInvalidMethodName},
	}
	for _, tc := range cases {
		req := &Request{}
		raw := tc.method + " / HTTP/1.1\r\n\r\n"
		err := Parse([]byte(raw), req)
		if err != tc.want {
			t.Errorf("method %s: err = %v, want %v", tc.method, err, tc.want)
		}
	}
}

func TestParseMissingSpaceIsMalformed(t *testing.T) {
	req := &Request{}
	err := Parse([]byte("GET/HTTP/1.1\r\n\r\n"), req)
	if err != ErrMalformedRequest {
		t.Fatalf("err = %v, want ErrMalformedRequest", err)
	}
}

func TestParseHTTP10IsUnsupported(t *testing.T) {
	req := &Request{}
	err := Parse([]byte("GET / HTTP/1.0\r\n\r\n"), req)
	if err != ErrUnsupported {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestParseBareLFRejected(t *testing.T) {
	req := &Request{}
	err := Parse([]byte("GET / HTTP/1.1\nHost: x\r\n\r\n"), req)
	if err != ErrMalformedRequest {
		t.Fatalf("err = %v, want ErrMalformedRequest (no bare-LF leniency)", err)
	}
}

func TestParseURILengthBoundary(t *testing.T) {
	// The target token includes the leading '/', so MaxURILength-1 more
	// bytes make a target of exactly MaxURILength bytes.
	ok := bytes.Repeat([]byte("a"), MaxURILength-1)
	raw := append([]byte("GET /"), ok...)
	raw = append(raw, []byte(" HTTP/1.1\r\n\r\n")...)
	req := &Request{}
	if err := Parse(raw, req); err != nil {
		t.Fatalf("%d-byte target: got %v, want nil", MaxURILength, err)
	}

	tooLong := bytes.Repeat([]byte("a"), MaxURILength)
	raw2 := append([]byte("GET /"), tooLong...)
	raw2 = append(raw2, []byte(" HTTP/1.1\r\n\r\n")...)
	req2 := &Request{}
	if err := Parse(raw2, req2); err != ErrUriTooLong {
		t.Fatalf("%d-byte target: got %v, want ErrUriTooLong", MaxURILength+1, err)
	}
}

func TestParseHeaderNameLengthBoundary(t *testing.T) {
	name := bytes.Repeat([]byte("n"), MaxHeaderName)
	raw := append([]byte("GET / HTTP/1.1\r\n"), name...)
	raw = append(raw, []byte(": v\r\n\r\n")...)
	req := &Request{}
	if err := Parse(raw, req); err != nil {
		t.Fatalf("%d-byte header name: got %v, want nil", MaxHeaderName, err)
	}

	name2 := bytes.Repeat([]byte("n"), MaxHeaderName+1)
	raw2 := append([]byte("GET / HTTP/1.1\r\n"), name2...)
	raw2 = append(raw2, []byte(": v\r\n\r\n")...)
	req2 := &Request{}
	if err := Parse(raw2, req2); err != ErrHeaderTooLong {
		t.Fatalf("%d-byte header name: got %v, want ErrHeaderTooLong", MaxHeaderName+1, err)
	}
}

func TestParseHeaderCountBoundary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < MaxHeaders; i++ {
		buf.WriteString("H: v\r\n")
	}
	buf.WriteString("\r\n")
	req := &Request{}
	if err := Parse(buf.Bytes(), req); err != nil {
		t.Fatalf("%d headers: got %v, want nil", MaxHeaders, err)
	}

	var buf2 bytes.Buffer
	buf2.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < MaxHeaders+1; i++ {
		buf2.WriteString("H: v\r\n")
	}
	buf2.WriteString("\r\n")
	req2 := &Request{}
	if err := Parse(buf2.Bytes(), req2); err != ErrLimitExceeded {
		t.Fatalf("%d headers: got %v, want ErrLimitExceeded", MaxHeaders+1, err)
	}
}

func TestParseQueryPairCountBoundary(t *testing.T) {
	var q bytes.Buffer
	for i := 0; i < MaxQueryPairs; i++ {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString("a=1")
	}
	raw := "GET /x?" + q.String() + " HTTP/1.1\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("%d query pairs: got %v, want nil", MaxQueryPairs, err)
	}

	q.WriteByte('&')
	q.WriteString("a=1")
	raw2 := "GET /x?" + q.String() + " HTTP/1.1\r\n\r\n"
	req2 := &Request{}
	if err := Parse([]byte(raw2), req2); err != ErrLimitExceeded {
		t.Fatalf("%d query pairs: got %v, want ErrLimitExceeded", MaxQueryPairs+1, err)
	}
}

func TestParseIdempotent(t *testing.T) {
	raw := []byte("GET /home?a=1&b=2 HTTP/1.1\r\nHost: x\r\nAccept: */*\r\n\r\n")
	req1 := &Request{}
	req2 := &Request{}
	if err := Parse(raw, req1); err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if err := Parse(raw, req2); err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if req1.Method != req2.Method || !bytes.Equal(req1.URL, req2.URL) || req1.QueryOffset() != req2.QueryOffset() {
		t.Fatalf("parsing the same buffer twice produced different results")
	}
}

func TestParseNoAllocationSlicesIntoBuffer(t *testing.T) {
	raw := []byte("GET /home?a=1 HTTP/1.1\r\nHost: x\r\n\r\n")
	req := &Request{}
	if err := Parse(raw, req); err != nil {
		t.Fatalf("parse: %v", err)
	}
	urlStart := bytesIndexWithin(raw, req.URL)
	if urlStart < 0 {
		t.Fatalf("req.URL does not point into the parsed buffer")
	}
}

func bytesIndexWithin(buf, sub []byte) int {
	if len(sub) == 0 {
		return 0
	}
	return bytes.Index(buf, sub)
}

func TestParsePayloadTooLargeScenario(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < 25; i++ {
		buf.WriteString("H: v\r\n")
	}
	buf.WriteString("\r\n")
	req := &Request{}
	err := Parse(buf.Bytes(), req)
	if err != ErrLimitExceeded {
		t.Fatalf("25 headers: got %v, want ErrLimitExceeded", err)
	}
}
