package httpcore

import "bytes"

var httpVersion11 = []byte("HTTP/1.1")

// Parse decodes a request head out of buf into req. buf must hold at least
// a full head (terminated by CRLF CRLF); req is populated in place and
// every []byte field it ends up with is a sub-slice of buf. Parse performs
// no allocation, is deterministic, and is safe to call again against a
// fresh buffer fill (after req.reset, performed internally).
//
// Parse implements the strict pipeline of method token, target token,
// version token, and header block exactly as laid out for this server:
// no bare-LF tolerance, no header folding, no leniency on the
// request-line's trailing whitespace.
func Parse(buf []byte, req *Request) error {
	req.reset()

	cursor, err := parseMethodToken(buf, req)
	if err != nil {
		return err
	}

	target, cursor, err := parseTargetToken(buf, cursor)
	if err != nil {
		return err
	}

	if err := splitTarget(target, req); err != nil {
		return err
	}

	cursor, err = parseVersionToken(buf, cursor)
	if err != nil {
		return err
	}

	return parseHeaderBlock(buf, cursor, req)
}

func parseMethodToken(buf []byte, req *Request) (int, error) {
	idx := bytes.IndexByte(buf, spaceByte)
	if idx < 0 {
		return 0, ErrMalformedRequest
	}
	method, err := parseMethod(buf[:idx])
	if err != nil {
		return 0, err
	}
	req.Method = method
	return idx + 1, nil
}

func parseTargetToken(buf []byte, cursor int) (target []byte, next int, err error) {
	rel := bytes.IndexByte(buf[cursor:], spaceByte)
	if rel < 0 {
		return nil, 0, ErrMalformedRequest
	}
	end := cursor + rel
	target = buf[cursor:end]
	if len(target) > MaxURILength {
		return nil, 0, ErrUriTooLong
	}
	return target, end + 1, nil
}

func splitTarget(target []byte, req *Request) error {
	qIdx := bytes.IndexByte(target, questByte)
	if qIdx < 0 {
		req.URL = target
		return nil
	}
	req.URL = target[:qIdx]
	query := target[qIdx+1:]
	if len(query) == 0 {
		return nil
	}
	for len(query) > 0 {
		var pair []byte
		if amp := bytes.IndexByte(query, ampByte); amp >= 0 {
			pair = query[:amp]
			query = query[amp+1:]
		} else {
			pair = query
			query = nil
		}
		if len(pair) == 0 {
			continue
		}
		eq := bytes.IndexByte(pair, equalsByte)
		if eq < 0 {
			return ErrMalformedRequest
		}
		if err := req.addQuery(pair[:eq], pair[eq+1:]); err != nil {
			return err
		}
	}
	return nil
}

func parseVersionToken(buf []byte, cursor int) (int, error) {
	rel := bytes.IndexByte(buf[cursor:], '\n')
	if rel < 0 {
		return 0, ErrMalformedRequest
	}
	lf := cursor + rel
	if lf == cursor || buf[lf-1] != '\r' {
		return 0, ErrMalformedRequest
	}
	version := buf[cursor : lf-1]
	if !bytes.Equal(version, httpVersion11) {
		return 0, ErrUnsupported
	}
	return lf + 1, nil
}

func parseHeaderBlock(buf []byte, cursor int, req *Request) error {
	for {
		if cursor+1 >= len(buf) {
			return ErrMalformedRequest
		}
		if buf[cursor] == '\r' && buf[cursor+1] == '\n' {
			return nil
		}

		rel := bytes.IndexByte(buf[cursor:], '\n')
		if rel < 0 {
			return ErrMalformedRequest
		}
		lf := cursor + rel
		if lf == cursor || buf[lf-1] != '\r' {
			return ErrMalformedRequest
		}
		line := buf[cursor : lf-1]

		colon := bytes.IndexByte(line, colonByte)
		if colon < 0 {
			return ErrMalformedRequest
		}
		name := trimOWS(line[:colon])
		value := trimOWS(line[colon+1:])
		if len(name) > MaxHeaderName || len(value) > MaxHeaderValue {
			return ErrHeaderTooLong
		}
		if err := req.Header.add(name, value); err != nil {
			return err
		}

		cursor = lf + 1
	}
}
