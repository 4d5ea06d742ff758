package httpclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// maxLineBytes bounds how much of the first response line is buffered.
const maxLineBytes = 4 << 20

// readFirstLine returns the body up to the first line terminator. A line ends
// at "\n", "\r\n" or a lone "\r". ok is false for an empty body. A first line
// longer than maxLineBytes is cut there and reported as truncated.
func readFirstLine(r io.Reader) (line string, ok, truncated bool, err error) {
	br := bufio.NewReader(io.LimitReader(r, maxLineBytes+1))
	raw, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, false, err
	}
	if raw == "" {
		return "", false, false, nil
	}
	if i := strings.IndexAny(raw, "\r\n"); i >= 0 {
		return raw[:i], true, false, nil
	}
	if len(raw) > maxLineBytes {
		return raw[:maxLineBytes], true, true, nil
	}
	return raw, true, false, nil
}

// parseFirstLine decodes line as a JSON object, then as a JSON array, and
// stores the result on env. Numbers are kept as json.Number so large integers
// survive unchanged. A line that is neither leaves env without payload and
// returns a ParseError.
func parseFirstLine(env *Envelope, line string) error {
	var obj map[string]any
	if err := decodeJSON(line, &obj); err == nil && obj != nil {
		env.SetObject(obj)
		return nil
	}

	var arr []any
	err := decodeJSON(line, &arr)
	if err == nil && arr != nil {
		env.SetArray(arr)
		return nil
	}
	if err == nil {
		err = errors.New("null payload")
	}
	return NewParseError(line, err)
}

// decodeJSON decodes exactly one JSON value from data into v. Trailing
// content other than whitespace is an error.
func decodeJSON(data string, v any) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
