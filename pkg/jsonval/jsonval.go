// Package jsonval holds an order-preserving JSON document model.
//
// Sanitized output must keep the exact key order of the input, which a
// Go map cannot guarantee, so records are decoded into this model
// instead of map[string]interface{} and encoded back member by member.
package jsonval

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Value is one node of a JSON document: Object, Array, string,
// json.Number, bool or nil.
type Value interface{}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object with its members in source order.
type Object []Member

// Array is a JSON array with its elements in source order.
type Array []Value

// Get returns the value of the first member with the given key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// GetString returns the value of the given key if it is a string.
func (o Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decode parses a single JSON document. Numbers are kept as
// json.Number so they re-serialize with their source text. Trailing
// non-whitespace data after the document is an error.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}

	switch delim {
	case '{':
		obj := Object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is not a string: %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, err
		}
		return obj, nil

	case '[':
		arr := Array{}
		for dec.More() {
			elem, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %q", delim.String())
}

// Append serializes v in collapsed form onto dst and returns the
// extended slice. Member and element order is preserved exactly.
func Append(dst []byte, v Value) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...), nil

	case bool:
		if t {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil

	case json.Number:
		return append(dst, t.String()...), nil

	case string:
		quoted, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(dst, quoted...), nil

	case Object:
		dst = append(dst, '{')
		for i, m := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return nil, err
			}
			dst = append(dst, key...)
			dst = append(dst, ':')
			dst, err = Append(dst, m.Value)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil

	case Array:
		dst = append(dst, '[')
		for i, elem := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = Append(dst, elem)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	}

	return nil, fmt.Errorf("unsupported value type %T", v)
}

// Encode serializes v in collapsed form.
func Encode(v Value) ([]byte, error) {
	return Append(nil, v)
}
