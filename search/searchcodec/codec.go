// Package searchcodec maps attribute collections to the textual content column and back.
//
// The content is a json object. Attribute order and nesting survive a round trip,
// which a plain map based json round trip would lose.
package searchcodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/meidoworks/nekoq-search/search/searchapi"
)

func Encode(attrs *searchapi.Attributes) (string, error) {
	buf := new(bytes.Buffer)
	if err := writeObject(buf, attrs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeObject(buf *bytes.Buffer, attrs *searchapi.Attributes) (rerr error) {
	buf.WriteByte('{')
	first := true
	attrs.Each(func(attr searchapi.Attribute) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeString(buf, attr.Name); err != nil {
			rerr = fmt.Errorf("attribute name: %w", err)
			return false
		}
		buf.WriteByte(':')
		if err := writeValue(buf, attr.Value); err != nil {
			rerr = fmt.Errorf("attribute %q: %w", attr.Name, err)
			return false
		}
		return true
	})
	if rerr != nil {
		return rerr
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v searchapi.Value) error {
	switch v.Kind() {
	case searchapi.KindNull:
		buf.WriteString("null")
	case searchapi.KindString:
		return writeString(buf, v.Str())
	case searchapi.KindNumber:
		if math.IsNaN(v.Num()) || math.IsInf(v.Num(), 0) {
			return fmt.Errorf("%w: non-finite number", searchapi.ErrUnsupportedValue)
		}
		data, err := json.Marshal(v.Num())
		if err != nil {
			return err
		}
		buf.Write(data)
	case searchapi.KindBool:
		if v.Boolean() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case searchapi.KindList:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case searchapi.KindObject:
		return writeObject(buf, v.Fields())
	default:
		return fmt.Errorf("%w: kind %d", searchapi.ErrUnsupportedValue, v.Kind())
	}
	return nil
}

// writeString keeps <, > and & unescaped so that substring queries see the raw text.
// Invalid utf-8 is rejected, json would replace it with U+FFFD.
func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid utf-8 string %q", searchapi.ErrUnsupportedValue, s)
	}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Decode parses the whole blob and then keeps only the named attributes.
// An empty name list keeps all attributes.
func Decode(blob string, names []string) (*searchapi.Attributes, error) {
	dec := json.NewDecoder(strings.NewReader(blob))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, searchapi.MalformedContent("read content", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, searchapi.MalformedContent("content is not an object", nil)
	}
	attrs, err := readObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, searchapi.MalformedContent("trailing data after content", err)
	}

	if len(names) == 0 {
		return attrs, nil
	}
	return attrs.Filter(names), nil
}

// readObject expects the opening brace to be consumed already
func readObject(dec *json.Decoder) (*searchapi.Attributes, error) {
	attrs := searchapi.NewAttributes()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, searchapi.MalformedContent("read attribute name", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, searchapi.MalformedContent("attribute name is not a string", nil)
		}
		if attrs.Has(name) {
			return nil, searchapi.MalformedContent("duplicated attribute "+name, nil)
		}
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		attrs.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, searchapi.MalformedContent("read end of object", err)
	}
	return attrs, nil
}

func readValue(dec *json.Decoder) (searchapi.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return searchapi.Value{}, searchapi.MalformedContent("read value", err)
	}
	switch t := tok.(type) {
	case nil:
		return searchapi.Null(), nil
	case string:
		return searchapi.String(t), nil
	case bool:
		return searchapi.Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return searchapi.Value{}, searchapi.MalformedContent("invalid number "+t.String(), err)
		}
		return searchapi.Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			fields, err := readObject(dec)
			if err != nil {
				return searchapi.Value{}, err
			}
			return searchapi.Object(fields), nil
		case '[':
			var items []searchapi.Value
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return searchapi.Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return searchapi.Value{}, searchapi.MalformedContent("read end of list", err)
			}
			return searchapi.List(items...), nil
		}
	}
	return searchapi.Value{}, searchapi.MalformedContent(fmt.Sprint("unexpected token ", tok), nil)
}
