package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
)

// Node is a read-only view of a decoded JSON value: an object, array, string, number, bool or null.
type Node struct {
	v     any
	order *keyOrder
}

// keyOrder remembers the document order of each decoded object's keys.
type keyOrder struct {
	keys map[uintptr][]string
}

func (o *keyOrder) of(m map[string]any) ([]string, bool) {
	if o == nil {
		return nil, false
	}
	keys, ok := o.keys[reflect.ValueOf(m).Pointer()]
	return keys, ok
}

// Wrap returns a Node for a value produced by encoding/json (or built from the same shapes).
// Object keys of a wrapped value are iterated in sorted order.
func Wrap(v any) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	return Node{v: v}
}

// Parse decodes data into a Node. Numbers are kept as [json.Number] and object keys keep their document order.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return Decode(dec)
}

type decodeFrame struct {
	obj    map[string]any
	arr    []any
	key    string
	hasKey bool
}

// Decode reads the next JSON value from dec, recording object key order. Input after the value is left unread.
func Decode(dec *json.Decoder) (Node, error) {
	order := &keyOrder{keys: make(map[uintptr][]string)}
	var stack []*decodeFrame

	// emit attaches v to the enclosing container and reports whether v was the whole document.
	emit := func(v any) bool {
		if len(stack) == 0 {
			return true
		}
		top := stack[len(stack)-1]
		if top.obj != nil {
			top.obj[top.key] = v
			top.hasKey = false
		} else {
			top.arr = append(top.arr, v)
		}
		return false
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return Node{}, fmt.Errorf("%w: decode payload: %v", shared.ErrAPIRequest, err)
		}

		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{':
				stack = append(stack, &decodeFrame{obj: make(map[string]any)})
				continue
			case '[':
				stack = append(stack, &decodeFrame{arr: []any{}})
				continue
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			var v any = top.arr
			if top.obj != nil {
				v = top.obj
			}
			if emit(v) {
				return Node{v: v, order: order}, nil
			}
			continue
		}

		if top := topFrame(stack); top != nil && top.obj != nil && !top.hasKey {
			key, _ := tok.(string)
			ptr := reflect.ValueOf(top.obj).Pointer()
			if _, dup := top.obj[key]; !dup {
				order.keys[ptr] = append(order.keys[ptr], key)
			}
			top.key, top.hasKey = key, true
			continue
		}

		if emit(tok) {
			return Node{v: tok, order: order}, nil
		}
	}
}

func topFrame(stack []*decodeFrame) *decodeFrame {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// Raw returns the underlying value.
func (n Node) Raw() any { return n.v }

// Exists reports whether the node holds a non-null value.
func (n Node) Exists() bool { return n.v != nil }

func (n Node) IsObject() bool {
	_, ok := n.v.(map[string]any)
	return ok
}

func (n Node) IsArray() bool {
	_, ok := n.v.([]any)
	return ok
}

// Get follows object keys. Any missing key or non-object step yields an empty Node.
func (n Node) Get(keys ...string) Node {
	cur := n.v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return Node{}
		}
		cur = m[k]
	}
	return Node{v: cur, order: n.order}
}

// At returns the i-th element of an array, or an empty Node.
func (n Node) At(i int) Node {
	arr, ok := n.v.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return Node{}
	}
	return Node{v: arr[i], order: n.order}
}

// Items returns the elements of an array; nil for anything else.
func (n Node) Items() []Node {
	arr, ok := n.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{v: v, order: n.order}
	}
	return out
}

// Keys returns the keys of an object in document order when it was parsed, sorted otherwise.
func (n Node) Keys() []string {
	m, ok := n.v.(map[string]any)
	if !ok {
		return nil
	}
	if keys, ok := n.order.of(m); ok && len(keys) == len(m) {
		return slices.Clone(keys)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Str returns the value if it is a string.
func (n Node) Str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

// String returns the string value or "".
func (n Node) String() string {
	s, _ := n.Str()
	return s
}

// Int returns an integral value from a JSON number or a numeric string.
func (n Node) Int() (int, bool) {
	switch v := n.v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		return Node{v: mustFloat(v)}.Int()
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	default:
		return 0, false
	}
}

func mustFloat(n json.Number) any {
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return f
}

// Bool returns the value if it is a bool.
func (n Node) Bool() (bool, bool) {
	b, ok := n.v.(bool)
	return b, ok
}

// Truthy reports whether the value would count as set: true, a non-empty string or a non-zero number.
func (n Node) Truthy() bool {
	switch v := n.v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

// Text reads a formatted text object: simpleText, or the concatenation of its runs.
// The result is whitespace-normalised.
func (n Node) Text() string {
	if !n.IsObject() {
		return ""
	}
	if s, ok := n.Get("simpleText").Str(); ok {
		return shared.NormalizeText(s)
	}
	runs := n.Get("runs")
	if !runs.IsArray() {
		return ""
	}
	var b strings.Builder
	for _, r := range runs.Items() {
		b.WriteString(r.Get("text").String())
	}
	return shared.NormalizeText(b.String())
}
