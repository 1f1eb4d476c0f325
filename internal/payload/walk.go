package payload

import "reflect"

type identity struct {
	ptr  uintptr
	size int
	kind reflect.Kind
}

func identify(v any) (identity, bool) {
	switch c := v.(type) {
	case map[string]any:
		return identity{ptr: reflect.ValueOf(c).Pointer(), kind: reflect.Map}, true
	case []any:
		if len(c) == 0 {
			return identity{}, false
		}
		return identity{ptr: reflect.ValueOf(c).Pointer(), size: len(c), kind: reflect.Slice}, true
	default:
		return identity{}, false
	}
}

// Walk visits every object and array reachable from root in depth-first pre-order, children in array order and
// object keys in [Node.Keys] order. Each composite value is visited at most once. Returning false from visit stops the walk.
func Walk(root Node, visit func(Node) bool) {
	seen := make(map[identity]struct{})
	stack := []any{root.v}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch cur.(type) {
		case map[string]any, []any:
		default:
			continue
		}

		if id, ok := identify(cur); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}

		n := Node{v: cur, order: root.order}
		if !visit(n) {
			return
		}

		if n.IsArray() {
			items := n.Items()
			for i := len(items) - 1; i >= 0; i-- {
				stack = append(stack, items[i].v)
			}
			continue
		}

		keys := n.Keys()
		for i := len(keys) - 1; i >= 0; i-- {
			stack = append(stack, n.Get(keys[i]).v)
		}
	}
}

// FindFirst returns the first node in walk order that satisfies pred.
func FindFirst(root Node, pred func(Node) bool) (Node, bool) {
	var found Node
	var ok bool
	Walk(root, func(n Node) bool {
		if pred(n) {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}
