package expr

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToMap converts n into the generic object form used on the wire:
//
//	{"type":"num","value":"3/2"}
//	{"type":"sym","name":"x"}
//	{"type":"neg","arg":{...}}
//	{"type":"paren","arg":{...}}
//	{"type":"bin","op":"*","left":{...},"right":{...},"implicit":true}
//
// Non-zero linkage tags are carried in a "tag" field.
func ToMap(n Node) map[string]interface{} {
	m := map[string]interface{}{"type": n.nodeType()}
	switch x := n.(type) {
	case *Number:
		m["value"] = x.Value.RatString()
	case *Symbol:
		m["name"] = x.Name
	case *UnaryMinus:
		m["arg"] = ToMap(x.Operand)
	case *Parenthesis:
		m["arg"] = ToMap(x.Inner)
	case *BinaryOp:
		m["op"] = x.Op.String()
		m["left"] = ToMap(x.Left)
		m["right"] = ToMap(x.Right)
		if x.Implicit {
			m["implicit"] = true
		}
	}
	if t := n.Tag(); t != 0 {
		m["tag"] = t
	}
	return m
}

// ToJSON encodes n in the object form described at ToMap.
func ToJSON(n Node) (string, error) {
	b, err := json.Marshal(ToMap(n))
	return string(b), err
}

// FromJSON decodes the object form produced by ToMap. Numbers in the
// "tag" field arrive as float64 from encoding/json and are truncated.
func FromJSON(data map[string]interface{}) (Node, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	sub := func(field string) (Node, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		n, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return n, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	var n Node
	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		n = &Number{Value: r}

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		n = Sym(name)

	case "neg", "paren":
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		if typ == "neg" {
			n = Neg(arg)
		} else {
			n = Paren(arg)
		}

	case "bin":
		opStr, err := subString("op")
		if err != nil {
			return nil, err
		}
		if len(opStr) != 1 || !isOperator(Op(opStr[0])) {
			return nil, fmt.Errorf("bin: unknown operator %q", opStr)
		}
		left, err := sub("left")
		if err != nil {
			return nil, err
		}
		right, err := sub("right")
		if err != nil {
			return nil, err
		}
		b := Bin(Op(opStr[0]), left, right)
		b.Implicit, _ = data["implicit"].(bool)
		n = b

	default:
		return nil, fmt.Errorf("unknown expression type: %s", typ)
	}

	switch t := data["tag"].(type) {
	case float64:
		n.SetTag(int(t))
	case int:
		n.SetTag(t)
	}
	return n, nil
}

func isOperator(o Op) bool {
	switch o {
	case Add, Sub, Mul, Div, Pow:
		return true
	}
	return false
}
