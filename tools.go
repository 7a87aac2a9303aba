package mathsteps

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/florisdf/mathsteps/expon"
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/factor"
	"github.com/florisdf/mathsteps/isolate"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
)

// ============================================================
// MCP Tool Interface
// ============================================================

// ToolRequest is one tool call. Expression params may be given either as
// text ("2*x + 4") or in the object form of expr.ToMap.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{}    `json:"result,omitempty"`
	String string         `json:"string,omitempty"`
	Steps  *step.Rendered `json:"steps,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Toolbox answers tool calls with one pipeline.
type Toolbox struct {
	pipeline *isolate.Pipeline
}

// NewToolbox returns a toolbox running p. A nil p uses a default pipeline.
func NewToolbox(p *isolate.Pipeline) *Toolbox {
	if p == nil {
		p = isolate.New()
	}
	return &Toolbox{pipeline: p}
}

var defaultToolbox = NewToolbox(nil)

// HandleToolCall answers req with the default toolbox.
func HandleToolCall(req ToolRequest) ToolResponse { return defaultToolbox.HandleToolCall(req) }

type exprParams struct {
	Expr interface{} `mapstructure:"expr"`
}

type intParams struct {
	N float64 `mapstructure:"n"`
}

type divideParams struct {
	Expr    interface{} `mapstructure:"expr"`
	Divisor interface{} `mapstructure:"divisor"`
}

// decodeParams fills out from params, rejecting unknown keys.
func decodeParams(params map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// toNode accepts an expression param as text or as an object.
func toNode(key string, v interface{}) (expr.Node, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("missing param: %s", key)
	case string:
		return expr.Parse(x)
	case map[string]interface{}:
		return expr.FromJSON(x)
	default:
		return nil, fmt.Errorf("param %s must be a string or an expression object", key)
	}
}

func toInt(v float64) (int64, error) {
	if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return 0, fmt.Errorf("param n must be an integer")
	}
	return int64(v), nil
}

type refJSON struct {
	Term   int    `json:"term"`
	Factor int    `json:"factor"`
	Value  string `json:"value"`
}

type groupJSON struct {
	Equal    []refJSON `json:"equal"`
	Opposite []refJSON `json:"opposite"`
}

func renderRefs(refs []polynom.FactorRef) []refJSON {
	out := make([]refJSON, len(refs))
	for i, r := range refs {
		out[i] = refJSON{Term: r.Term, Factor: r.Factor, Value: r.Value.String()}
	}
	return out
}

// HandleToolCall answers req. Errors are reported in ToolResponse.Error.
func (t *Toolbox) HandleToolCall(req ToolRequest) ToolResponse {
	getExpr := func() (expr.Node, error) {
		var p exprParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return toNode("expr", p.Expr)
	}
	getInt := func() (int64, error) {
		var p intParams
		if _, ok := req.Params["n"]; !ok {
			return 0, fmt.Errorf("missing param: n")
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return 0, err
		}
		return toInt(p.N)
	}
	respond := func(n expr.Node) ToolResponse {
		return ToolResponse{Result: expr.ToMap(n), String: n.String()}
	}
	respondStep := func(s *step.Step) ToolResponse {
		return ToolResponse{Result: s.HasChanged(), String: s.After.String(), Steps: s.Render()}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "parse":
		n, err := getExpr()
		if err != nil {
			return fail(err)
		}
		return respond(n)

	case "simplify":
		n, err := getExpr()
		if err != nil {
			return fail(err)
		}
		return respondStep(simplify.Step(t.pipeline.Simplifier(), step.SimplifyArithmetic, n))

	case "prime_factors":
		v, err := getInt()
		if err != nil {
			return fail(err)
		}
		primes := factor.Primes(v)
		return ToolResponse{Result: primes, String: fmt.Sprint(primes)}

	case "factor_pairs":
		v, err := getInt()
		if err != nil {
			return fail(err)
		}
		if v == 0 {
			return fail(fmt.Errorf("param n must be non-zero"))
		}
		pairs := factor.FactorPairs(v)
		return ToolResponse{Result: pairs, String: fmt.Sprint(pairs)}

	case "collapse_exponents":
		n, err := getExpr()
		if err != nil {
			return fail(err)
		}
		return respond(expon.CollapseExponents(n))

	case "op_eq_facs":
		n, err := getExpr()
		if err != nil {
			return fail(err)
		}
		groups, err := t.pipeline.Analyzer().OpEqFacs(expr.NewTree(n))
		if err != nil {
			return fail(err)
		}
		out := make([]groupJSON, len(groups))
		for i, g := range groups {
			out[i] = groupJSON{Equal: renderRefs(g.Equal), Opposite: renderRefs(g.Opposite)}
		}
		return ToolResponse{Result: out, String: fmt.Sprintf("%d groups", len(out))}

	case "divide":
		var p divideParams
		if err := decodeParams(req.Params, &p); err != nil {
			return fail(err)
		}
		n, err := toNode("expr", p.Expr)
		if err != nil {
			return fail(err)
		}
		d, err := toNode("divisor", p.Divisor)
		if err != nil {
			return fail(err)
		}
		q, err := polynom.DivideBySimpleFactor(n, d)
		if err != nil {
			return fail(err)
		}
		return respond(q)

	case "isolate_common_factors":
		n, err := getExpr()
		if err != nil {
			return fail(err)
		}
		return respondStep(t.pipeline.IsolateCommonFactors(n))

	case "mcp_spec":
		var spec interface{}
		if err := json.Unmarshal([]byte(MCPToolSpec()), &spec); err != nil {
			return fail(err)
		}
		return ToolResponse{Result: spec}

	default:
		return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}
}

// ToolNames lists every tool HandleToolCall answers.
func ToolNames() []string {
	names := make([]string, 0, len(toolSpecs))
	for _, t := range toolSpecs {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

type toolSpec struct {
	name, description string
	required          []string
	props             map[string]string
}

var toolSpecs = []toolSpec{
	{"parse", "Parse an expression and return its tree", []string{"expr"}, map[string]string{"expr": "string"}},
	{"simplify", "Simplify an expression to canonical polynomial form", []string{"expr"}, map[string]string{"expr": "string"}},
	{"prime_factors", "Prime factors of an integer, -1 first when negative", []string{"n"}, map[string]string{"n": "integer"}},
	{"factor_pairs", "Divisor pairs (d, n/d) with |d| <= sqrt(|n|)", []string{"n"}, map[string]string{"n": "integer"}},
	{"collapse_exponents", "Rewrite ((b^e1)^e2)^e3 as b^(e1*e2*e3)", []string{"expr"}, map[string]string{"expr": "string"}},
	{"op_eq_facs", "Group equal and opposite factors across terms", []string{"expr"}, map[string]string{"expr": "string"}},
	{"divide", "Divide every term by a product of factors it contains", []string{"expr", "divisor"}, map[string]string{"expr": "string", "divisor": "string"}},
	{"isolate_common_factors", "Pull common factors out of a sum, with steps", []string{"expr"}, map[string]string{"expr": "string"}},
	{"mcp_spec", "Return this tool schema", []string{}, map[string]string{}},
}

// MCPToolSpec returns the JSON schema of every tool.
func MCPToolSpec() string {
	tools := make([]map[string]interface{}, len(toolSpecs))
	for i, t := range toolSpecs {
		tools[i] = ts(t.name, t.description, t.required, t.props)
	}
	spec := map[string]interface{}{"name": "mathsteps", "version": Version, "tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
