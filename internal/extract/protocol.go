package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Request is sent to a content generator.
type Request struct {
	Suggestion string              `json:"suggestion"`
	Nodes      []NodeSelectionInfo `json:"nodes"`
}

// Result is the generated content for one entry of Request.Nodes.
type Result struct {
	NodeIndex            int    `json:"nodeIndex"`
	NewContent           string `json:"newContent"`
	ReplaceEntireContext bool   `json:"replaceEntireContext"`
}

// Response is returned by a content generator.
type Response struct {
	Success bool     `json:"success"`
	Results []Result `json:"results"`
	Message string   `json:"message,omitempty"`
}

// Generator produces replacement content for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// MapGenerator returns a generator that replaces every selected range with
// fn applied to its content.
func MapGenerator(fn func(string) string) Generator {
	return GeneratorFunc(func(ctx context.Context, req Request) (Response, error) {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		results := make([]Result, len(req.Nodes))
		for i, n := range req.Nodes {
			results[i] = Result{NodeIndex: i, NewContent: fn(n.Content)}
		}
		return Response{Success: true, Results: results}, nil
	})
}

// EchoGenerator returns every selection unchanged.
func EchoGenerator() Generator {
	return MapGenerator(func(s string) string { return s })
}

// MirrorGenerator reverses every selection.
func MirrorGenerator() Generator {
	return MapGenerator(func(s string) string {
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return string(r)
	})
}

// UpperGenerator upper-cases every selection.
func UpperGenerator() Generator {
	return MapGenerator(strings.ToUpper)
}

// GeneratorByName returns a built-in generator: echo, mirror or upper.
func GeneratorByName(name string) (Generator, error) {
	switch name {
	case "echo":
		return EchoGenerator(), nil
	case "mirror":
		return MirrorGenerator(), nil
	case "upper":
		return UpperGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown generator %q", name)
	}
}

// ============================================================================
// Wire format
// ============================================================================

// Transport carries an encoded request to a generation service and returns
// the encoded response.
type Transport func(ctx context.Context, body []byte) ([]byte, error)

// WireGenerator is a Generator that talks JSON over a Transport.
type WireGenerator struct {
	Transport Transport
}

// Generate implements Generator.
func (g *WireGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	body, err := EncodeRequest(req)
	if err != nil {
		return Response{}, err
	}
	out, err := g.Transport(ctx, body)
	if err != nil {
		return Response{}, serviceErrorf(err, "transport")
	}
	resp, err := DecodeResponse(out)
	if err != nil {
		return Response{}, serviceErrorf(err, "invalid response")
	}
	return resp, nil
}

// Loopback returns a Transport that decodes requests, runs gen and encodes
// its responses in process.
func Loopback(gen Generator) Transport {
	return func(ctx context.Context, body []byte) ([]byte, error) {
		req, err := DecodeRequest(body)
		if err != nil {
			return nil, err
		}
		resp, err := gen.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		return EncodeResponse(resp)
	}
}

// EncodeRequest encodes a request as JSON.
func EncodeRequest(req Request) ([]byte, error) {
	b, err := sjson.SetBytes([]byte(`{}`), "suggestion", req.Suggestion)
	if err != nil {
		return nil, err
	}
	if b, err = sjson.SetRawBytes(b, "nodes", []byte(`[]`)); err != nil {
		return nil, err
	}
	for _, n := range req.Nodes {
		obj, err := encodeObject(
			"from", n.From,
			"to", n.To,
			"content", n.Content,
			"context", n.Context,
			"contextFrom", n.ContextFrom,
			"contextTo", n.ContextTo,
		)
		if err != nil {
			return nil, err
		}
		if b, err = sjson.SetRawBytes(b, "nodes.-1", obj); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// DecodeRequest decodes a JSON request.
func DecodeRequest(data []byte) (Request, error) {
	if !gjson.ValidBytes(data) {
		return Request{}, fmt.Errorf("%w: request is not valid JSON", ErrMalformedMessage)
	}
	root := gjson.ParseBytes(data)
	suggestion := root.Get("suggestion")
	if suggestion.Type != gjson.String {
		return Request{}, fmt.Errorf("%w: suggestion must be a string", ErrMalformedMessage)
	}
	req := Request{Suggestion: suggestion.Str}

	nodes := root.Get("nodes")
	if !nodes.IsArray() {
		return Request{}, fmt.Errorf("%w: nodes must be an array", ErrMalformedMessage)
	}
	for i, n := range nodes.Array() {
		info := NodeSelectionInfo{
			Content: n.Get("content").String(),
			Context: n.Get("context").String(),
		}
		for key, dst := range map[string]*int{
			"from":        &info.From,
			"to":          &info.To,
			"contextFrom": &info.ContextFrom,
			"contextTo":   &info.ContextTo,
		} {
			v := n.Get(key)
			if v.Type != gjson.Number {
				return Request{}, fmt.Errorf("%w: nodes.%d.%s must be a number", ErrMalformedMessage, i, key)
			}
			*dst = int(v.Int())
		}
		req.Nodes = append(req.Nodes, info)
	}
	return req, nil
}

// EncodeResponse encodes a response as JSON.
func EncodeResponse(resp Response) ([]byte, error) {
	b, err := sjson.SetBytes([]byte(`{}`), "success", resp.Success)
	if err != nil {
		return nil, err
	}
	if b, err = sjson.SetRawBytes(b, "results", []byte(`[]`)); err != nil {
		return nil, err
	}
	for _, r := range resp.Results {
		obj, err := encodeObject(
			"nodeIndex", r.NodeIndex,
			"newContent", r.NewContent,
			"replaceEntireContext", r.ReplaceEntireContext,
		)
		if err != nil {
			return nil, err
		}
		if b, err = sjson.SetRawBytes(b, "results.-1", obj); err != nil {
			return nil, err
		}
	}
	if resp.Message != "" {
		if b, err = sjson.SetBytes(b, "message", resp.Message); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// encodeObject builds a JSON object from alternating keys and values.
func encodeObject(kv ...any) ([]byte, error) {
	obj := []byte(`{}`)
	for i := 0; i+1 < len(kv); i += 2 {
		var err error
		if obj, err = sjson.SetBytes(obj, kv[i].(string), kv[i+1]); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// DecodeResponse decodes a JSON response. A missing replaceEntireContext
// defaults to false.
func DecodeResponse(data []byte) (Response, error) {
	if !gjson.ValidBytes(data) {
		return Response{}, fmt.Errorf("%w: response is not valid JSON", ErrMalformedMessage)
	}
	root := gjson.ParseBytes(data)
	success := root.Get("success")
	if success.Type != gjson.True && success.Type != gjson.False {
		return Response{}, fmt.Errorf("%w: success must be a boolean", ErrMalformedMessage)
	}
	resp := Response{
		Success: success.Bool(),
		Message: root.Get("message").String(),
	}

	results := root.Get("results")
	if !results.Exists() {
		return resp, nil
	}
	if !results.IsArray() {
		return Response{}, fmt.Errorf("%w: results must be an array", ErrMalformedMessage)
	}
	for i, r := range results.Array() {
		index := r.Get("nodeIndex")
		if index.Type != gjson.Number {
			return Response{}, fmt.Errorf("%w: results.%d.nodeIndex must be a number", ErrMalformedMessage, i)
		}
		content := r.Get("newContent")
		if content.Exists() && content.Type != gjson.String {
			return Response{}, fmt.Errorf("%w: results.%d.newContent must be a string", ErrMalformedMessage, i)
		}
		resp.Results = append(resp.Results, Result{
			NodeIndex:            int(index.Int()),
			NewContent:           content.Str,
			ReplaceEntireContext: r.Get("replaceEntireContext").Bool(),
		})
	}
	return resp, nil
}
