package jsengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dop251/goja"
)

const defaultHTTPTimeout = 30 * time.Second

// httpModule returns the http object: get, post, put, delete and
// request(method, url, [options]).
func (e *Engine) httpModule() *goja.Object {
	obj := e.runtime.NewObject()
	for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		method := method
		name := map[string]string{"GET": "get", "POST": "post", "PUT": "put", "DELETE": "delete"}[method]
		if err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			return e.doHTTPRequest(method, call.Arguments)
		}); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.%s: %v", name, err)))
		}
	}

	if err := obj.Set("request", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.runtime.NewTypeError("http.request requires method and url"))
		}
		return e.doHTTPRequest(call.Arguments[0].String(), call.Arguments[1:])
	}); err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.request: %v", err)))
	}
	return obj
}

// requestOptions are the optional second argument of http calls.
type requestOptions struct {
	body    io.Reader
	headers map[string]string
	timeout time.Duration
}

func parseRequestOptions(v goja.Value) requestOptions {
	opts := requestOptions{headers: make(map[string]string), timeout: defaultHTTPTimeout}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return opts
	}
	m, ok := v.Export().(map[string]interface{})
	if !ok {
		return opts
	}

	if h, ok := m["headers"].(map[string]interface{}); ok {
		for k, val := range h {
			opts.headers[k] = fmt.Sprintf("%v", val)
		}
	}
	switch b := m["body"].(type) {
	case string:
		opts.body = bytes.NewBufferString(b)
	case map[string]interface{}, []interface{}:
		data, _ := json.Marshal(b)
		opts.body = bytes.NewBuffer(data)
		if _, ok := opts.headers["Content-Type"]; !ok {
			opts.headers["Content-Type"] = "application/json"
		}
	}
	switch t := m["timeout"].(type) {
	case int64:
		opts.timeout = time.Duration(t) * time.Millisecond
	case float64:
		opts.timeout = time.Duration(t) * time.Millisecond
	}
	return opts
}

// doHTTPRequest performs a request and returns {status, body, headers, ok, json}.
func (e *Engine) doHTTPRequest(method string, args []goja.Value) goja.Value {
	if len(args) < 1 {
		panic(e.runtime.NewTypeError(fmt.Sprintf("http.%s requires url", method)))
	}
	var optsArg goja.Value
	if len(args) > 1 {
		optsArg = args[1]
	}
	opts := parseRequestOptions(optsArg)

	req, err := http.NewRequest(method, args[0].String(), opts.body)
	if err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to create request: %v", err)))
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := (&http.Client{Timeout: opts.timeout}).Do(req)
	if err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("HTTP request failed: %v", err)))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to read response: %v", err)))
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	out := e.runtime.NewObject()
	_ = out.Set("status", resp.StatusCode)
	_ = out.Set("body", string(data))
	_ = out.Set("headers", headers)
	_ = out.Set("ok", resp.StatusCode >= 200 && resp.StatusCode < 300)

	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err == nil {
		_ = out.Set("json", parsed)
	} else {
		_ = out.Set("json", goja.Null())
	}
	return out
}
