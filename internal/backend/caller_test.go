package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// rpcCall records one request seen by the fake caller.
type rpcCall struct {
	method string
	params []any
}

// fakeCaller is a scripted Caller: results maps a method to the JSON it
// returns, errs maps a method to a forced error. Every call is recorded.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []rpcCall
	results map[string]string
	errs    map[string]error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		results: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeCaller) Call(_ context.Context, result any, method string, params ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, rpcCall{method: method, params: params})
	res, hasResult := f.results[method]
	err := f.errs[method]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if result == nil || !hasResult {
		return nil
	}
	if umErr := json.Unmarshal([]byte(res), result); umErr != nil {
		return fmt.Errorf("fake result for %s: %w", method, umErr)
	}
	return nil
}

func (f *fakeCaller) callsFor(method string) []rpcCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rpcCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}
