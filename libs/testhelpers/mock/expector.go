package mock

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// Expectation is a single expected call on a mock along with what the call returns.
type Expectation struct {
	FName           string
	Params          []interface{}
	Returns         []interface{}
	ParamValidation func(params ...interface{})
}

// NewExpectation builds an expectation for the method value f called with params.
func NewExpectation(f interface{}, params ...interface{}) *Expectation {
	return &Expectation{
		FName:  funcName(reflect.ValueOf(f).Pointer()),
		Params: params,
	}
}

// WithReturns sets the values the mocked call returns.
func (e *Expectation) WithReturns(rets ...interface{}) *Expectation {
	e.Returns = rets
	return e
}

// WithParamValidation replaces the default deep equality check of the parameters.
func (e *Expectation) WithParamValidation(f func(params ...interface{})) *Expectation {
	e.ParamValidation = f
	return e
}

// Expector records calls made against a mock and checks them against ordered expectations.
type Expector struct {
	T *testing.T

	mu      sync.Mutex
	expects []*Expectation
}

// Expect queues an expectation.
func (e *Expector) Expect(exp *Expectation) {
	e.mu.Lock()
	e.expects = append(e.expects, exp)
	e.mu.Unlock()
}

// Record matches the calling method against the next expectation and returns its return values.
func (e *Expector) Record(params ...interface{}) []interface{} {
	pc, _, _, ok := runtime.Caller(1)
	name := "unknown"
	if ok {
		name = funcName(pc)
	}

	e.mu.Lock()
	if len(e.expects) == 0 {
		e.mu.Unlock()
		if e.T != nil {
			e.T.Fatalf("Unexpected call to %s with %+v", name, params)
		}
		return nil
	}
	exp := e.expects[0]
	e.expects = e.expects[1:]
	e.mu.Unlock()

	if e.T == nil {
		return exp.Returns
	}
	if exp.FName != name {
		e.T.Fatalf("Expected call to %s but got %s", exp.FName, name)
	}
	if exp.ParamValidation != nil {
		exp.ParamValidation(params...)
	} else if !reflect.DeepEqual(exp.Params, params) {
		e.T.Fatalf("Params for %s don't match.\n\texp: %+v\n\tgot: %+v", name, exp.Params, params)
	}
	return exp.Returns
}

// Finish fails the test if any expectation was never met.
func (e *Expector) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.expects) != 0 && e.T != nil {
		names := make([]string, len(e.expects))
		for i, exp := range e.expects {
			names[i] = exp.FName
		}
		e.T.Fatalf("Unmet expectations: %s", strings.Join(names, ", "))
	}
}

// funcName reduces a function to its bare method name so that a method
// value (which carries a -fm suffix) matches the method itself.
func funcName(pc uintptr) string {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := strings.TrimSuffix(fn.Name(), "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
