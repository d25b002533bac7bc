package custom

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Script is a loaded descriptor script. Calls are serialised; a Lua state is single-threaded.
type Script struct {
	name string

	mu    sync.Mutex
	state *lua.LState
}

func newScript(name string, state *lua.LState) *Script {
	return &Script{name: name, state: state}
}

// Name returns the script basename.
func (s *Script) Name() string {
	return s.name
}

// ID returns the provider identifier.
func (s *Script) ID() string {
	return IDfromName(s.name)
}

// Close releases the Lua state.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
	return nil
}

// call runs the global function fn under ctx and returns its single result.
// args builds the arguments on the locked state and may be nil.
func (s *Script) call(ctx context.Context, fn string, retType lua.LValueType, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var argv []lua.LValue
	if args != nil {
		argv = args(s.state)
	}

	luaFn := s.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	s.state.SetContext(ctx)
	defer s.state.RemoveContext()

	err := s.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, argv...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	retval := s.state.Get(-1)
	s.state.Pop(1)

	if retval.Type() != retType {
		return nil, fmt.Errorf("%s returned %s, expected %s", fn, retval.Type(), retType)
	}
	return retval, nil
}
