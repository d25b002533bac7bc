// Package scraper compiles and runs Lua descriptor scripts.
package scraper

import (
	"fmt"
	"sync"

	"github.com/anisan-cli/anistream/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	size  int64
	mtime int64
	proto *lua.FunctionProto
}

var bytecodeCache sync.Map

// PreCompileAndLoad runs the script at path in L. Compiled prototypes are reused until the file changes.
func PreCompileAndLoad(L *lua.LState, path string) error {
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return err
	}

	if cached, ok := bytecodeCache.Load(path); ok {
		c := cached.(compiled)
		if c.size == info.Size() && c.mtime == info.ModTime().UnixNano() {
			L.Push(L.NewFunctionFromProto(c.proto))
			return L.PCall(0, lua.MultRet, nil)
		}
	}

	file, err := filesystem.API().Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	bytecodeCache.Store(path, compiled{size: info.Size(), mtime: info.ModTime().UnixNano(), proto: proto})

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
