// Package custom runs Lua stream descriptor scripts.
package custom

import (
	"fmt"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/internal/scraper"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/util"
	libs "github.com/metafates/mangal-lua-libs"
	lua "github.com/yuin/gopher-lua"
)

// IDfromName generates the provider identifier for a script basename.
func IDfromName(name string) string {
	return name + " custom"
}

// Load compiles and runs the script at path. It must define the Episodes and
// StreamDescriptor functions.
func Load(path string) (*Script, error) {
	return LoadWith(path, network.NewFingerprinted())
}

// LoadWith is Load with the doer backing the script's http_tls module.
func LoadWith(path string, doer network.Doer) (*Script, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerTLSClient(state, doer)

	if err := scraper.PreCompileAndLoad(state, path); err != nil {
		state.Close()
		return nil, err
	}

	name := util.FileStem(path)
	for _, fn := range []string{constant.EpisodesFn, constant.StreamDescriptorFn} {
		if state.GetGlobal(fn).Type() != lua.LTFunction {
			state.Close()
			return nil, fmt.Errorf("function %s is required but not defined in %s", fn, name)
		}
	}

	return newScript(name, state), nil
}
