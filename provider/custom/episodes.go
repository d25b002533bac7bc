package custom

import (
	"context"
	"errors"
	"sort"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/source"
	lua "github.com/yuin/gopher-lua"
)

// Episodes calls the script's Episodes function. Entries are ordered by number;
// malformed entries are skipped unless nothing valid remains.
func (s *Script) Episodes(ctx context.Context) ([]source.Episode, error) {
	val, err := s.call(ctx, constant.EpisodesFn, lua.LTTable, nil)
	if err != nil {
		return nil, err
	}

	var (
		episodes []source.Episode
		errs     []error
	)
	val.(*lua.LTable).ForEach(func(k, v lua.LValue) {
		if k.Type() != lua.LTNumber || v.Type() != lua.LTTable {
			return
		}

		ep, err := episodeFromTable(v.(*lua.LTable), int(k.(lua.LNumber)))
		if err != nil {
			errs = append(errs, err)
			return
		}
		episodes = append(episodes, ep)
	})

	if len(episodes) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Number < episodes[j].Number
	})
	return episodes, nil
}

// Describe calls the script's StreamDescriptor function for ep.
func (s *Script) Describe(ctx context.Context, ep source.Episode) (*source.StreamDescriptor, error) {
	val, err := s.call(ctx, constant.StreamDescriptorFn, lua.LTTable, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{episodeToTable(L, ep)}
	})
	if err != nil {
		return nil, err
	}
	return descriptorFromTable(val.(*lua.LTable))
}
