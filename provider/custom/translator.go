package custom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
	lua "github.com/yuin/gopher-lua"
)

var episodeNumber = regexp.MustCompile(`(\d+(\.\d+)?)`)

// getString reads a string or number field, "" when absent.
func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString:
		return val.String()
	case lua.LTNumber:
		return strconv.FormatFloat(float64(val.(lua.LNumber)), 'f', -1, 64)
	}
	return ""
}

func getNumber(table *lua.LTable, key string) (float64, bool) {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTNumber:
		return float64(val.(lua.LNumber)), true
	case lua.LTString:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.String()), 64)
		return f, err == nil
	}
	return 0, false
}

func getStringMap(table *lua.LTable, key string) map[string]string {
	tbl, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	m := make(map[string]string)
	tbl.ForEach(func(k, v lua.LValue) {
		m[k.String()] = v.String()
	})
	return m
}

// getList returns the table entries of an array-like field.
func getList(table *lua.LTable, key string) []*lua.LTable {
	tbl, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	var list []*lua.LTable
	tbl.ForEach(func(k, v lua.LValue) {
		if entry, ok := v.(*lua.LTable); ok && k.Type() == lua.LTNumber {
			list = append(list, entry)
		}
	})
	return list
}

func episodeFromTable(table *lua.LTable, index int) (source.Episode, error) {
	id := getString(table, "id")
	name := getString(table, "name")
	if id == "" {
		id = getString(table, "url")
	}
	if id == "" {
		return source.Episode{}, fmt.Errorf("episode %d must have an id", index)
	}

	number := index
	if n, ok := getNumber(table, "number"); ok {
		number = int(n)
	} else if matches := episodeNumber.FindAllString(name, -1); len(matches) > 0 {
		// the last number is usually the episode in "Season 1 Episode 25"
		if parsed, err := strconv.ParseFloat(matches[len(matches)-1], 64); err == nil {
			number = int(parsed)
		}
	}

	ep := source.Episode{ID: id, Name: name, Number: number}
	if mal, ok := getNumber(table, "mal_id"); ok {
		ep.MalID = int(mal)
	}
	return ep, nil
}

func rangeFromTable(table *lua.LTable, key string) mo.Option[source.Range] {
	tbl, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return mo.None[source.Range]()
	}
	start, okStart := getNumber(tbl, "start")
	end, okEnd := getNumber(tbl, "end")
	r := source.Range{Start: start, End: end}
	if !okStart || !okEnd || !r.Valid() {
		return mo.None[source.Range]()
	}
	return mo.Some(r)
}

func descriptorFromTable(table *lua.LTable) (*source.StreamDescriptor, error) {
	if v := table.RawGetString("sources"); v.Type() != lua.LTTable {
		return nil, fmt.Errorf("stream descriptor must have a sources table, got %s", v.Type())
	}

	desc := &source.StreamDescriptor{
		Intro:   rangeFromTable(table, "intro"),
		Outro:   rangeFromTable(table, "outro"),
		Headers: getStringMap(table, "headers"),
	}

	for _, entry := range getList(table, "sources") {
		url := getString(entry, "url")
		if url == "" {
			continue
		}
		adaptive := strings.Contains(strings.ToLower(url), ".m3u8")
		if v := entry.RawGetString("m3u8"); v != lua.LNil {
			adaptive = lua.LVAsBool(v)
		}
		desc.Sources = append(desc.Sources, source.Source{
			URL:                url,
			MediaType:          getString(entry, "type"),
			IsAdaptiveManifest: adaptive,
		})
	}

	for _, entry := range getList(table, "subtitles") {
		track := source.SubtitleTrack{
			Label: lo.Ternary(getString(entry, "lang") != "", getString(entry, "lang"), getString(entry, "label")),
			URL:   getString(entry, "url"),
		}
		if track.Label != "" && track.URL != "" {
			desc.Subtitles = append(desc.Subtitles, track)
		}
	}

	return desc, nil
}

func episodeToTable(L *lua.LState, ep source.Episode) *lua.LTable {
	table := L.CreateTable(0, 4)
	table.RawSetString("id", lua.LString(ep.ID))
	table.RawSetString("name", lua.LString(ep.Name))
	table.RawSetString("number", lua.LNumber(ep.Number))
	if ep.MalID > 0 {
		table.RawSetString("mal_id", lua.LNumber(ep.MalID))
	}
	return table
}
