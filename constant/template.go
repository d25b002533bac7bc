package constant

// ScriptTemplate is a text/template for scaffolding new Lua descriptor scripts.
const ScriptTemplate = `{{ $divider := repeat "-" (plus (max (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias episode { id: string, name: string, number: number|nil, mal_id: number|nil }
---@alias range { start: number, end: number }
---@alias src { url: string, type: string|nil, m3u8: boolean|nil }
---@alias track { lang: string, url: string }
---@alias descriptor { sources: src[], subtitles: track[]|nil, intro: range|nil, outro: range|nil, headers: table<string, string>|nil }


----- IMPORTS -----
--- END IMPORTS ---



----- MAIN -----

--- Lists the playable episodes.
-- @return episode[] Table of episodes
function {{ .EpisodesFn }}()
	return {}
end


--- Describes how to stream an episode. Sources are tried in order.
-- @param episode episode Episode returned by {{ .EpisodesFn }}
-- @return descriptor Stream descriptor
function {{ .StreamDescriptorFn }}(episode)
	return { sources = {} }
end


--- END MAIN ---

-- ex: ts=4 sw=4 et filetype=lua
`
