package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Lua Icon = iota
	JSON
	Play
	Pause
	Loading
	Fail
	Success
	Subtitle
	Quality
	Volume
	Mute
	Fullscreen
	Next
	Previous
	Skip
	Source
)

var icons = map[Icon]*iconDef{
	Lua:        {emoji: "🌙", nerd: "", plain: "lua", kaomoji: "(=^･ω･^=)", squares: "▣"},
	JSON:       {emoji: "📄", nerd: "", plain: "json", kaomoji: "{•‿•}", squares: "▤"},
	Play:       {emoji: "▶️", nerd: "", plain: ">", kaomoji: "ᕕ( ᐛ )ᕗ", squares: "▶"},
	Pause:      {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(－_－) zzZ", squares: "⏸"},
	Loading:    {emoji: "⏳", nerd: "", plain: "...", kaomoji: "(・_・ヾ", squares: "◌"},
	Fail:       {emoji: "💀", nerd: "", plain: "x", kaomoji: "(╥﹏╥)", squares: "■"},
	Success:    {emoji: "🎉", nerd: "", plain: "ok", kaomoji: "(ﾉ◕ヮ◕)ﾉ*:･ﾟ✧", squares: "□"},
	Subtitle:   {emoji: "💬", nerd: "", plain: "cc", kaomoji: "( ˘▽˘)っ", squares: "▭"},
	Quality:    {emoji: "📺", nerd: "", plain: "q", kaomoji: "(⌐■_■)", squares: "▦"},
	Volume:     {emoji: "🔊", nerd: "", plain: "vol", kaomoji: "ヽ(°〇°)ﾉ", squares: "◧"},
	Mute:       {emoji: "🔇", nerd: "", plain: "mute", kaomoji: "(￣ー￣)", squares: "◨"},
	Fullscreen: {emoji: "🖥️", nerd: "", plain: "[ ]", kaomoji: "[•_•]", squares: "▢"},
	Next:       {emoji: "⏭️", nerd: "", plain: ">>|", kaomoji: "(•̀ᴗ•́)و", squares: "▸"},
	Previous:   {emoji: "⏮️", nerd: "", plain: "|<<", kaomoji: "(◞‸◟)", squares: "◂"},
	Skip:       {emoji: "⏩", nerd: "", plain: ">>", kaomoji: "ε=ε=┌( >_<)┘", squares: "»"},
	Source:     {emoji: "🔗", nerd: "", plain: "src", kaomoji: "(⊃｡•́‿•̀｡)⊃", squares: "◫"},
}
