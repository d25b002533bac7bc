package player

import (
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/mo"
)

// Chapters builds timeline markers for the skippable ranges of an episode.
func Chapters(intro, outro mo.Option[source.Range]) []Chapter {
	if intro.IsAbsent() && outro.IsAbsent() {
		return nil
	}

	chapters := []Chapter{{Title: "Part A", Time: 0}}

	if r, ok := intro.Get(); ok {
		chapters = append(chapters,
			Chapter{Title: "Opening", Time: r.Start},
			Chapter{Title: "Part B", Time: r.End},
		)
	}

	if r, ok := outro.Get(); ok {
		chapters = append(chapters,
			Chapter{Title: "Ending", Time: r.Start},
			Chapter{Title: "Preview / Next", Time: r.End},
		)
	}

	return chapters
}
