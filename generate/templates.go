package generate

import (
	"fmt"
	"strings"

	"social-content-pipeline/types"
)

// The template fallback has no external dependency and must always succeed:
// it is the pipeline's guaranteed floor. Templates are sized to respect the
// quality limits so the fallback path yields zero validation violations.

type template struct {
	title   string // fmt pattern, one %s for the top keyword
	opening string
	body    string
	cta     string
}

var fallbackTemplates = [NumOptions]template{
	{
		title:   "Your Next %s Obsession Is Here",
		opening: "A brand new gaming experience is waiting for you!",
		body: `What's inside?
- Stunning visuals and effects
- Addictive, easy-to-learn gameplay
- Competitive multiplayer modes
- Regular content updates`,
		cta: "Download now and jump into the adventure!",
	},
	{
		title:   "Don't Miss This %s Gem",
		opening: "Everyone is talking about this game - here's why.",
		body: `Why players love it:
- An original world and memorable characters
- Action-packed sessions that fit your day
- Rewarding progression with daily surprises
- An active, friendly community`,
		cta: "Join the fun today - tag a friend to play with!",
	},
	{
		title:   "The New Star of %s Gaming",
		opening: "Ready for a challenge worth your time?",
		body: `Step into a world of:
- Epic quests and boss battles
- Powerful abilities to unlock
- Guilds, leaderboards and weekly events
- Endless ways to make it your own`,
		cta: "Play free now - how far can you go?",
	},
}

var defaultHashtags = []string{
	"#gaming", "#mobilegame", "#newgame", "#gamer",
	"#instagaming", "#gamingcommunity", "#mustplay",
}

// fallbackOption expands one fixed template with the top trending keyword,
// the game description and the recommended hashtags. Pure function of its
// inputs: identical trend data yields identical options.
func (a *Agent) fallbackOption(trend *types.TrendInfo, gameDescription string, variant int) types.PostOption {
	tpl := fallbackTemplates[variant]

	keyword := "mobile"
	if len(trend.TopKeywords) > 0 {
		keyword = trend.TopKeywords[0].Keyword
	}

	title := fmt.Sprintf(tpl.title, titleCase(keyword))
	if len([]rune(title)) > 60 {
		title = fmt.Sprintf(tpl.title, "Mobile")
	}

	var sb strings.Builder
	sb.WriteString(tpl.opening)
	sb.WriteString("\n\n")
	if about := truncateWords(gameDescription, 300); about != "" {
		sb.WriteString("About the game: ")
		sb.WriteString(about)
		sb.WriteString("\n\n")
	}
	sb.WriteString(tpl.body)
	sb.WriteString("\n\n")
	sb.WriteString(tpl.cta)

	return types.PostOption{
		Title:    title,
		Caption:  sb.String(),
		Hashtags: fallbackHashtags(trend),
	}
}

// fallbackHashtags mixes recommended trend hashtags with generic defaults,
// always yielding between 5 and 12 tags.
func fallbackHashtags(trend *types.TrendInfo) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		key := strings.ToLower(tag)
		if seen[key] || len(tags) >= 12 {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, tag := range trend.RecommendedHashtags {
		if len(tags) >= 7 {
			break
		}
		add(tag)
	}
	for _, tag := range defaultHashtags {
		if len(tags) >= 12 {
			break
		}
		add(tag)
	}
	return tags
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// truncateWords trims text to at most max characters, cutting at a word
// boundary. Empty input stays empty.
func truncateWords(s string, max int) string {
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndex(s[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return strings.TrimSpace(s[:cut])
}
