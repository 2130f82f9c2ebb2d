package message

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/wire"
)

const (
	actionPrefix = "\x01ACTION "
	actionMarker = "\x01"
)

const twitchEmoteURL = "https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/%s"

var twitchScales = map[emote.Scale]string{
	emote.Scale1x: "1.0",
	emote.Scale2x: "2.0",
	emote.Scale4x: "3.0",
}

// Input - всё, что нужно для превращения одного PRIVMSG (или подтверждённого своего
// сообщения) в ChatMessage.
type Input struct {
	ID      string
	Login   string
	Author  string
	Color   string
	Badges  []string
	Text    string
	Emotes  wire.EmoteRanges
	Catalog emote.Catalog
	Viewer  string // имя зрителя для подсветки упоминаний
}

type Renderer struct {
	links *regexp2.Regexp
}

func NewRenderer() *Renderer {
	return &Renderer{
		links: regexp2.MustCompile(
			`^(?:https?://)?(?:[\p{L}\p{N}-]+\.)+\p{L}{2,}(?::\d{1,5})?(?:[/?#][^\s]*)?$`,
			regexp2.IgnoreCase,
		),
	}
}

// Render выполняет конвейер: снятие ACTION, локальные эмоуты, токенизация по пробелам
// с приоритетом каталог > локальные эмоуты > упоминание, экранирование и ссылки для остального.
func (r *Renderer) Render(in Input) ChatMessage {
	text, action := stripAction(in.Text)

	local := localEmotes(in.Emotes.Resolve(text))

	var (
		used = make(map[string]struct{})
		out  ChatMessage
	)

	tokens := strings.Split(text, " ")
	for i, token := range tokens {
		if token == "" {
			continue
		}

		if e, ok := lookup(in.Catalog, token); ok {
			tokens[i] = emoteHTML(e)
			out.EmoteNamesUsed = appendOnce(out.EmoteNamesUsed, used, e.Name)
			continue
		}
		if e, ok := lookup(local, token); ok {
			tokens[i] = emoteHTML(e)
			out.EmoteNamesUsed = appendOnce(out.EmoteNamesUsed, used, e.Name)
			continue
		}
		if isMention(token, in.Viewer) {
			tokens[i] = `<span class="mention">` + html.EscapeString(token) + `</span>`
			continue
		}

		tokens[i] = r.plain(token)
	}

	color := in.Color
	if color == "" {
		color = FallbackColor(in.Login)
	}

	out.ID = in.ID
	out.Author = in.Author
	out.Color = color
	out.Badges = in.Badges
	out.HTML = strings.Join(tokens, " ")
	out.IsColoredAction = action
	return out
}

func (r *Renderer) plain(token string) string {
	escaped := html.EscapeString(token)

	ok, err := r.links.MatchString(token)
	if err != nil || !ok {
		return escaped
	}

	href := token
	if !strings.Contains(strings.ToLower(href), "://") {
		href = "https://" + href
	}
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, html.EscapeString(href), escaped)
}

func stripAction(text string) (string, bool) {
	if !strings.HasPrefix(text, actionPrefix) {
		return text, false
	}
	text = strings.TrimPrefix(text, actionPrefix)
	return strings.TrimSuffix(text, actionMarker), true
}

func localEmotes(names map[string]string) emote.Catalog {
	if len(names) == 0 {
		return nil
	}

	catalog := make(emote.Catalog, len(names))
	for id, name := range names {
		urls := make(map[emote.Scale]string, len(twitchScales))
		for scale, size := range twitchScales {
			urls[scale] = fmt.Sprintf(twitchEmoteURL, id, size)
		}
		catalog[name] = emote.Entry{Name: name, Provider: emote.ProviderTwitch, URLsByScale: urls}
	}
	return catalog
}

// lookup сначала ищет токен как есть, затем без невидимых символов, которые
// клиенты дописывают для обхода фильтра повторов.
func lookup(catalog emote.Catalog, token string) (emote.Entry, bool) {
	if len(catalog) == 0 {
		return emote.Entry{}, false
	}
	if e, ok := catalog.Lookup(token); ok {
		return e, true
	}
	if clean := stripInvisible(token); clean != token && clean != "" {
		return catalog.Lookup(clean)
	}
	return emote.Entry{}, false
}

func emoteHTML(e emote.Entry) string {
	var srcset []string
	for _, scale := range emote.Scales() {
		if u := e.URLsByScale[scale]; u != "" {
			srcset = append(srcset, html.EscapeString(u)+" "+string(scale))
		}
	}

	name := html.EscapeString(e.Name)
	return fmt.Sprintf(`<img class="emote" src="%s" srcset="%s" alt="%s" title="%s (%s)">`,
		html.EscapeString(e.URL(emote.Scale1x)), strings.Join(srcset, ", "), name, name, html.EscapeString(e.Provider))
}

func isMention(token, viewer string) bool {
	if viewer == "" {
		return false
	}
	name := strings.TrimPrefix(token, "@")
	name = strings.TrimRightFunc(name, func(r rune) bool {
		return strings.ContainsRune(",.!?:;", r)
	})
	return strings.EqualFold(name, viewer)
}

func appendOnce(names []string, seen map[string]struct{}, name string) []string {
	if _, ok := seen[name]; ok {
		return names
	}
	seen[name] = struct{}{}
	return append(names, name)
}

func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, s)
}

// isInvisible: форматирующие и управляющие символы, вариационные селекторы и блок тегов Plane 14
// (U+E0000 не назначен и в Cf не входит).
func isInvisible(r rune) bool {
	if r >= 0xE0000 && r <= 0xE007F {
		return true
	}
	return unicode.In(r, unicode.Cf, unicode.Cc, unicode.Variation_Selector)
}
