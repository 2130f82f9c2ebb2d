package emote

import (
	"maps"
	"slices"
)

type Scale string

const (
	Scale1x Scale = "1x"
	Scale2x Scale = "2x"
	Scale4x Scale = "4x"
)

var scales = []Scale{Scale1x, Scale2x, Scale4x}

// Scales - поддерживаемые масштабы от меньшего к большему.
func Scales() []Scale { return slices.Clone(scales) }

const (
	ProviderTwitch  = "twitch"
	ProviderSevenTV = "7tv"
	ProviderBTTV    = "bttv"
	ProviderFFZ     = "ffz"
)

// DefaultPriority - порядок при коллизии имён внутри одной области (global или channel).
var DefaultPriority = []string{ProviderTwitch, ProviderSevenTV, ProviderBTTV, ProviderFFZ}

type Entry struct {
	Name        string           `json:"name"`
	Provider    string           `json:"provider"`
	URLsByScale map[Scale]string `json:"urls"`
}

// URL возвращает ссылку нужного масштаба, при её отсутствии - ближайшую меньшую.
func (e Entry) URL(scale Scale) string {
	idx := slices.Index(scales, scale)
	if idx == -1 {
		idx = 0
	}
	for i := idx; i >= 0; i-- {
		if u := e.URLsByScale[scales[i]]; u != "" {
			return u
		}
	}
	for _, s := range scales[idx+1:] {
		if u := e.URLsByScale[s]; u != "" {
			return u
		}
	}
	return ""
}

// Catalog - неизменяемый снимок name -> entry. После публикации не модифицируется.
type Catalog map[string]Entry

func (c Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c[name]
	return e, ok
}

// Contribution - результат одного провайдера для одной области. Ошибка провайдера
// превращается в пустой вклад.
type Contribution struct {
	Provider string
	Entries  []Entry
}

// Merge собирает каталог: канальные записи всегда перекрывают глобальные, внутри области
// побеждает провайдер с меньшим индексом в priority. Порядок входных срезов не влияет на результат.
func Merge(priority []string, global, channel []Contribution) Catalog {
	out := make(Catalog)
	maps.Copy(out, layer(priority, global))
	maps.Copy(out, layer(priority, channel))
	return out
}

func layer(priority []string, contribs []Contribution) map[string]Entry {
	ordered := slices.Clone(contribs)
	slices.SortStableFunc(ordered, func(a, b Contribution) int {
		ra, rb := rank(priority, a.Provider), rank(priority, b.Provider)
		if ra != rb {
			return ra - rb
		}
		switch {
		case a.Provider < b.Provider:
			return -1
		case a.Provider > b.Provider:
			return 1
		}
		return 0
	})

	out := make(map[string]Entry)
	for _, c := range ordered {
		for _, e := range c.Entries {
			if e.Name == "" {
				continue
			}
			if _, taken := out[e.Name]; taken {
				continue
			}
			if e.Provider == "" {
				e.Provider = c.Provider
			}
			out[e.Name] = e
		}
	}
	return out
}

func rank(priority []string, provider string) int {
	if i := slices.Index(priority, provider); i != -1 {
		return i
	}
	return len(priority)
}
