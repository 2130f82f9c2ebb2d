package wire

import (
	"slices"
	"strconv"
	"strings"
)

// TagValue - значение тега после разбора. Конкретный тип определяется только именем ключа:
// Text, BadgeList, EmoteRanges или IDList.
type TagValue interface {
	wireValue() string
}

// Text - обычное строковое значение.
type Text string

// BadgeList - имена распознанных бейджей в порядке появления.
type BadgeList []string

// IDList - список идентификаторов через запятую (emote-sets).
type IDList []string

// Range - включительные смещения (в рунах) внутри исходного текста сообщения.
type Range struct {
	Start int
	End   int
}

// EmoteRanges - id эмоута -> позиции в тексте.
type EmoteRanges map[string][]Range

// Tags - разобранный блок тегов. Пустые значения не хранятся.
type Tags map[string]TagValue

var recognizedBadges = map[string]struct{}{
	"broadcaster": {},
	"moderator":   {},
	"vip":         {},
	"subscriber":  {},
	"partner":     {},
	"staff":       {},
	"admin":       {},
	"global_mod":  {},
}

func (t Text) wireValue() string { return escapeTagValue(string(t)) }

func (b BadgeList) wireValue() string {
	parts := make([]string, len(b))
	for i, name := range b {
		parts[i] = name + "/1"
	}
	return strings.Join(parts, ",")
}

func (l IDList) wireValue() string { return strings.Join(l, ",") }

func (e EmoteRanges) wireValue() string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(id)
		b.WriteByte(':')
		for j, r := range e[id] {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(r.Start))
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(r.End))
		}
	}
	return b.String()
}

// Text возвращает строковое значение тега; для составных тегов - их wire-форму.
func (t Tags) Text(key string) string {
	switch v := t[key].(type) {
	case nil:
		return ""
	case Text:
		return string(v)
	default:
		return v.wireValue()
	}
}

func (t Tags) Badges(key string) BadgeList {
	if v, ok := t[key].(BadgeList); ok {
		return v
	}
	return nil
}

func (t Tags) Emotes() EmoteRanges {
	if v, ok := t["emotes"].(EmoteRanges); ok {
		return v
	}
	return nil
}

func (t Tags) IDs(key string) IDList {
	if v, ok := t[key].(IDList); ok {
		return v
	}
	return nil
}

func parseTags(raw string) Tags {
	tags := make(Tags)

	start := 0
	for i := 0; i <= len(raw); i++ {
		if i != len(raw) && raw[i] != ';' {
			continue
		}

		tag := raw[start:i]
		start = i + 1

		eq := strings.IndexByte(tag, '=')
		if eq <= 0 || eq == len(tag)-1 {
			// "key" и "key=" считаются отсутствующими
			continue
		}

		key, value := tag[:eq], tag[eq+1:]
		if v, ok := parseTagValue(key, value); ok {
			tags[key] = v
		}
	}

	return tags
}

// parseTagValue применяет под-парсер по имени ключа. Составное значение,
// из которого ничего не осталось (только неизвестные бейджи), считается отсутствующим.
func parseTagValue(key, value string) (TagValue, bool) {
	switch key {
	case "badges", "badge-info":
		badges := parseBadges(value)
		return badges, len(badges) > 0
	case "emotes":
		emotes := parseEmotes(value)
		return emotes, len(emotes) > 0
	case "emote-sets":
		return IDList(strings.Split(value, ",")), true
	default:
		text := unescapeTagValue(value)
		return Text(text), text != ""
	}
}

func parseBadges(value string) BadgeList {
	var badges BadgeList
	for _, pair := range strings.Split(value, ",") {
		name, _, _ := strings.Cut(pair, "/")
		if _, ok := recognizedBadges[name]; ok {
			badges = append(badges, name)
		}
	}
	return badges
}

func parseEmotes(value string) EmoteRanges {
	emotes := make(EmoteRanges)
	for _, group := range strings.Split(value, "/") {
		id, positions, ok := strings.Cut(group, ":")
		if !ok || id == "" {
			continue
		}

		for _, pos := range strings.Split(positions, ",") {
			from, to, ok := strings.Cut(pos, "-")
			if !ok {
				continue
			}

			start, err := strconv.Atoi(from)
			if err != nil {
				continue
			}
			end, err := strconv.Atoi(to)
			if err != nil || end < start || start < 0 {
				continue
			}

			emotes[id] = append(emotes[id], Range{Start: start, End: end})
		}
	}

	return emotes
}

func unescapeTagValue(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 == len(s) {
			break
		}

		i++
		switch s[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\:`,
	" ", `\s`,
	"\r", `\r`,
	"\n", `\n`,
)

func escapeTagValue(s string) string {
	return tagEscaper.Replace(s)
}

// Resolve возвращает id -> имя эмоута, взятое по первому вхождению каждого id.
// Смещения считаются в рунах; выходящие за границы текста вхождения пропускаются.
func (e EmoteRanges) Resolve(text string) map[string]string {
	if len(e) == 0 {
		return nil
	}

	runes := []rune(text)
	names := make(map[string]string, len(e))
	for id, ranges := range e {
		if len(ranges) == 0 {
			continue
		}

		first := ranges[0]
		if first.Start < 0 || first.End >= len(runes) || first.End < first.Start {
			continue
		}
		names[id] = string(runes[first.Start : first.End+1])
	}
	return names
}
