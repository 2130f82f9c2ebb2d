package wire

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrMalformed = errors.New("malformed line")

type Kind int

const (
	KindUnknown Kind = iota
	KindChat
	KindUserState
	KindGlobalUserState
	KindService
	KindControl
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindUserState:
		return "user-state"
	case KindGlobalUserState:
		return "global-user-state"
	case KindService:
		return "service"
	case KindControl:
		return "control"
	}
	return "unknown"
}

var commandKinds = map[string]Kind{
	"PRIVMSG":         KindChat,
	"USERSTATE":       KindUserState,
	"GLOBALUSERSTATE": KindGlobalUserState,
	"JOIN":            KindService,
	"PART":            KindService,
	"NOTICE":          KindService,
	"CLEARCHAT":       KindService,
	"CLEARMSG":        KindService,
	"ROOMSTATE":       KindService,
	"USERNOTICE":      KindService,
	"HOSTTARGET":      KindService,
	"RECONNECT":       KindService,
	"001":             KindControl,
	"002":             KindControl,
	"003":             KindControl,
	"004":             KindControl,
	"353":             KindControl,
	"366":             KindControl,
	"372":             KindControl,
	"375":             KindControl,
	"376":             KindControl,
	"CAP":             KindControl,
	"PING":            KindControl,
	"PONG":            KindControl,
}

// Frame - одна разобранная строка протокола. После Parse не изменяется.
type Frame struct {
	Tags    Tags
	Source  string // ник из префикса, без user@host
	Command string
	Channel string // без '#'
	Text    string
	HasText bool
}

// Kind классифицирует команду по фиксированному набору. Чат без текста не считается чатом.
func (f Frame) Kind() Kind {
	kind, ok := commandKinds[f.Command]
	if !ok {
		return KindUnknown
	}
	if kind == KindChat && !f.HasText {
		return KindUnknown
	}
	return kind
}

// Tag - сокращение для f.Tags.Text(key), безопасное при nil Tags.
func (f Frame) Tag(key string) string {
	return f.Tags.Text(key)
}

// Parse разбирает строку вида [@tags ][:prefix ]COMMAND[ params][ :trailing].
func Parse(line string) (Frame, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Frame{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	var f Frame

	if line[0] == '@' {
		raw, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Frame{}, fmt.Errorf("%w: tag block without command", ErrMalformed)
		}
		if tags := parseTags(raw); len(tags) > 0 {
			f.Tags = tags
		}
		line = strings.TrimLeft(rest, " ")
	}

	if line != "" && line[0] == ':' {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Frame{}, fmt.Errorf("%w: prefix without command", ErrMalformed)
		}
		if nick, _, found := strings.Cut(prefix, "!"); found {
			f.Source = nick
		} else {
			f.Source = prefix
		}
		line = strings.TrimLeft(rest, " ")
	}

	head := line
	if idx := strings.Index(line, " :"); idx != -1 {
		head = line[:idx]
		f.Text = line[idx+2:]
		f.HasText = true
	}

	fields := strings.Fields(head)
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("%w: missing command", ErrMalformed)
	}

	f.Command = strings.ToUpper(fields[0])
	for _, param := range fields[1:] {
		if strings.HasPrefix(param, "#") && len(param) > 1 {
			f.Channel = param[1:]
			break
		}
	}

	return f, nil
}

// String собирает строку протокола. Parse(f.String()) возвращает эквивалентный кадр.
func (f Frame) String() string {
	var b strings.Builder

	if len(f.Tags) > 0 {
		keys := slices.Sorted(maps.Keys(f.Tags))
		b.WriteByte('@')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(f.Tags[k].wireValue())
		}
		b.WriteByte(' ')
	}

	if f.Source != "" {
		b.WriteByte(':')
		b.WriteString(f.Source)
		b.WriteByte('!')
		b.WriteString(f.Source)
		b.WriteByte('@')
		b.WriteString(f.Source)
		b.WriteString(".tmi.twitch.tv ")
	}

	b.WriteString(f.Command)

	if f.Channel != "" {
		b.WriteString(" #")
		b.WriteString(f.Channel)
	}

	if f.HasText {
		b.WriteString(" :")
		b.WriteString(f.Text)
	}

	return b.String()
}
