package wire

import "strings"

// Команды, которые клиент отправляет серверу.

// NormalizeChannel приводит имя канала к виду без '#' в нижнем регистре.
func NormalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
}

func Join(channel string) string {
	return Frame{Command: "JOIN", Channel: NormalizeChannel(channel)}.String()
}

func Part(channel string) string {
	return Frame{Command: "PART", Channel: NormalizeChannel(channel)}.String()
}

// Privmsg собирает сообщение в чат. Непустой nonce уходит тегом client-nonce и
// возвращается сервером в USERSTATE.
func Privmsg(channel, text, nonce string) string {
	f := Frame{
		Command: "PRIVMSG",
		Channel: NormalizeChannel(channel),
		Text:    text,
		HasText: true,
	}
	if nonce != "" {
		f.Tags = Tags{NonceTag: Text(nonce)}
	}
	return f.String()
}

// NonceTag - тег корреляции локально отправленных сообщений.
const NonceTag = "client-nonce"

// Nonce достаёт токен корреляции из кадра. Поддерживается и короткая форма "nonce".
func (f Frame) Nonce() string {
	if n := f.Tag(NonceTag); n != "" {
		return n
	}
	return f.Tag("nonce")
}
