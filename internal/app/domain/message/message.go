package message

import (
	"hash/fnv"
	"strings"
)

// ChatMessage - готовая к отображению запись. После добавления в буфер не меняется.
type ChatMessage struct {
	ID              string   `json:"id"`
	Author          string   `json:"author"`
	Color           string   `json:"color"`
	Badges          []string `json:"badges"`
	HTML            string   `json:"html"`
	EmoteNamesUsed  []string `json:"emote_names_used"`
	IsEven          bool     `json:"is_even"`
	IsColoredAction bool     `json:"is_colored_action"`
}

// PendingLocal - своё сообщение, ожидающее USERSTATE с тем же nonce.
type PendingLocal struct {
	Nonce string
	Text  string
}

// Цвета по умолчанию для пользователей без тега color.
var defaultColors = []string{
	"#FF0000", "#0000FF", "#008000", "#B22222", "#FF7F50",
	"#9ACD32", "#FF4500", "#2E8B57", "#DAA520", "#D2691E",
	"#5F9EA0", "#1E90FF", "#FF69B4", "#8A2BE2", "#00FF7F",
}

// FallbackColor детерминированно выбирает цвет по логину.
func FallbackColor(login string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(login)))
	return defaultColors[h.Sum32()%uint32(len(defaultColors))]
}
