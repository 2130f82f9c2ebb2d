package ports

type SevenTVUser struct {
	ID            string           `json:"id"`
	Platform      string           `json:"platform"`
	Username      string           `json:"username"`
	DisplayName   string           `json:"display_name"`
	EmoteCapacity int              `json:"emote_capacity"`
	EmoteSetID    string           `json:"emote_set_id"`
	EmoteSet      *SevenTVEmoteSet `json:"emote_set"`
}

type SevenTVEmoteSet struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Flags  int            `json:"flags"`
	Emotes []SevenTVEmote `json:"emotes"`
}

type SevenTVEmote struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Flags int              `json:"flags"`
	Data  SevenTVEmoteData `json:"data"`
}

type SevenTVEmoteData struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Animated bool        `json:"animated"`
	Listed   bool        `json:"listed"`
	Host     SevenTVHost `json:"host"`
}

type SevenTVHost struct {
	URL   string            `json:"url"`
	Files []SevenTVHostFile `json:"files"`
}

type SevenTVHostFile struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}
