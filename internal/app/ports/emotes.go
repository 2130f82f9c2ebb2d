package ports

// BetterTTV: /3/cached/emotes/global и /3/cached/users/twitch/{id}.

type BTTVEmote struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	ImageType string `json:"imageType"`
	Animated  bool   `json:"animated"`
}

type BTTVChannel struct {
	ID            string      `json:"id"`
	ChannelEmotes []BTTVEmote `json:"channelEmotes"`
	SharedEmotes  []BTTVEmote `json:"sharedEmotes"`
}

// FrankerFaceZ: /v1/set/global и /v1/room/id/{id}.

type FFZEmote struct {
	ID   int               `json:"id"`
	Name string            `json:"name"`
	URLs map[string]string `json:"urls"`
}

type FFZSet struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Emoticons []FFZEmote `json:"emoticons"`
}

type FFZGlobal struct {
	DefaultSets []int             `json:"default_sets"`
	Sets        map[string]FFZSet `json:"sets"`
}

type FFZRoom struct {
	Room struct {
		ID       string `json:"id"`
		TwitchID int    `json:"twitch_id"`
		Set      int    `json:"set"`
	} `json:"room"`
	Sets map[string]FFZSet `json:"sets"`
}
