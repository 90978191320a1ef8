package viewdto

// Frame is the complete state of the viewer page at one instant.
type Frame struct {
	Seq             uint64      `json:"seq"`
	UserID          string      `json:"userId,omitempty"`
	Board           Board       `json:"board"`
	Top             PlayerPanel `json:"top"`
	Bottom          PlayerPanel `json:"bottom"`
	Elo             string      `json:"elo"`
	TurnText        string      `json:"turnText,omitempty"`
	LocalTurn       bool        `json:"localTurn"`
	Chat            []ChatLine  `json:"chat"`
	Playback        Playback    `json:"playback"`
	Alert           string      `json:"alert,omitempty"`
	ConnectionError string      `json:"connectionError,omitempty"`
	Kind            string      `json:"kind,omitempty"`
}

type Board struct {
	Position     string            `json:"position"`
	Orientation  string            `json:"orientation"`
	Width        int               `json:"width"`
	LightSquare  string            `json:"lightSquare"`
	DarkSquare   string            `json:"darkSquare"`
	BorderRadius int               `json:"borderRadius"`
	BoxShadow    string            `json:"boxShadow"`
	ShowNotation bool              `json:"showNotation"`
	Draggable    bool              `json:"draggable"`
	AnimationMs  int               `json:"animationMs"`
	SquareStyles map[string]string `json:"squareStyles"`
	LastMove     string            `json:"lastMove,omitempty"`
}

type PlayerPanel struct {
	Color     string `json:"color"`
	Name      string `json:"name"`
	Rating    string `json:"rating"`
	Label     string `json:"label"`
	Clock     string `json:"clock"`
	Advantage string `json:"advantage,omitempty"`
	Active    bool   `json:"active"`
}

type ChatLine struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
}

type Playback struct {
	Moves        []string `json:"moves"`
	CurrentIndex int      `json:"currentIndex"`
	AutoPlaying  bool     `json:"autoPlaying"`
	Live         bool     `json:"live"`
}
