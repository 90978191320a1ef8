package viewdto

type GoToRequest struct {
	Index int `json:"index"`
}

type AutoplayRequest struct {
	Enabled bool `json:"enabled"`
}

type DropRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DropResponse struct {
	Accepted bool   `json:"accepted"`
	Move     string `json:"move,omitempty"`
	Position string `json:"position,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
