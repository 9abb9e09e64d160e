package models

// CreateGameRequest is the body of POST /api/games. Empty fields take the
// server defaults.
type CreateGameRequest struct {
	Mode       string `json:"mode" validate:"omitempty,mode"`
	Difficulty string `json:"difficulty" validate:"omitempty,difficulty"`
}

// MoveRequest is the body of POST /api/games/:id/moves.
type MoveRequest struct {
	Position *int `json:"position" validate:"required,min=0,max=8"`
}

// SettingsRequest is the body of PUT /api/games/:id/settings.
type SettingsRequest struct {
	Mode       string `json:"mode" validate:"omitempty,mode"`
	Difficulty string `json:"difficulty" validate:"omitempty,difficulty"`
}
