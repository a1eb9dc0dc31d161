package models

// Config holds database connection settings and the default game settings
// applied to newly created rooms. Loaded from config.json.
type Config struct {
	DBHost     string `json:"db_host"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`

	MaxPlayers   int `json:"max_players"`
	TurnSeconds  int `json:"turn_seconds"`
	VoteSeconds  int `json:"vote_seconds"`
	GraceSeconds int `json:"grace_seconds"`
}
