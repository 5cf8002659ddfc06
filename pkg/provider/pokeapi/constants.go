package pokeapi

import "time"

const (
	defaultBaseURL     = "https://pokeapi.co/api/v2"
	defaultHTTPTimeout = 10 * time.Second
	defaultUserAgent   = "dragonites/1.0"
	errorBodyLimit     = 512
)
