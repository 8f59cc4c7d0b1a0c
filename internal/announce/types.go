package announce

import (
	"context"
	"time"
)

// Target is one webhook destination for battle results.
type Target struct {
	Platform string `json:"platform"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
	Enabled  bool   `json:"enabled"`

	// MinWagerLamports skips battles with a smaller wager when set.
	MinWagerLamports int64 `json:"min_wager_lamports"`
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type Message struct {
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
}

type Adapter interface {
	Name() string
	Send(ctx context.Context, endpoint, secret string, msg Message) error
}

type Config struct {
	Targets        []Target
	RequestTimeout time.Duration
}
