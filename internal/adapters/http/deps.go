package http

import (
	natsadapter "github.com/groundtruth/walkroute/internal/adapters/nats"
	"github.com/groundtruth/walkroute/internal/adapters/valkey"
)

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Sessions *SessionManager
	Events   *natsadapter.Publisher
	Cache    *valkey.Cache
}
