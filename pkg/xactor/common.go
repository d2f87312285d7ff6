package xactor

import "context"

const (
	syncMail  mailType = 0 // caller waits for the result
	asyncMail mailType = 1 // fire and forget
)

var mailMaxCount = 1024

type mailType int

// ActorState is the single goroutine owned state behind an Actor.
type ActorState interface {
	InitArg() ActorHandlerArgs
	Name() string
	Close(ctx context.Context)
}
