package xactor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
)

type (
	SyncHandler  func(ctx context.Context, req interface{}) (interface{}, error)
	AsyncHandler func(ctx context.Context, req interface{})
)

// SyncHandlerWrap registers fn for requests of type *M1 answered with *M2.
func SyncHandlerWrap[M1 any, M2 any](fn func(ctx context.Context, r *M1) (*M2, error)) SyncHandlerArgs {
	return SyncHandlerArgs{func(ctx context.Context, req interface{}) (interface{}, error) {
		r, ok := req.(*M1)
		if !ok {
			return nil, fmt.Errorf("sync handler req[%v] not type %v", req, reflect.TypeOf(new(M1)))
		}
		return fn(ctx, r)
	}, reflect.TypeOf(new(M1))}
}

// AsyncHandlerWrap registers fn for requests of type *M1.
func AsyncHandlerWrap[M1 any](fn func(ctx context.Context, r *M1)) AsyncHandlerArgs {
	return AsyncHandlerArgs{func(ctx context.Context, req interface{}) {
		r, ok := req.(*M1)
		if !ok {
			xlog.Get(ctx).Warn(fmt.Sprintf("async handler req[%v] not type %v", req, reflect.TypeOf(new(M1))))
			return
		}
		fn(ctx, r)
	}, reflect.TypeOf(new(M1))}
}

type actorHandler struct {
	syncHandlers  map[reflect.Type]SyncHandler
	asyncHandlers map[reflect.Type]AsyncHandler
}

type SyncHandlerArgs struct {
	H SyncHandler
	T reflect.Type
}

type AsyncHandlerArgs struct {
	H AsyncHandler
	T reflect.Type
}

type ActorHandlerArgs struct {
	Syncs  []SyncHandlerArgs
	Asyncs []AsyncHandlerArgs
}

func newActorHandler(arg ActorHandlerArgs) (*actorHandler, error) {
	h := &actorHandler{
		syncHandlers:  make(map[reflect.Type]SyncHandler),
		asyncHandlers: make(map[reflect.Type]AsyncHandler),
	}
	for _, sync := range arg.Syncs {
		if h.syncHandlers[sync.T] != nil {
			return nil, fmt.Errorf("sync request[%v] is repeated", sync.T)
		}
		h.syncHandlers[sync.T] = sync.H
	}
	for _, async := range arg.Asyncs {
		if h.asyncHandlers[async.T] != nil {
			return nil, fmt.Errorf("async request[%v] is repeated", async.T)
		}
		h.asyncHandlers[async.T] = async.H
	}
	return h, nil
}

func (handler *actorHandler) getSyncHandler(t reflect.Type) SyncHandler {
	return handler.syncHandlers[t]
}

func (handler *actorHandler) getAsyncHandler(t reflect.Type) AsyncHandler {
	return handler.asyncHandlers[t]
}
