package xactor

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrActorClosed = errors.New("actor closed")

// Actor serializes every request to its state on one goroutine, so
// handlers touch the state without locks.
type Actor struct {
	state ActorState
	box   *mailBox
	*actorHandler

	wg        xcommon.WaitGroup
	closeOnce sync.Once
	closeCh   chan struct{}
}

func NewActor(ctx context.Context, state ActorState) (*Actor, error) {
	handler, err := newActorHandler(state.InitArg())
	if err != nil {
		return nil, err
	}
	actor := &Actor{
		state:        state,
		box:          newMailBox(),
		actorHandler: handler,
		closeCh:      make(chan struct{}),
	}

	actor.wg.Add(1)
	go actor.logicLoop(ctx)
	return actor, nil
}

func (actor *Actor) Name() string {
	return actor.state.Name()
}

func (actor *Actor) logicLoop(ctx context.Context) {
	defer actor.wg.Done(ctx)
	defer actor.state.Close(ctx)

	for {
		select {
		case m := <-actor.box.recvMail():
			actor.handle(ctx, m)
		case <-actor.closeCh:
			// mails queued before Close are still delivered
			for {
				select {
				case m := <-actor.box.recvMail():
					actor.handle(ctx, m)
				default:
					return
				}
			}
		}
	}
}

func (actor *Actor) handle(ctx context.Context, m *mail) {
	switch m.t {
	case syncMail:
		handler := actor.getSyncHandler(reflect.TypeOf(m.req))
		if handler == nil {
			m.resultCh <- &result{err: fmt.Errorf("handler of %v is nil", reflect.TypeOf(m.req))}
			return
		}
		resp, err := handler(m.ctx, m.req)
		m.resultCh <- &result{resp: resp, err: err}
	case asyncMail:
		handler := actor.getAsyncHandler(reflect.TypeOf(m.req))
		if handler == nil {
			xlog.Get(ctx).Warn("Async handler is nil.", zap.Any("req", reflect.TypeOf(m.req)), zap.String("actor", actor.Name()))
			return
		}
		handler(m.ctx, m.req)
	default:
		xlog.Get(ctx).Warn("Mail type invalid.", zap.Any("type", m.t))
	}
}

func (actor *Actor) send(ctx context.Context, m *mail) error {
	select {
	case <-actor.closeCh:
		return ErrActorClosed
	default:
	}
	select {
	case actor.box.mailCh <- m:
		return nil
	case <-actor.closeCh:
		return ErrActorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (actor *Actor) syncRequest(ctx context.Context, req interface{}) (interface{}, error) {
	m := newMail(ctx, syncMail, req)
	if err := actor.send(ctx, m); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-m.resultCh:
		return r.resp, r.err
	}
}

// SyncRequest sends req and waits for the *M2 answer.
func SyncRequest[M1 any, M2 any](ctx context.Context, actor *Actor, req *M1) (*M2, error) {
	result, err := actor.syncRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*M2)
	if !ok {
		return nil, fmt.Errorf("result [%v] not type [%v]", reflect.TypeOf(result), reflect.TypeOf(new(M2)))
	}
	return resp, nil
}

// AsyncRequest queues req, blocking only while the mailbox is full.
func AsyncRequest(ctx context.Context, actor *Actor, req interface{}) error {
	return actor.send(ctx, newMail(ctx, asyncMail, req))
}

// Close stops the actor after the queued mails are handled.
func (actor *Actor) Close(ctx context.Context) {
	actor.closeOnce.Do(func() {
		close(actor.closeCh)
	})
	actor.wg.Wait()
}
