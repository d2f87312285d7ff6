package xactor

import "context"

type result struct {
	resp interface{}
	err  error
}

type mail struct {
	ctx      context.Context
	req      interface{}
	t        mailType
	resultCh chan *result
}

func newMail(ctx context.Context, t mailType, req interface{}) *mail {
	m := &mail{ctx: ctx, t: t, req: req}
	if t == syncMail {
		m.resultCh = make(chan *result, 1)
	}
	return m
}

type mailBox struct {
	mailCh chan *mail
}

func newMailBox() *mailBox {
	return &mailBox{
		mailCh: make(chan *mail, mailMaxCount),
	}
}

func (box *mailBox) recvMail() <-chan *mail {
	return box.mailCh
}
