package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/bqn-bridge/runtime"
	"github.com/wippyai/bqn-bridge/term"
)

// session makes each input term and reads the handle straight back.
type session struct {
	rt   *runtime.Runtime
	opts term.Term // nil selects make/1 and read/1
}

type outcome struct {
	err   error
	input string
	made  string
	read  string
}

func newSession(rt *runtime.Runtime, optsSrc string) (*session, error) {
	s := &session{rt: rt}
	if isBlank(optsSrc) {
		return s, nil
	}
	opts, err := term.Parse(optsSrc)
	if err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	s.opts = opts
	return s, nil
}

func (s *session) args() []term.Term {
	if s.opts == nil {
		return nil
	}
	return []term.Term{s.opts}
}

func (s *session) eval(ctx context.Context, src string) outcome {
	o := outcome{input: strings.TrimSpace(src)}

	t, err := term.Parse(src)
	if err != nil {
		o.err = err
		return o
	}

	made, err := s.rt.Make(ctx, t, s.args()...)
	if err != nil {
		o.err = fmt.Errorf("make: %w", err)
		return o
	}
	o.made = term.Format(made)

	read, err := s.rt.Read(ctx, made.(term.Tuple)[1], s.args()...)
	if err != nil {
		o.err = fmt.Errorf("read: %w", err)
		return o
	}
	o.read = term.Format(read)
	return o
}

func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.HasPrefix(s, "%")
}
