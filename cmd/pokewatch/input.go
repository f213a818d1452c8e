package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"pokewatch/internal/engine"
	"pokewatch/internal/types"
)

// maxLineBytes caps one input line. Scanners report bufio.ErrTooLong past it.
const maxLineBytes = 4 << 20

// pipeline feeds input lines through the engine and reports matches. Each line
// is one webhook message object or an array of them, as webhook senders post.
type pipeline struct {
	engine *engine.Engine
	clock  types.Clock
	loc    *time.Location
	logger types.Logger

	lines, messages, matched, failed int
}

// consume reads r until EOF or ctx is done. Lines that fail to decode and
// messages that fail to normalize are logged and skipped.
func (p *pipeline) consume(ctx context.Context, r io.Reader) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case lines <- bytes.Clone(sc.Bytes()):
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			p.handleLine(ctx, line)
		}
	}
}

func (p *pipeline) handleLine(ctx context.Context, line []byte) {
	p.lines++
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	msgs, err := decodeLine(line)
	if err != nil {
		p.failed++
		p.logger.Warn("unparseable input line", "line", p.lines, "error", err)
		return
	}

	for i, res := range p.engine.ProcessBatch(ctx, msgs) {
		p.messages++
		switch {
		case res.Err != nil:
			if errors.Is(res.Err, context.Canceled) {
				continue
			}
			p.failed++
			p.logger.Warn("message rejected", "line", p.lines, "type", msgs[i].Type, "error", res.Err)
		case res.Verdict.Matched():
			p.matched++
			p.report(res.Verdict)
		}
	}
}

// report logs a matched event with the attribute map alert templates render.
func (p *pipeline) report(v *engine.Verdict) {
	ev := v.Event
	p.logger.Info("event matched",
		"kind", string(ev.Kind),
		"id", ev.ID,
		"filter", v.Filter,
		"geofence", ev.Geofence.OrElse(""),
		"generation", v.Generation.String(),
		"attributes", ev.Attributes(p.clock.Now(), p.loc),
	)
}

func decodeLine(line []byte) ([]engine.Message, error) {
	if line[0] == '[' {
		var msgs []engine.Message
		if err := json.Unmarshal(line, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}
	var msg engine.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, err
	}
	return []engine.Message{msg}, nil
}
