package in

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	capturedto "worklens/internal/modules/capture/dto"
	capturein "worklens/internal/modules/capture/port/in"
)

// FeedLine is one JSON line emitted by a window/input watcher:
//
//	{"type":"focus","class":"kitty","title":"vim"}
//	{"type":"key","key":"a","action":"press"}
//	{"type":"click","button":"left"}
//	{"type":"scroll","amount":-1}
type FeedLine struct {
	Type   string `json:"type"`
	Class  string `json:"class"`
	Title  string `json:"title"`
	Key    string `json:"key"`
	Action string `json:"action"`
	Button string `json:"button"`
	Amount int    `json:"amount"`
}

type FeedReader struct {
	usecase capturein.Usecase
	onError func(line int, err error)
}

func NewFeedReader(usecase capturein.Usecase, onError func(line int, err error)) FeedReader {
	if onError == nil {
		onError = func(int, error) {}
	}
	return FeedReader{usecase: usecase, onError: onError}
}

// Run applies lines until r is exhausted or ctx is done. Malformed lines
// are reported and skipped.
func (f FeedReader) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line := FeedLine{}
		if err := json.Unmarshal(raw, &line); err != nil {
			f.onError(lineNo, fmt.Errorf("decode feed line: %w", err))
			continue
		}
		if err := f.Apply(ctx, line); err != nil {
			f.onError(lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	return nil
}

func (f FeedReader) Apply(ctx context.Context, line FeedLine) error {
	switch line.Type {
	case "focus":
		return f.usecase.FocusChanged(ctx, capturedto.FocusInput{Class: line.Class, Title: line.Title})
	case "key", "click", "scroll":
		return f.usecase.RecordInput(ctx, capturedto.InputEvent{
			Kind:   line.Type,
			Key:    line.Key,
			Action: line.Action,
			Button: line.Button,
			Amount: line.Amount,
		})
	default:
		return fmt.Errorf("unknown feed line type %q", line.Type)
	}
}
