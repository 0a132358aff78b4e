package main

import (
	"context"
	"fmt"
	"os"
	"time"

	capturerpc "worklens/internal/modules/activity/adapter/out/rpc"
	capturein "worklens/internal/modules/capture/adapter/in"
	capturedto "worklens/internal/modules/capture/dto"
	captureport "worklens/internal/modules/capture/port/in"
	"worklens/internal/modules/capture/service"
	captureusecase "worklens/internal/modules/capture/usecase"
	"worklens/internal/platform/clock"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// server exposes an in-process tracker over the capture helper protocol.
// The tracker is fed from the JSONL file named by the first argument.
type server struct {
	capture captureport.Usecase
}

func (s *server) GetMetadata(_ context.Context, _ *capturerpc.Empty) (*capturerpc.Metadata, error) {
	return &capturerpc.Metadata{Name: "capture-reference", Version: "1.0.0"}, nil
}

func (s *server) Snapshot(ctx context.Context, _ *capturerpc.Empty) (*capturerpc.SnapshotResponse, error) {
	snapshot, err := s.capture.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return capturerpc.FromSnapshotOutput(snapshot), nil
}

func (s *server) SetPersistence(ctx context.Context, in *capturerpc.SetPersistenceRequest) (*capturerpc.Empty, error) {
	if err := s.capture.SetPersistence(ctx, in.Enabled); err != nil {
		return nil, err
	}
	return &capturerpc.Empty{}, nil
}

func (s *server) RecentSessions(ctx context.Context, in *capturerpc.RecentSessionsRequest) (*capturerpc.RecentSessionsResponse, error) {
	records, err := s.capture.RecentSessions(ctx, time.Duration(in.WithinMS)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	return &capturerpc.RecentSessionsResponse{Sessions: capturerpc.FromSessionRecords(records)}, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{Name: "capture-reference", Output: os.Stderr, JSONFormat: true})
	tracker := service.NewSessionTracker(clock.SystemClock{}, nil, nil)
	capture := captureusecase.NewInteractor(tracker, nil, nil, nil)

	if len(os.Args) > 1 {
		go replay(capture, os.Args[1], logger)
	} else {
		_ = capture.FocusChanged(context.Background(), capturedto.FocusInput{Class: "capture-reference", Title: "idle"})
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: capturerpc.HandshakeConfig,
		Plugins:         capturerpc.PluginMap(&server{capture: capture}),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}

func replay(capture captureport.Usecase, path string, logger hclog.Logger) {
	file, err := os.Open(path)
	if err != nil {
		logger.Error("open feed", "path", path, "error", err)
		return
	}
	defer file.Close()
	reader := capturein.NewFeedReader(capture, func(line int, err error) {
		logger.Warn("skip feed line", "line", line, "error", fmt.Sprint(err))
	})
	if err := reader.Run(context.Background(), file); err != nil {
		logger.Error("replay feed", "error", err)
	}
}
