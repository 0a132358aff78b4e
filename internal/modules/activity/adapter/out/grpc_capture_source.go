package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	capturerpc "worklens/internal/modules/activity/adapter/out/rpc"
	activityout "worklens/internal/modules/activity/port/out"
	capturedto "worklens/internal/modules/capture/dto"
	apperrors "worklens/internal/platform/errors"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// SnapshotRedactor applies the host's privacy rules to helper snapshots.
type SnapshotRedactor interface {
	RedactSnapshot(ctx context.Context, snapshot capturedto.SnapshotOutput) capturedto.SnapshotOutput
}

// GRPCCaptureSource keeps one capture helper process alive for the whole
// capture session and talks to it over go-plugin gRPC. The helper knows
// nothing of privacy rules, so every snapshot passes the redactor.
type GRPCCaptureSource struct {
	binary   string
	args     []string
	redactor SnapshotRedactor
	logger   *zap.Logger

	mu     sync.Mutex
	client *plugin.Client
	helper capturerpc.CaptureHelperClient
}

var _ activityout.CaptureSource = (*GRPCCaptureSource)(nil)

func NewGRPCCaptureSource(binary string, args []string, redactor SnapshotRedactor, logger *zap.Logger) *GRPCCaptureSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCCaptureSource{binary: binary, args: args, redactor: redactor, logger: logger}
}

func (s *GRPCCaptureSource) Snapshot(ctx context.Context) (capturedto.SnapshotOutput, error) {
	helper, err := s.connect()
	if err != nil {
		return capturedto.SnapshotOutput{}, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	resp, err := helper.Snapshot(callCtx)
	if err != nil {
		s.reset()
		return capturedto.SnapshotOutput{}, fmt.Errorf("%w: helper snapshot: %v", apperrors.ErrCapture, err)
	}
	snapshot := capturerpc.ToSnapshotOutput(resp)
	if s.redactor != nil {
		snapshot = s.redactor.RedactSnapshot(ctx, snapshot)
	}
	return snapshot, nil
}

func (s *GRPCCaptureSource) SetPersistence(ctx context.Context, enabled bool) error {
	helper, err := s.connect()
	if err != nil {
		return err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := helper.SetPersistence(callCtx, &capturerpc.SetPersistenceRequest{Enabled: enabled}); err != nil {
		s.reset()
		return fmt.Errorf("%w: helper set persistence: %v", apperrors.ErrCapture, err)
	}
	return nil
}

// Metadata reports the helper's name and version; used to verify the binary.
func (s *GRPCCaptureSource) Metadata(ctx context.Context) (capturerpc.Metadata, error) {
	helper, err := s.connect()
	if err != nil {
		return capturerpc.Metadata{}, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := helper.GetMetadata(callCtx)
	if err != nil {
		return capturerpc.Metadata{}, fmt.Errorf("%w: helper metadata: %v", apperrors.ErrCapture, err)
	}
	return *meta, nil
}

func (s *GRPCCaptureSource) Close() error {
	s.reset()
	return nil
}

func (s *GRPCCaptureSource) connect() (capturerpc.CaptureHelperClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.helper != nil && s.client != nil && !s.client.Exited() {
		return s.helper, nil
	}
	if s.binary == "" {
		return nil, fmt.Errorf("%w: capture helper binary is not configured", apperrors.ErrCapture)
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  capturerpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          capturerpc.PluginMap(nil),
		Cmd:              exec.Command(s.binary, s.args...),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "capture-helper",
			Output: zap.NewStdLog(s.logger.Named("capture-helper")).Writer(),
			Level:  hclog.Info,
		}),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: start capture helper: %v", apperrors.ErrCapture, err)
	}
	raw, err := rpcClient.Dispense(capturerpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: dispense capture helper: %v", apperrors.ErrCapture, err)
	}
	typed, ok := raw.(capturerpc.CaptureHelperClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("%w: capture helper client type mismatch", apperrors.ErrCapture)
	}
	s.client = client
	s.helper = typed
	s.logger.Info("capture helper started", zap.String("binary", s.binary))
	return typed, nil
}

func (s *GRPCCaptureSource) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Kill()
	}
	s.client = nil
	s.helper = nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
