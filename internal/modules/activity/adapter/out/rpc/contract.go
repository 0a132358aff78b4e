package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey         = "capture"
	serviceName          = "worklens.capture.v1.CaptureHelper"
	jsonCodecName        = "json"
	methodGetMetadata    = "/" + serviceName + "/GetMetadata"
	methodSnapshot       = "/" + serviceName + "/Snapshot"
	methodSetPersistence = "/" + serviceName + "/SetPersistence"
	methodRecentSessions = "/" + serviceName + "/RecentSessions"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "WORKLENS_CAPTURE",
	MagicCookieValue: "worklens",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type KeyEvent struct {
	Key       string    `json:"key"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type WindowSession struct {
	WindowClass     string     `json:"window_class"`
	WindowTitle     string     `json:"window_title"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Duration        float64    `json:"duration"`
	KeyEvents       []KeyEvent `json:"key_events"`
	KeyCount        int        `json:"key_count"`
	ClickCount      int        `json:"click_count"`
	ScrollCount     int        `json:"scroll_count"`
	PrivacyFiltered bool       `json:"privacy_filtered"`
}

type SnapshotResponse struct {
	Sessions   []WindowSession `json:"sessions"`
	Keys       int             `json:"keys"`
	Clicks     int             `json:"clicks"`
	Scrolls    int             `json:"scrolls"`
	Screenshot []byte          `json:"screenshot,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
}

type SetPersistenceRequest struct {
	Enabled bool `json:"enabled"`
}

type RecentSessionsRequest struct {
	WithinMS int64 `json:"within_ms"`
}

type RecentSessionsResponse struct {
	Sessions []WindowSession `json:"sessions"`
}

type CaptureHelperServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Snapshot(ctx context.Context, in *Empty) (*SnapshotResponse, error)
	SetPersistence(ctx context.Context, in *SetPersistenceRequest) (*Empty, error)
	RecentSessions(ctx context.Context, in *RecentSessionsRequest) (*RecentSessionsResponse, error)
}

type CaptureHelperClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Snapshot(ctx context.Context) (*SnapshotResponse, error)
	SetPersistence(ctx context.Context, in *SetPersistenceRequest) error
	RecentSessions(ctx context.Context, in *RecentSessionsRequest) (*RecentSessionsResponse, error)
}

type captureHelperClient struct {
	conn *grpc.ClientConn
}

func NewCaptureHelperClient(conn *grpc.ClientConn) CaptureHelperClient {
	return &captureHelperClient{conn: conn}
}

func (c *captureHelperClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(jsonCodecName))
}

func (c *captureHelperClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.invoke(ctx, methodGetMetadata, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureHelperClient) Snapshot(ctx context.Context) (*SnapshotResponse, error) {
	out := &SnapshotResponse{}
	if err := c.invoke(ctx, methodSnapshot, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureHelperClient) SetPersistence(ctx context.Context, in *SetPersistenceRequest) error {
	return c.invoke(ctx, methodSetPersistence, in, &Empty{})
}

func (c *captureHelperClient) RecentSessions(ctx context.Context, in *RecentSessionsRequest) (*RecentSessionsResponse, error) {
	out := &RecentSessionsResponse{}
	if err := c.invoke(ctx, methodRecentSessions, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// unary builds a method handler that decodes into a fresh *Req and routes
// through the interceptor when one is installed.
func unary[Req any, Resp any](fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type %T", req)
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterCaptureHelperServer(server grpc.ServiceRegistrar, impl CaptureHelperServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CaptureHelperServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: unary(methodGetMetadata, impl.GetMetadata)},
			{MethodName: "Snapshot", Handler: unary(methodSnapshot, impl.Snapshot)},
			{MethodName: "SetPersistence", Handler: unary(methodSetPersistence, impl.SetPersistence)},
			{MethodName: "RecentSessions", Handler: unary(methodRecentSessions, impl.RecentSessions)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "capture-helper-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CaptureHelperServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCaptureHelperServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCaptureHelperClient(conn), nil
}

func PluginMap(impl CaptureHelperServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
