package simd

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

// StatusServiceName is the fully qualified gRPC service name
const StatusServiceName = "photosim.v1.StatusService"

// StatusServer is the read-only status API. Records travel as
// google.protobuf.Struct so clients need no generated stubs.
type StatusServer interface {
	GetRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	ListRounds(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// StatusServiceDesc registers a StatusServer on a grpc.Server
var StatusServiceDesc = grpc.ServiceDesc{
	ServiceName: StatusServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRun", Handler: getRunHandler},
		{MethodName: "ListRuns", Handler: listRunsHandler},
		{MethodName: "ListRounds", Handler: listRoundsHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "photosim/v1/status.proto",
}

// RegisterStatusServer attaches srv to the registrar
func RegisterStatusServer(r grpc.ServiceRegistrar, srv StatusServer) {
	r.RegisterService(&StatusServiceDesc, srv)
}

func unaryHandler[Req any, PReq interface {
	*Req
}](method string, call func(StatusServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StatusServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + StatusServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(StatusServer), ctx, req.(PReq))
		})
	}
}

var (
	getRunHandler = unaryHandler("GetRun", func(s StatusServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
		return s.GetRun(ctx, in)
	})
	listRunsHandler = unaryHandler("ListRuns", func(s StatusServer, ctx context.Context, in *structpb.Struct) (any, error) {
		return s.ListRuns(ctx, in)
	})
	listRoundsHandler = unaryHandler("ListRounds", func(s StatusServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
		return s.ListRounds(ctx, in)
	})
	getStatsHandler = unaryHandler("GetStats", func(s StatusServer, ctx context.Context, in *emptypb.Empty) (any, error) {
		return s.GetStats(ctx, in)
	})
)

// StatusGRPCServer implements StatusServer on top of a RunStore
type StatusGRPCServer struct {
	store *RunStore
}

// NewStatusGRPCServer creates a status server reading from store
func NewStatusGRPCServer(store *RunStore) *StatusGRPCServer {
	return &StatusGRPCServer{store: store}
}

func (s *StatusGRPCServer) GetRun(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	run, err := s.store.Get(req.GetValue())
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(run)
}

// ListRuns accepts an optional filter struct {"status": "...", "limit": n}
func (s *StatusGRPCServer) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	var (
		limit  int
		filter models.RunStatus
	)
	if f := req.GetFields(); f != nil {
		if v, ok := f["limit"]; ok {
			n := v.GetNumberValue()
			if n < 0 {
				return nil, status.Error(codes.InvalidArgument, "limit must be non-negative")
			}
			limit = int(n)
		}
		if v, ok := f["status"]; ok {
			filter = models.RunStatus(v.GetStringValue())
		}
	}
	return toList(s.store.List(limit, filter))
}

func (s *StatusGRPCServer) ListRounds(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return toList(s.store.Rounds(req.GetValue()))
}

func (s *StatusGRPCServer) GetStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.store.Stats())
}

// toStruct goes through JSON so the struct keys match the HTTP API
func toStruct(v any) (*structpb.Struct, error) {
	var m map[string]any
	if err := roundTrip(v, &m); err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		logger.Error("failed to build status struct", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toList[T any](items []T) (*structpb.ListValue, error) {
	var l []any
	if err := roundTrip(items, &l); err != nil {
		return nil, err
	}
	out, err := structpb.NewList(l)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func roundTrip(v, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	if err := json.Unmarshal(data, out); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return nil
}

// StatusClient calls a StatusService over an established connection
type StatusClient struct {
	cc grpc.ClientConnInterface
}

func NewStatusClient(cc grpc.ClientConnInterface) *StatusClient {
	return &StatusClient{cc: cc}
}

func (c *StatusClient) GetRun(ctx context.Context, runID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+StatusServiceName+"/GetRun", wrapperspb.String(runID), out, opts...)
	return out, err
}

func (c *StatusClient) ListRuns(ctx context.Context, filter *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	if filter == nil {
		filter = &structpb.Struct{}
	}
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, "/"+StatusServiceName+"/ListRuns", filter, out, opts...)
	return out, err
}

func (c *StatusClient) ListRounds(ctx context.Context, session string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, "/"+StatusServiceName+"/ListRounds", wrapperspb.String(session), out, opts...)
	return out, err
}

func (c *StatusClient) GetStats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+StatusServiceName+"/GetStats", &emptypb.Empty{}, out, opts...)
	return out, err
}
