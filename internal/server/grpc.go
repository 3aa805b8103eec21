package server

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/doko-backend/internal/doko"
	"github.com/xtding233/doko-backend/internal/session"
)

const scoreMethod = "/doko.v1.Scoring/Score"

// maxPending bounds the doublings a caller may ask for.
const maxPending = 16

// ScoringServer scores a single round without any stored game.
//
// Request fields: ruleset, value_pair, solo_value (strings), pending (number),
// participants and options (lists of strings), statuses (participant -> "won"/"lost").
type ScoringServer interface {
	Score(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ScoringServiceDesc registers a ScoringServer on a grpc.Server. The contract
// lives in api/proto/doko/v1/scoring.proto.
var ScoringServiceDesc = grpc.ServiceDesc{
	ServiceName: "doko.v1.Scoring",
	HandlerType: (*ScoringServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Score", Handler: scoreHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "doko/v1/scoring.proto",
}

func scoreHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServer).Score(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: scoreMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoringServer).Score(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ScoringClient calls a remote ScoringServer.
type ScoringClient struct {
	cc grpc.ClientConnInterface
}

func NewScoringClient(cc grpc.ClientConnInterface) *ScoringClient {
	return &ScoringClient{cc: cc}
}

func (c *ScoringClient) Score(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, scoreMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Scoring is the stateless ScoringServer.
type Scoring struct {
	rules    session.RulesetSource
	format   doko.Formatter
	defaults Defaults
}

func NewScoring(rules session.RulesetSource, format doko.Formatter, defaults Defaults) *Scoring {
	return &Scoring{rules: rules, format: format, defaults: defaults}
}

// Register adds s to gs.
func (s *Scoring) Register(gs *grpc.Server) {
	gs.RegisterService(&ScoringServiceDesc, s)
}

func (s *Scoring) Score(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	f := in.GetFields()
	str := func(key, def string) string {
		if v := f[key].GetStringValue(); v != "" {
			return v
		}
		return def
	}

	rs, err := s.rules.Ruleset(str("ruleset", s.defaults.Ruleset))
	if err != nil {
		return nil, status.Error(statusCode(err), err.Error())
	}
	participants := stringList(f["participants"])
	if len(participants) == 0 || len(participants) > doko.MaxParticipants {
		return nil, status.Errorf(codes.InvalidArgument, "need 1 to %d participants", doko.MaxParticipants)
	}
	pending := f["pending"].GetNumberValue()
	if pending < 0 || pending > maxPending || pending != float64(int(pending)) {
		return nil, status.Errorf(codes.InvalidArgument, "pending must be an integer in [0,%d]", maxPending)
	}

	statuses := make(map[string]doko.Status)
	for id, v := range f["statuses"].GetStructValue().GetFields() {
		var st doko.Status
		if err := st.UnmarshalText([]byte(v.GetStringValue())); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		statuses[id] = st
	}
	for id := range statuses {
		if !slices.Contains(participants, id) {
			return nil, status.Errorf(codes.InvalidArgument, "%v: %s", session.ErrUnknownParticipant, id)
		}
	}
	opts := make([]doko.Option, 0)
	for _, o := range stringList(f["options"]) {
		opts = append(opts, doko.Option(o))
	}

	d, err := doko.NewDeclaration(rs, opts, statuses)
	if err != nil {
		return nil, status.Error(statusCode(err), err.Error())
	}
	v := doko.ParseValues(str("value_pair", s.defaults.ValuePair), str("solo_value", s.defaults.SoloValue))
	q := doko.Queue{}.Push(int(pending), len(participants))
	res, next := doko.Play(rs, v, q, participants, d)

	deltas := make(map[string]any, len(res.Deltas))
	for id, dv := range res.Deltas {
		deltas[id] = dv.StringFixed(1)
	}
	display := make([]any, 0, len(res.Options))
	for _, o := range res.DisplayOptions() {
		display = append(display, o)
	}
	out, err := structpb.NewStruct(map[string]any{
		"value":        res.Value.StringFixed(1),
		"deltas":       deltas,
		"multiplier":   res.Multiplier,
		"outcome":      res.Outcome.String(),
		"options":      display,
		"next_pending": next.Pending(),
		"summary":      s.format.Summary(res, nil),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode result: %v", err))
	}
	return out, nil
}

func stringList(v *structpb.Value) []string {
	var out []string
	for _, e := range v.GetListValue().GetValues() {
		if s := e.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// statusCode maps domain errors to gRPC codes.
func statusCode(err error) codes.Code {
	switch {
	case session.IsNotFound(err):
		return codes.NotFound
	case errors.Is(err, session.ErrGameRunning):
		return codes.FailedPrecondition
	case isInvalid(err):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}
