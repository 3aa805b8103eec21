package server_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/doko-backend/internal/doko"
	"github.com/xtding233/doko-backend/internal/rules"
	"github.com/xtding233/doko-backend/internal/server"
)

func newScoringClient(t *testing.T) *server.ScoringClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	server.NewScoring(rules.NewLoader(t.TempDir()), doko.NewFormatter("de"), defaults).Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return server.NewScoringClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScoreSoloUnderBock(t *testing.T) {
	c := newScoringClient(t)

	out, err := c.Score(context.Background(), mustStruct(t, map[string]any{
		"participants": []any{"a", "b", "c", "d"},
		"options":      []any{"Solo"},
		"statuses":     map[string]any{"a": "won", "b": "lost", "c": "lost", "d": "lost"},
		"pending":      1,
	}))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	f := out.GetFields()
	if got := f["value"].GetStringValue(); got != "1.0" {
		t.Fatalf("value = %q, want 1.0", got)
	}
	if got := f["deltas"].GetStructValue().GetFields()["a"].GetStringValue(); got != "3.0" {
		t.Fatalf("soloist delta = %q, want 3.0", got)
	}
	// the old debt has tokens left and the solo adds a new one
	if f["multiplier"].GetNumberValue() != 2 || f["next_pending"].GetNumberValue() != 2 {
		t.Fatalf("multiplier=%v next_pending=%v", f["multiplier"], f["next_pending"])
	}
	if f["outcome"].GetStringValue() != "solo_won" {
		t.Fatalf("outcome = %v", f["outcome"])
	}
}

func TestScoreSheepRuleset(t *testing.T) {
	c := newScoringClient(t)

	out, err := c.Score(context.Background(), mustStruct(t, map[string]any{
		"ruleset":      "sheep",
		"participants": []any{"a", "b", "c", "d", "e"},
		"options":      []any{"Alten gewinnen", "Re", "Kontra"},
		"statuses":     map[string]any{"a": "won", "b": "won", "c": "lost", "d": "lost"},
	}))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	f := out.GetFields()
	if f["value"].GetStringValue() != "0.4" || f["next_pending"].GetNumberValue() != 2 {
		t.Fatalf("value=%v next_pending=%v", f["value"], f["next_pending"])
	}
	deltas := f["deltas"].GetStructValue().GetFields()
	if got := deltas["e"].GetStringValue(); got != "0.0" {
		t.Fatalf("bystander delta = %q, want 0.0", got)
	}
	if got := deltas["c"].GetStringValue(); got != "-0.4" {
		t.Fatalf("loser delta = %q, want -0.4", got)
	}
}

func TestScoreInvalidArgument(t *testing.T) {
	c := newScoringClient(t)

	tests := []struct {
		name string
		in   map[string]any
	}{
		{"no participants", map[string]any{"options": []any{"Solo"}}},
		{"unknown ruleset", map[string]any{"ruleset": "nope", "participants": []any{"a"}}},
		{"negative pending", map[string]any{"participants": []any{"a"}, "pending": -1}},
		{"stranger", map[string]any{
			"participants": []any{"a", "b", "c", "d"},
			"options":      []any{"Alten gewinnen"},
			"statuses":     map[string]any{"x": "won"},
		}},
		{"bad status", map[string]any{
			"participants": []any{"a"},
			"statuses":     map[string]any{"a": "maybe"},
		}},
		{"missing game type", map[string]any{
			"participants": []any{"a", "b", "c", "d"},
			"options":      []any{"Re"},
			"statuses":     map[string]any{"a": "won", "b": "won", "c": "lost", "d": "lost"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Score(context.Background(), mustStruct(t, tt.in))
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("code = %v (%v), want InvalidArgument", status.Code(err), err)
			}
		})
	}
}

func TestScoringServiceMatchesProto(t *testing.T) {
	desc := server.ScoringServiceDesc
	if len(desc.Methods) != 1 || len(desc.Streams) != 0 {
		t.Fatalf("methods=%d streams=%d, want 1 and 0", len(desc.Methods), len(desc.Streams))
	}
	b, err := os.ReadFile(filepath.Join("..", "..", "api", "proto", desc.Metadata.(string)))
	if err != nil {
		t.Fatalf("read proto: %v", err)
	}
	proto := string(b)

	pkg, svc, ok := strings.Cut(desc.ServiceName, ".Scoring")
	if !ok || svc != "" {
		t.Fatalf("service name = %q", desc.ServiceName)
	}
	for _, want := range []string{
		"package " + pkg + ";",
		"service Scoring {",
		"rpc " + desc.Methods[0].MethodName + "(google.protobuf.Struct) returns (google.protobuf.Struct);",
	} {
		if !strings.Contains(proto, want) {
			t.Errorf("proto missing %q", want)
		}
	}
}
