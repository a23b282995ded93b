package connectutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

const echoProcedure = "/test.v1.EchoService/Echo"

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(echoProcedure, connect.NewUnaryHandler(echoProcedure,
		func(_ context.Context, req *connect.Request[echoRequest]) (*connect.Response[echoResponse], error) {
			if req.Msg.Text == "" {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("text is required"))
			}
			return connect.NewResponse(&echoResponse{Text: req.Msg.Text, Count: len(req.Msg.Text)}), nil
		},
		DefaultOptions()...,
	))
	srv := httptest.NewServer(H2CHandler(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestUnaryRoundTrip(t *testing.T) {
	srv := newEchoServer(t)
	client := connect.NewClient[echoRequest, echoResponse](srv.Client(), srv.URL+echoProcedure, DefaultClientOptions()...)

	resp, err := client.CallUnary(t.Context(), connect.NewRequest(&echoRequest{Text: "hola"}))
	if err != nil {
		t.Fatalf("CallUnary: %v", err)
	}
	if resp.Msg.Text != "hola" || resp.Msg.Count != 4 {
		t.Errorf("response = %+v", resp.Msg)
	}

	_, err = client.CallUnary(t.Context(), connect.NewRequest(&echoRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want invalid_argument", connect.CodeOf(err))
	}
}

func TestJSONCodec(t *testing.T) {
	var codec JSONCodec
	if codec.Name() != "json" {
		t.Errorf("Name = %q", codec.Name())
	}

	var msg echoRequest
	if err := codec.Unmarshal(nil, &msg); err != nil || msg.Text != "" {
		t.Errorf("empty body: msg=%+v err=%v", msg, err)
	}
	if err := codec.Unmarshal([]byte("{"), &msg); err == nil {
		t.Error("expected error for malformed body")
	}
}
