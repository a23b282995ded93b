package handler

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/voicetyped/voxlate/internal/connectutil"
	"github.com/voicetyped/voxlate/internal/language"
)

const (
	// TranslateServiceName is the fully-qualified name of the RPC service.
	TranslateServiceName = "voxlate.translate.v1.TranslateService"

	TranslateProcedure     = "/" + TranslateServiceName + "/Translate"
	ListLanguagesProcedure = "/" + TranslateServiceName + "/ListLanguages"
	ListVoicesProcedure    = "/" + TranslateServiceName + "/ListVoices"
)

// NewTranslateServiceHandler builds the Connect handler for the service.
// It returns the path to mount it on and the handler.
func NewTranslateServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(connectutil.DefaultOptions(), opts...)

	translateHandler := connect.NewUnaryHandler(TranslateProcedure,
		func(ctx context.Context, req *connect.Request[TranslateRequest]) (*connect.Response[TranslateResponse], error) {
			resp := svc.Translate(ctx, *req.Msg)
			return connect.NewResponse(&resp), nil
		},
		opts...,
	)
	languagesHandler := connect.NewUnaryHandler(ListLanguagesProcedure,
		func(_ context.Context, _ *connect.Request[ListLanguagesRequest]) (*connect.Response[ListLanguagesResponse], error) {
			resp := svc.Languages()
			return connect.NewResponse(&resp), nil
		},
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	voicesHandler := connect.NewUnaryHandler(ListVoicesProcedure,
		func(_ context.Context, req *connect.Request[ListVoicesRequest]) (*connect.Response[ListVoicesResponse], error) {
			resp := svc.Voices(req.Msg.Language)
			return connect.NewResponse(&resp), nil
		},
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)

	return "/" + TranslateServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TranslateProcedure:
			translateHandler.ServeHTTP(w, r)
		case ListLanguagesProcedure:
			languagesHandler.ServeHTTP(w, r)
		case ListVoicesProcedure:
			voicesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Client calls a remote TranslateService.
type Client struct {
	translate     *connect.Client[TranslateRequest, TranslateResponse]
	listLanguages *connect.Client[ListLanguagesRequest, ListLanguagesResponse]
	listVoices    *connect.Client[ListVoicesRequest, ListVoicesResponse]
}

// NewClient creates a client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append(connectutil.DefaultClientOptions(), opts...)
	return &Client{
		translate:     connect.NewClient[TranslateRequest, TranslateResponse](httpClient, baseURL+TranslateProcedure, opts...),
		listLanguages: connect.NewClient[ListLanguagesRequest, ListLanguagesResponse](httpClient, baseURL+ListLanguagesProcedure, opts...),
		listVoices:    connect.NewClient[ListVoicesRequest, ListVoicesResponse](httpClient, baseURL+ListVoicesProcedure, opts...),
	}
}

// Translate calls TranslateService/Translate.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	resp, err := c.translate.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return TranslateResponse{}, err
	}
	return *resp.Msg, nil
}

// ListLanguages calls TranslateService/ListLanguages.
func (c *Client) ListLanguages(ctx context.Context) ([]language.Language, error) {
	resp, err := c.listLanguages.CallUnary(ctx, connect.NewRequest(&ListLanguagesRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Languages, nil
}

// ListVoices calls TranslateService/ListVoices.
func (c *Client) ListVoices(ctx context.Context, lang string) (ListVoicesResponse, error) {
	resp, err := c.listVoices.CallUnary(ctx, connect.NewRequest(&ListVoicesRequest{Language: lang}))
	if err != nil {
		return ListVoicesResponse{}, err
	}
	return *resp.Msg, nil
}
