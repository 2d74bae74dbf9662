package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
)

const (
	// APITokenHeader is the header name for the API token.
	APITokenHeader = "X-API-Token"
)

// NewAPITokenInterceptor creates an interceptor that validates the API token
// on every unary call.
func NewAPITokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set(APITokenHeader, token)
				return next(ctx, req)
			}

			got := req.Header().Get(APITokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}
