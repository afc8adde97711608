package middleware

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskshare/api/transport"
	"github.com/fastygo/taskshare/domain"
)

const principalValue = "principal"

// TokenParser verifies a bearer token and returns its principal.
type TokenParser interface {
	Parse(token string) (*domain.Principal, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// verified principal on the request for handlers.
func JWTAuth(tokens TokenParser, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			principal, err := Authenticate(ctx, tokens)
			if err != nil {
				logger.Debug("rejected unauthenticated request",
					zap.ByteString("path", ctx.Path()), zap.Error(err))
				Unauthorized(ctx)
				return
			}
			SetPrincipal(ctx, *principal)
			next(ctx)
		}
	}
}

// Authenticate extracts and verifies the request token.
func Authenticate(ctx *fasthttp.RequestCtx, tokens TokenParser) (*domain.Principal, error) {
	token := ExtractToken(ctx)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	principal, err := tokens.Parse(token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid or expired token", err)
	}
	return principal, nil
}

// ExtractToken looks at the Authorization header, then the "token" query
// parameter, then the Sec-WebSocket-Protocol header (browsers cannot set
// headers on websocket requests).
func ExtractToken(ctx *fasthttp.RequestCtx) string {
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization"))); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	if token := strings.TrimSpace(string(ctx.QueryArgs().Peek("token"))); token != "" {
		return token
	}
	for _, proto := range strings.Split(string(ctx.Request.Header.Peek("Sec-WebSocket-Protocol")), ",") {
		proto = strings.TrimSpace(proto)
		if proto != "" && !strings.EqualFold(proto, "bearer") {
			return proto
		}
	}
	return ""
}

func SetPrincipal(ctx *fasthttp.RequestCtx, p domain.Principal) {
	ctx.SetUserValue(principalValue, p)
}

// PrincipalFrom returns the principal stored by JWTAuth.
func PrincipalFrom(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	p, ok := ctx.UserValue(principalValue).(domain.Principal)
	return p, ok && p.ID > 0
}

// Unauthorized writes the standard 401 envelope.
func Unauthorized(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, http.StatusUnauthorized,
		transport.NewError(string(domain.ErrCodeUnauthorized), "authentication required", nil))
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(payload.String())
}
