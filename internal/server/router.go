package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mitm-cache/mitm-cache/internal/auth"
	"github.com/mitm-cache/mitm-cache/internal/listing"
	"github.com/mitm-cache/mitm-cache/internal/proxy"
)

// Proxier is the cache-or-fetch component behind /request.
type Proxier interface {
	Proxy(ctx context.Context, url string, maxAge int64) (proxy.Result, error)
}

// Lister produces the newest-first cache summary behind the index pages.
type Lister interface {
	List() []listing.Entry
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger *logrus.Logger
	Guard  *auth.Guard
	Proxy  Proxier
	Lister Lister
	// CredentialHeader names the request header carrying the shared secret.
	CredentialHeader string
	ListenPort       int
	// Register is called before the catch-all /:key route is mounted so
	// extra routes such as /-/status take precedence.
	Register func(app *fiber.App)
}

const (
	contextKeyRequestID = "_mitm_request_id"

	// DefaultCredentialHeader is used when AppOptions.CredentialHeader is empty.
	DefaultCredentialHeader = "x-mitm"
)

// NewApp builds a Fiber application with request ID, recovery and the
// listing/proxy routes.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Guard == nil {
		return nil, errors.New("credential guard is required")
	}
	if opts.Proxy == nil {
		return nil, errors.New("proxy is required")
	}
	if opts.Lister == nil {
		return nil, errors.New("lister is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}
	if strings.TrimSpace(opts.CredentialHeader) == "" {
		opts.CredentialHeader = DefaultCredentialHeader
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &handlers{opts: opts}
	app.Get("/request/:maxAge/:target/:key", h.proxyWithPathKey)
	app.Get("/request/:maxAge/:target", h.proxyWithHeaderKey)
	if opts.Register != nil {
		opts.Register(app)
	}
	app.Get("/", h.indexWithHeaderKey)
	app.Get("/:key", h.indexWithPathKey)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID，写入 Locals 并回显到响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// HeaderCredential resolves the credential carried by the named header.
func HeaderCredential(c fiber.Ctx, header string) auth.Credential {
	raw := c.Request().Header.PeekAll(header)
	if len(raw) == 0 {
		return auth.None()
	}
	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = string(v)
	}
	return auth.FromHeader(values)
}
