package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mitm-cache/mitm-cache/internal/auth"
	"github.com/mitm-cache/mitm-cache/internal/server"
	"github.com/mitm-cache/mitm-cache/internal/version"
)

// Counter 返回缓存当前条目数。
type Counter interface {
	Len() int
}

// StatusOptions 汇总 /-/status 诊断接口需要的依赖。
type StatusOptions struct {
	Guard            *auth.Guard
	CredentialHeader string
	Store            Counter
	FetchPolicy      string
	MaxEntries       int
}

type statusPayload struct {
	Version     string `json:"version"`
	FetchPolicy string `json:"fetch_policy"`
	Entries     int    `json:"entries"`
	MaxEntries  int    `json:"max_entries"`
	AuthMode    string `json:"auth_mode"`
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，需通过请求头携带凭证。
func RegisterStatusRoutes(app *fiber.App, opts StatusOptions) {
	if app == nil || opts.Guard == nil || opts.Store == nil {
		return
	}
	header := opts.CredentialHeader
	if header == "" {
		header = server.DefaultCredentialHeader
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		if !opts.Guard.Check(server.HeaderCredential(c, header)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "auth_required"})
		}
		return c.JSON(statusPayload{
			Version:     version.Full(),
			FetchPolicy: opts.FetchPolicy,
			Entries:     opts.Store.Len(),
			MaxEntries:  opts.MaxEntries,
			AuthMode:    opts.Guard.Mode(),
		})
	})
}
