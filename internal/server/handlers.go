package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/mitm-cache/mitm-cache/internal/auth"
	"github.com/mitm-cache/mitm-cache/internal/proxy"
	"github.com/mitm-cache/mitm-cache/internal/target"
)

// AuthRequiredMessage 是未通过鉴权访问列表页时返回的固定提示。
const AuthRequiredMessage = "Looking at the UI still requires authentication"

const (
	fieldMaxAge = "max_age"
	fieldURL    = "url"
	fieldKey    = "key"

	reasonKey         = "Key error"
	reasonMaxAge      = "Invalid duration"
	urlNotAvailable   = "Not available"
	errInvalidRequest = "invalid_request"
	errUnreachable    = "upstream_unreachable"
)

// requestFailure 指出哪个字段校验失败以及原因。
type requestFailure struct {
	Error  string `json:"error"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
	MaxAge string `json:"max_age"`
	URL    string `json:"url"`
}

type handlers struct {
	opts AppOptions
}

func (h *handlers) indexWithHeaderKey(c fiber.Ctx) error {
	return h.index(c, HeaderCredential(c, h.opts.CredentialHeader))
}

func (h *handlers) indexWithPathKey(c fiber.Ctx) error {
	return h.index(c, auth.FromPath(c.Params("key")))
}

func (h *handlers) index(c fiber.Ctx, cred auth.Credential) error {
	if !h.opts.Guard.Check(cred) {
		h.logRejected(c, fieldKey, reasonKey, cred)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusUnauthorized).SendString(AuthRequiredMessage)
	}

	entries := h.opts.Lister.List()
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(fiber.Map{"entries": entries})
	}

	pathKey := ""
	if cred.Source == auth.SourcePath {
		pathKey = cred.Value
	}
	page, err := renderListing(entries, pathKey)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "render listing failed")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(page)
}

func (h *handlers) proxyWithHeaderKey(c fiber.Ctx) error {
	return h.proxy(c, HeaderCredential(c, h.opts.CredentialHeader))
}

func (h *handlers) proxyWithPathKey(c fiber.Ctx) error {
	return h.proxy(c, auth.FromPath(c.Params("key")))
}

// proxy 依次校验 max_age、目标 URL 与凭证，全部通过后交给编排器。
func (h *handlers) proxy(c fiber.Ctx, cred auth.Credential) error {
	rawMaxAge := c.Params("maxAge")
	failure := requestFailure{
		Error:  errInvalidRequest,
		MaxAge: rawMaxAge,
		URL:    urlNotAvailable,
	}

	maxAge, err := strconv.ParseUint(rawMaxAge, 10, 63)
	if err != nil {
		failure.Field, failure.Reason = fieldMaxAge, reasonMaxAge
		return h.reject(c, fiber.StatusBadRequest, failure, cred)
	}

	url, err := target.Decode(c.Params("target"))
	if err != nil {
		failure.Field, failure.Reason = fieldURL, err.Error()
		return h.reject(c, fiber.StatusBadRequest, failure, cred)
	}
	failure.URL = url

	if !h.opts.Guard.Check(cred) {
		failure.Field, failure.Reason = fieldKey, reasonKey
		return h.reject(c, fiber.StatusUnauthorized, failure, cred)
	}

	result, err := h.opts.Proxy.Proxy(c.Context(), url, int64(maxAge))
	if err != nil {
		h.opts.Logger.WithError(err).WithFields(logrus.Fields{
			"action":     "proxy",
			"url":        url,
			"request_id": RequestID(c),
		}).Warn("upstream_unreachable")
		if errors.Is(err, proxy.ErrUnreachable) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": errUnreachable, "url": url})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set("X-Mitm-Cache-Hit", strconv.FormatBool(result.Hit))
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(result.Body)
}

func (h *handlers) reject(c fiber.Ctx, status int, failure requestFailure, cred auth.Credential) error {
	h.logRejected(c, failure.Field, failure.Reason, cred)
	return c.Status(status).JSON(failure)
}

func (h *handlers) logRejected(c fiber.Ctx, field, reason string, cred auth.Credential) {
	h.opts.Logger.WithFields(logrus.Fields{
		"action":            "request_rejected",
		"path":              c.Path(),
		"field":             field,
		"reason":            reason,
		"credential_source": string(cred.Source),
		"request_id":        RequestID(c),
	}).Warn("request_rejected")
}
