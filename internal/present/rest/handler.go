package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/linkgenetic/linkid-resolver/internal/config"
	"github.com/linkgenetic/linkid-resolver/internal/domain"
	"github.com/linkgenetic/linkid-resolver/internal/present/rest/presenter"
	"github.com/linkgenetic/linkid-resolver/internal/service"
	"github.com/linkgenetic/linkid-resolver/internal/usecase"
)

// LinkIDMediaType is the content type of metadata responses.
const LinkIDMediaType = "application/linkid+json"

type Handler struct {
	resolver *usecase.ResolverUsecase
	registry *usecase.RegistryUsecase
	signal   *service.SignalService
	conf     config.Resolver
}

func NewHandler(
	conf config.Resolver,
	resolver *usecase.ResolverUsecase,
	registry *usecase.RegistryUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		resolver: resolver,
		registry: registry,
		signal:   signal,
		conf:     conf,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/linkid-resolver", h.handleWellKnown)
	e.GET("/health", h.handleHealth)
	e.GET("/resolve/:id", h.handleResolve)
	e.POST("/register", h.handleRegister)
	e.PUT("/resolve/:id", h.handleUpdate)
	e.DELETE("/resolve/:id", h.handleWithdraw)
	e.GET("/linkid/:id", h.handleGet)
	e.GET("/issuer/:issuer/linkids", h.handleGetByIssuer)
	e.GET("/stats", h.handleStats)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	return presenter.OK(c, echo.Map{
		"resolver": "linkid-resolver",
		"version":  "1.0.0",
		"endpoints": map[string]string{
			"resolve":  "/resolve/{id}",
			"register": "/register",
			"update":   "/resolve/{id}",
			"withdraw": "/resolve/{id}",
			"metadata": "/linkid/{id}",
			"stats":    "/stats",
		},
	})
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// bindResolveParams maps the recognized query parameters onto the
// fixed parameter struct. "format=metadata" is the legacy spelling of
// the metadata flag.
func bindResolveParams(c echo.Context) domain.ResolveParams {
	params := domain.ResolveParams{
		Format:   c.QueryParam("format"),
		Language: c.QueryParam("lang"),
		Version:  c.QueryParam("version"),
	}
	if strings.EqualFold(c.QueryParam("metadata"), "true") {
		params.Metadata = true
	}
	if strings.EqualFold(params.Format, "metadata") {
		params.Format = ""
		params.Metadata = true
	}
	return params
}

func (h *Handler) handleResolve(c echo.Context) error {
	ctx := c.Request().Context()

	params := bindResolveParams(c)
	result, err := h.resolver.Resolve(ctx, c.Param("id"), params)
	if err != nil {
		return h.renderError(c, err)
	}

	switch result.Kind {
	case domain.KindRedirect:
		r := result.Redirect
		c.Response().Header().Set("Location", r.URI)
		c.Response().Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", r.CacheTTL))
		c.Response().Header().Set("X-LinkID-Quality", fmt.Sprintf("%g", r.Quality))
		c.Response().Header().Set("Link", fmt.Sprintf(`<%s/%s>; rel="canonical"`, h.conf.BaseURL, c.Param("id")))
		status := http.StatusFound
		if r.Permanent {
			status = http.StatusMovedPermanently
		}
		return c.NoContent(status)

	case domain.KindMetadata:
		m := result.Metadata
		c.Response().Header().Set(echo.HeaderContentType, LinkIDMediaType)
		c.Response().Header().Set("ETag", m.ETag)
		c.Response().Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", m.CacheTTL))
		return c.JSON(http.StatusOK, m)

	default:
		return presenter.InternalError(c, fmt.Errorf("unknown result kind %q", result.Kind))
	}
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.TargetURI == "" {
		return presenter.BadRequest(c, fmt.Errorf("targetUri is required"))
	}
	if issuer := issuerFrom(c); issuer != "" {
		req.Issuer = issuer
	}

	resp, err := h.registry.Register(ctx, req)
	if err != nil {
		return h.renderError(c, err)
	}
	return presenter.Created(c, resp)
}

type updateRequest struct {
	Records []domain.ResolutionRecord `json:"records"`
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	issuer := issuerFrom(c)
	if issuer == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.registry.Update(ctx, c.Param("id"), req.Records, issuer)
	if err != nil {
		return h.renderError(c, err)
	}
	return presenter.OK(c, updated)
}

type withdrawRequest struct {
	Reason  string `json:"reason"`
	Contact string `json:"contact"`
}

func (h *Handler) handleWithdraw(c echo.Context) error {
	ctx := c.Request().Context()

	issuer := issuerFrom(c)
	if issuer == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req withdrawRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.registry.Withdraw(ctx, c.Param("id"), req.Reason, req.Contact, issuer); err != nil {
		return h.renderError(c, err)
	}
	return presenter.OK(c, echo.Map{
		"status": domain.StatusWithdrawn,
		"id":     c.Param("id"),
	})
}

func (h *Handler) handleGet(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := h.registry.Get(ctx, c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentType, LinkIDMediaType)
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) handleGetByIssuer(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.registry.GetByIssuer(ctx, c.Param("issuer"))
	if err != nil {
		return h.renderError(c, err)
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.registry.Stats(ctx)
	if err != nil {
		return h.renderError(c, err)
	}
	return presenter.OK(c, stats)
}

// renderError maps the domain failure taxonomy onto transport status
// codes. NotFound and NoMatchingRecords are deliberately
// indistinguishable except for message text.
func (h *Handler) renderError(c echo.Context, err error) error {
	var withdrawn domain.WithdrawnError
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		return presenter.BadRequest(c, err)
	case errors.As(err, &withdrawn):
		return presenter.Gone(c, withdrawn.ID, withdrawn.Tombstone)
	case errors.Is(err, domain.ErrNoMatchingRecords):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return presenter.Forbidden(c, err.Error())
	default:
		trace.SpanFromContext(c.Request().Context()).RecordError(err)
		return presenter.InternalError(c, err)
	}
}

func issuerFrom(c echo.Context) string {
	if v, ok := c.Request().Context().Value(domain.IssuerCtxKey).(string); ok {
		return v
	}
	return ""
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime streams registry mutation events to a websocket
// client until the peer disconnects.
func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return presenter.NotFound(c, "realtime events not enabled")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx := c.Request().Context()
	events, cancel := h.signal.Subscribe(ctx)
	defer cancel()

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				slog.DebugContext(
					ctx, "Error writing event",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
