package api

import (
	"time"

	models "NotiGate/internal/domain/models"
	domrepo "NotiGate/internal/domain/repository"
	"NotiGate/internal/service/blackout"
	"NotiGate/internal/service/throttle"
	"NotiGate/internal/usecase"
	xhttp "NotiGate/pkg/http"
	xlogger "NotiGate/pkg/logger"
	"NotiGate/pkg/util"

	"github.com/labstack/echo/v4"
)

// GateEchoHandler exposes the admission gate, digest cache, event calendar,
// and failure statistics over HTTP.
type GateEchoHandler struct {
	logger   *xlogger.Logger
	gate     *usecase.Gate
	digest   *usecase.DigestCache
	flusher  *usecase.DigestDispatcher
	calendar *blackout.Calendar
	monitor  *throttle.Monitor
	log      domrepo.NotificationLog
	clock    domrepo.Clock
}

func NewGateEchoHandler(
	logger *xlogger.Logger,
	gate *usecase.Gate,
	digest *usecase.DigestCache,
	flusher *usecase.DigestDispatcher,
	calendar *blackout.Calendar,
	monitor *throttle.Monitor,
	log domrepo.NotificationLog,
	clock domrepo.Clock,
) *GateEchoHandler {
	return &GateEchoHandler{
		logger:   logger,
		gate:     gate,
		digest:   digest,
		flusher:  flusher,
		calendar: calendar,
		monitor:  monitor,
		log:      log,
		clock:    clock,
	}
}

func (h *GateEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/signals", h.SubmitSignals)
	g.GET("/digest", h.Digest)
	g.POST("/digest/drain", h.DrainDigest)
	g.GET("/errors", h.ErrorStatistics)
	g.GET("/events/:symbol/safe", h.SafeCheck)
	g.GET("/events/:symbol/upcoming", h.UpcomingEvents)
	g.POST("/events", h.AddEvent)
	g.DELETE("/events/:asset", h.ClearEvents)
	g.GET("/history", h.History)
}

// Health reports liveness plus audit-log backend reachability.
func (h *GateEchoHandler) Health(c echo.Context) error {
	status := map[string]interface{}{"status": "ok"}
	if h.log != nil {
		if err := h.log.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["notification_log"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, status)
}

// SubmitSignals decides a batch of signals.
func (h *GateEchoHandler) SubmitSignals(c echo.Context) error {
	req := &models.SubmitSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sigs := make([]models.TradingSignal, 0, len(req.Signals))
	now := h.clock.Now()
	for i := range req.Signals {
		sig := req.Signals[i].ToSignal()
		sig.Timestamp = now
		sigs = append(sigs, sig)
	}

	res := h.gate.SubmitSignals(c.Request().Context(), sigs)
	return xhttp.SuccessResponse(c, &models.SubmitSignalsResponse{
		Admitted: len(res.Admitted),
		Digested: res.Digested,
		Dropped:  res.Dropped,
		Signals:  res.Admitted,
	})
}

// Digest reports the current digest cache contents without draining.
func (h *GateEchoHandler) Digest(c echo.Context) error {
	return xhttp.SuccessResponse(c, &models.DigestResponse{
		Count:    h.digest.Len(),
		BySymbol: h.digest.GroupBySymbol(),
		Signals:  h.digest.Snapshot(),
	})
}

// DrainDigest forces an immediate digest flush.
func (h *GateEchoHandler) DrainDigest(c echo.Context) error {
	before := h.digest.Len()
	h.flusher.Flush(c.Request().Context())
	return xhttp.SuccessResponse(c, map[string]interface{}{"flushed": before})
}

// ErrorStatistics exposes the failure monitor counters.
func (h *GateEchoHandler) ErrorStatistics(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.monitor.ErrorStatistics())
}

// SafeCheck reports whether a symbol is outside any event blackout.
func (h *GateEchoHandler) SafeCheck(c echo.Context) error {
	req := &models.SafeCheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := h.clock.Now()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"asset":  blackout.BaseAsset(req.Symbol),
		"safe":   h.calendar.IsSafeToTrade(req.Symbol, now),
		"as_of":  now,
	})
}

// UpcomingEvents lists events inside the advisory window for a symbol.
func (h *GateEchoHandler) UpcomingEvents(c echo.Context) error {
	req := &models.UpcomingEventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	events := h.calendar.UpcomingEvents(req.Symbol, h.clock.Now())
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"events": events,
	})
}

// AddEvent registers an economic event on the calendar.
func (h *GateEchoHandler) AddEvent(c echo.Context) error {
	req := &models.AddEventRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	when, ok := util.ParseTime(req.Time)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_TIME", Field: "time", Message: "time must be RFC3339 or unix seconds",
		}})
	}
	h.calendar.AddEvent(req.Asset, models.EconomicEvent{
		Time:   when,
		Name:   req.Name,
		Impact: models.ImpactTier(req.Impact),
	})
	return xhttp.CreatedResponse(c, map[string]interface{}{"asset": req.Asset})
}

// ClearEvents removes all calendar events for an asset.
func (h *GateEchoHandler) ClearEvents(c echo.Context) error {
	asset := c.Param("asset")
	if asset == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "asset", Message: "asset is required",
		}})
	}
	h.calendar.ClearEvents(asset)
	return xhttp.NoContentResponse(c)
}

// History queries the notification audit log for a symbol.
func (h *GateEchoHandler) History(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	if h.log == nil {
		return xhttp.ListResponse(c, []*models.NotificationRecord{}, 0)
	}
	now := h.clock.Now()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)

	limit := util.ParseIntDefault(c.QueryParam("limit"), 200)

	recs, err := h.log.Query(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}
