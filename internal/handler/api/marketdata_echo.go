package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	models "HistPull/internal/domain/models"
	domrepo "HistPull/internal/domain/repository"
	"HistPull/internal/service/cache"
	"HistPull/internal/usecase"
	xhttp "HistPull/pkg/http"
	xlogger "HistPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketDataHandler serves historical bar and tick queries over Echo.
type MarketDataHandler struct {
	logger     *xlogger.Logger
	backfiller *usecase.Backfiller
	store      domrepo.MarketStore
	cache      cache.ResponseCache
	metrics    domrepo.Metrics
	cacheTTL   time.Duration
}

func NewMarketDataHandler(
	logger *xlogger.Logger,
	backfiller *usecase.Backfiller,
	store domrepo.MarketStore,
	respCache cache.ResponseCache,
	metrics domrepo.Metrics,
	cacheTTL time.Duration,
) *MarketDataHandler {
	return &MarketDataHandler{
		logger:     logger,
		backfiller: backfiller,
		store:      store,
		cache:      respCache,
		metrics:    metrics,
		cacheTTL:   cacheTTL,
	}
}

func (h *MarketDataHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/marketdata", h.MarketData)
	e.POST("/historicalticks", h.HistoricalTicks)
	e.GET("/healthz", h.Health)
}

// MarketData resolves a historical bar query, backfilling missing ranges
// from the upstream provider before responding.
func (h *MarketDataHandler) MarketData(c echo.Context) error {
	req := &models.MarketDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := usecase.NormalizeBars(req, time.Now().UTC())
	if err != nil {
		return h.errorResponse(c, err)
	}

	ctx := c.Request().Context()
	if cached, ok := h.cachedResponse(ctx, q.Fingerprint(), "marketdata"); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	bars, err := h.backfiller.Bars(ctx, q)
	if err != nil {
		h.logger.Error("bar backfill failed",
			xlogger.String("symbol", q.Symbol),
			xlogger.Error(err),
		)
		return h.errorResponse(c, err)
	}

	h.storeResponse(ctx, q.Fingerprint(), bars)
	return xhttp.SuccessResponse(c, bars)
}

// HistoricalTicks resolves a historical tick query, fetching the remaining
// deficit from the upstream provider when the store holds too few rows.
func (h *MarketDataHandler) HistoricalTicks(c echo.Context) error {
	req := &models.HistoricalTicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := usecase.NormalizeTicks(req, time.Now().UTC())
	if err != nil {
		return h.errorResponse(c, err)
	}

	ctx := c.Request().Context()
	if cached, ok := h.cachedResponse(ctx, q.Fingerprint(), "historicalticks"); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	ticks, err := h.backfiller.Ticks(ctx, q)
	if err != nil {
		h.logger.Error("tick backfill failed",
			xlogger.String("symbol", q.Symbol),
			xlogger.Error(err),
		)
		return h.errorResponse(c, err)
	}

	h.storeResponse(ctx, q.Fingerprint(), ticks)
	return xhttp.SuccessResponse(c, ticks)
}

// Health reports store connectivity.
func (h *MarketDataHandler) Health(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			return xhttp.DataResponse(c, 503, map[string]string{"status": "degraded"})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// cachedResponse returns a previously serialized payload for the query
// fingerprint. Cache backend failures degrade to a miss.
func (h *MarketDataHandler) cachedResponse(ctx context.Context, key, endpoint string) (json.RawMessage, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil {
		h.logger.Warn("response cache read failed", xlogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if h.metrics != nil {
		h.metrics.RecordCacheHit(endpoint)
	}
	return json.RawMessage(b), true
}

func (h *MarketDataHandler) storeResponse(ctx context.Context, key string, payload interface{}) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil {
		h.logger.Warn("response cache write failed", xlogger.Error(err))
	}
}

func (h *MarketDataHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidTimestamp):
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_INVALID_TIMESTAMP",
			Message: err.Error(),
		}})
	case errors.Is(err, models.ErrContractNotFound):
		return xhttp.NotFoundResponse(c, err.Error())
	default:
		return xhttp.InternalServerErrorResponse(c)
	}
}
