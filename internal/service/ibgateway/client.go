package ibgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"HistPull/internal/domain/models"
	drepo "HistPull/internal/domain/repository"
	"HistPull/internal/service/ratelimit"
	applogger "HistPull/pkg/logger"
	"HistPull/pkg/util"

	"github.com/gorilla/websocket"
)

// Client implements the Provider contract over a WebSocket session to the
// broker gateway sidecar. Calls are strictly request/response: one frame
// out, one correlated frame back. The session itself is externally owned —
// the application connects it at startup and closes it on shutdown; the
// backfill engine only issues blocking calls against it.
type Client struct {
	url          string
	callTimeout  time.Duration
	rateCapacity float64
	rateRefill   float64

	limiter *ratelimit.Limiter
	l       *applogger.Logger

	mu     sync.Mutex // serializes the whole call: write frame, read reply
	conn   *websocket.Conn
	nextID uint64
}

type Config struct {
	URL          string
	CallTimeout  time.Duration
	RateCapacity float64 // fetch tokens per symbol
	RateRefill   float64 // tokens per second
}

// New creates a gateway Provider. Connect must be called before use.
func New(cfg Config) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 5
	}
	if cfg.RateRefill <= 0 {
		cfg.RateRefill = 0.5
	}
	return &Client{
		url:          cfg.URL,
		callTimeout:  cfg.CallTimeout,
		rateCapacity: cfg.RateCapacity,
		rateRefill:   cfg.RateRefill,
		limiter:      ratelimit.New(),
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// Connect establishes the WebSocket session.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("gateway connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if c.l != nil {
		c.l.Info("gateway connected", applogger.String("url", c.url))
	}
	return nil
}

// Close tears down the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

type gwRequest struct {
	ID     uint64          `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params"`
}

type gwError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type gwResponse struct {
	ID    uint64          `json:"id"`
	Error *gwError        `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// call issues one frame and blocks for the correlated reply.
func (c *Client) call(ctx context.Context, op string, params any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("gateway not connected")
	}

	c.nextID++
	req := gwRequest{ID: c.nextID, Op: op, Params: raw}

	deadline := time.Now().Add(c.callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("gateway %s write: %w", op, err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	for {
		var resp gwResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("gateway %s read: %w", op, err)
		}
		if resp.ID != req.ID {
			// Stale reply from an abandoned call; skip it.
			continue
		}
		if resp.Error != nil {
			if resp.Error.Code == "CONTRACT_NOT_FOUND" {
				return models.ErrContractNotFound
			}
			return fmt.Errorf("gateway %s: %s (%s)", op, resp.Error.Message, resp.Error.Code)
		}
		if out != nil {
			if err := json.Unmarshal(resp.Data, out); err != nil {
				return fmt.Errorf("gateway %s decode: %w", op, err)
			}
		}
		return nil
	}
}

// pace blocks until a fetch token is available for symbol.
func (c *Client) pace(ctx context.Context, symbol string) error {
	for !c.limiter.Allow(symbol, c.rateCapacity, c.rateRefill) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// ResolveContract looks up the upstream instrument handle for a symbol.
func (c *Client) ResolveContract(ctx context.Context, symbol, secType string) (models.Contract, error) {
	params := map[string]string{
		"symbol":  strings.ToUpper(symbol),
		"secType": secType,
	}
	var contract models.Contract
	if err := c.call(ctx, "resolveContract", params, &contract); err != nil {
		return models.Contract{}, err
	}
	return contract, nil
}

type gwBar struct {
	T       int64   `json:"t"` // epoch millis
	O       float64 `json:"o"`
	H       float64 `json:"h"`
	L       float64 `json:"l"`
	C       float64 `json:"c"`
	V       float64 `json:"v"`
	N       int64   `json:"n,omitempty"`
	WAP     float64 `json:"wap,omitempty"`
	HasGaps bool    `json:"hasGaps,omitempty"`
}

// FetchBars requests one bounded historical bar window ending at end.
func (c *Client) FetchBars(ctx context.Context, contract models.Contract, end time.Time, durationExpr, barSize, whatToShow string, useRTH bool) ([]models.Bar, error) {
	if err := c.pace(ctx, contract.Symbol); err != nil {
		return nil, err
	}
	params := map[string]any{
		"conId":      contract.ConID,
		"endTime":    util.FormatAnchorTime(end),
		"duration":   durationExpr,
		"barSize":    barSize,
		"whatToShow": whatToShow,
		"useRTH":     useRTH,
	}
	var rows []gwBar
	if err := c.call(ctx, "historicalBars", params, &rows); err != nil {
		return nil, err
	}
	bars := make([]models.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, models.Bar{
			Timestamp:  time.UnixMilli(r.T).UTC(),
			Open:       r.O,
			High:       r.H,
			Low:        r.L,
			Close:      r.C,
			Volume:     r.V,
			TradeCount: r.N,
			WAP:        r.WAP,
			HasGaps:    r.HasGaps,
		})
	}
	if c.l != nil {
		c.l.Debug("gateway bars fetched",
			applogger.String("symbol", contract.Symbol),
			applogger.String("duration", durationExpr),
			applogger.Int("rows", len(bars)),
		)
	}
	return bars, nil
}

type gwTick struct {
	T    int64   `json:"t"` // epoch millis
	P    float64 `json:"p"`
	S    float64 `json:"s"`
	Exch string  `json:"exch,omitempty"`
	Cond string  `json:"cond,omitempty"`
}

// FetchTicks requests up to count trade prints inside [start, end].
func (c *Client) FetchTicks(ctx context.Context, contract models.Contract, start, end time.Time, count int, useRTH bool) ([]models.Tick, error) {
	if err := c.pace(ctx, contract.Symbol); err != nil {
		return nil, err
	}
	params := map[string]any{
		"conId":     contract.ConID,
		"startTime": util.FormatAnchorTime(start),
		"endTime":   util.FormatAnchorTime(end),
		"count":     count,
		"useRTH":    useRTH,
	}
	var rows []gwTick
	if err := c.call(ctx, "historicalTicksLast", params, &rows); err != nil {
		return nil, err
	}
	ticks := make([]models.Tick, 0, len(rows))
	for _, r := range rows {
		ticks = append(ticks, models.Tick{
			Timestamp:         time.UnixMilli(r.T).UTC(),
			Price:             r.P,
			Size:              r.S,
			ExchangeCode:      r.Exch,
			SpecialConditions: r.Cond,
		})
	}
	if c.l != nil {
		c.l.Debug("gateway ticks fetched",
			applogger.String("symbol", contract.Symbol),
			applogger.Int("requested", count),
			applogger.Int("rows", len(ticks)),
		)
	}
	return ticks, nil
}

var _ drepo.Provider = (*Client)(nil)
