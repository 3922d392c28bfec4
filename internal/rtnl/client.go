package rtnl

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Client issues dump requests. Every request opens its own socket, so a
// Client is safe for concurrent use and never reuses state from an aborted
// exchange.
type Client struct {
	cfg    Config
	dialer Dialer
	seq    atomic.Uint32
	logger *slog.Logger
}

// NewClient creates a Client. Config defaults are applied automatically.
func NewClient(cfg Config, dialer Dialer, logger *slog.Logger) *Client {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		dialer: dialer,
		logger: logger.With("component", "rtnl"),
	}
}

// Links dumps all network interfaces.
func (c *Client) Links(ctx context.Context) ([]LinkInfo, error) {
	return dump(ctx, c, KindLink, Filter{}, DecodeLink)
}

// Routes dumps the routing tables, optionally limited to one family.
func (c *Client) Routes(ctx context.Context, filter Filter) ([]RouteInfo, error) {
	return dump(ctx, c, KindRoute, filter, DecodeRoute)
}

// Addresses dumps interface addresses, optionally limited to one family or
// interface.
func (c *Client) Addresses(ctx context.Context, filter Filter) ([]AddressInfo, error) {
	return dump(ctx, c, KindAddress, filter, DecodeAddress)
}

// dump runs a request until it succeeds, fails with a non-retryable error or
// runs out of attempts. Each attempt starts over on a new socket.
func dump[T any](ctx context.Context, c *Client, kind RequestKind, filter Filter, decode func([]byte) (T, error)) ([]T, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		recs, err := dumpOnce(ctx, c, kind, filter, decode)
		if err == nil {
			return recs, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		c.logger.Debug("dump failed, retrying",
			"kind", kind.String(),
			"attempt", attempt,
			"error", err,
		)
	}
	return nil, fmt.Errorf("rtnl: %s dump: %w", kind, lastErr)
}

// dumpOnce performs one request/reply exchange. Records that fail to decode
// are skipped; any stream error discards the records decoded so far.
func dumpOnce[T any](ctx context.Context, c *Client, kind RequestKind, filter Filter, decode func([]byte) (T, error)) ([]T, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	seq := c.seq.Add(1)
	req, err := Encode(kind, filter, seq)
	if err != nil {
		return nil, err
	}
	if err := conn.Send(req); err != nil {
		return nil, err
	}

	var (
		out     []T
		skipped int
	)
	stream := Replies(ctx, conn, seq)
	for stream.Next() {
		f := stream.Frame()
		if f.Type != kind.ReplyType() {
			continue
		}
		rec, err := decode(f.Payload)
		if err != nil {
			skipped++
			c.logger.Debug("skipping malformed record", "kind", kind.String(), "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	if n := stream.Dropped(); n > 0 {
		c.logger.Debug("dropped frames with foreign sequence", "kind", kind.String(), "count", n)
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed records", "kind", kind.String(), "count", skipped)
	}
	return out, nil
}
