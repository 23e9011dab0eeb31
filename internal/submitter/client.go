// Package submitter sends one application to a receiver and interprets the
// reply.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	apperrors "admission-intake/internal/common/errors"
	"admission-intake/internal/common/logger"
	"admission-intake/internal/models"
	"admission-intake/internal/protocol"
)

type Client struct {
	cfg        *Config
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func New(cfg *Config, log logger.Logger) *Client {
	log = log.WithFields(map[string]interface{}{"component": "submitter"})
	return &Client{
		cfg:        cfg,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log, apperrors.WithExpected(
			apperrors.ErrCodeConnectionRefused,
			apperrors.ErrCodeNoResponse,
			apperrors.ErrCodeTransport,
			apperrors.ErrCodeFrameTooLarge,
		)),
	}
}

// Submit performs one exchange on a fresh connection. Every failure is
// folded into an error Response; Submit never retries. A request larger
// than MaxRequestBytes is refused without dialing.
func (c *Client) Submit(ctx context.Context, rec models.ApplicationRecord) protocol.Response {
	resp, err := c.exchange(ctx, rec)
	if err != nil {
		return protocol.Failure(c.errHandler.Handle(err, map[string]interface{}{
			"address": c.cfg.Address,
		}))
	}
	return resp
}

func (c *Client) exchange(ctx context.Context, rec models.ApplicationRecord) (protocol.Response, error) {
	payload, err := protocol.EncodeRequest(rec)
	if err != nil {
		return protocol.Response{}, apperrors.NewInternalError(err)
	}
	if c.cfg.MaxRequestBytes > 0 && len(payload) > c.cfg.MaxRequestBytes {
		return protocol.Response{}, apperrors.NewFrameTooLargeError(fmt.Errorf("%w: %d bytes, limit %d",
			protocol.ErrFrameTooLarge, len(payload), c.cfg.MaxRequestBytes))
	}

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return protocol.Response{}, apperrors.NewConnectionRefusedError(err)
		}
		return protocol.Response{}, apperrors.NewTransportError(err)
	}
	defer conn.Close()

	c.logger.Debug("connected", map[string]interface{}{"address": c.cfg.Address})

	if dl, ok := c.ioDeadline(ctx); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return protocol.Response{}, apperrors.NewTransportError(err)
		}
	}

	if err := protocol.WriteFrame(conn, payload); err != nil {
		return protocol.Response{}, apperrors.NewTransportError(err)
	}
	c.logger.Debug("application sent, waiting for reply", map[string]interface{}{"bytes": len(payload)})

	body, err := protocol.ReadFrame(conn, c.cfg.MaxResponseBytes)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return protocol.Response{}, apperrors.NewNoResponseError()
		}
		return protocol.Response{}, apperrors.NewTransportError(err)
	}

	resp, err := protocol.DecodeResponse(body)
	if err != nil {
		return protocol.Response{}, apperrors.NewTransportError(err)
	}
	return resp, nil
}

// ioDeadline is the earlier of the context deadline and the I/O timeout.
func (c *Client) ioDeadline(ctx context.Context) (time.Time, bool) {
	var dl time.Time
	if c.cfg.IOTimeout > 0 {
		dl = time.Now().Add(c.cfg.IOTimeout)
	}
	if ctxDl, ok := ctx.Deadline(); ok && (dl.IsZero() || ctxDl.Before(dl)) {
		dl = ctxDl
	}
	return dl, !dl.IsZero()
}
