package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	apperrors "admission-intake/internal/common/errors"
	"admission-intake/internal/common/logger"
	"admission-intake/internal/common/metrics"
	"admission-intake/internal/models"
	"admission-intake/internal/protocol"
)

const statusClosed = "closed"

// maxDiscardBytes bounds how much of an oversized request body is read and
// thrown away before the rejection is sent.
const maxDiscardBytes = 16 << 20

// serve runs one exchange on conn. The connection is closed before any
// publisher runs.
func (s *Server) serve(conn net.Conn) {
	start := time.Now()
	connID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"connId":     connID,
		"remoteAddr": conn.RemoteAddr().String(),
	})

	metrics.ConnectionsAccepted.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	reply, errCode, stored := s.exchange(conn, log)

	status := statusClosed
	if reply != nil {
		status = reply.Status
		s.reply(conn, *reply, log)
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug("close connection", map[string]interface{}{"error": err.Error()})
	}

	elapsed := time.Since(start)
	metrics.ExchangesTotal.WithLabelValues(status, errCode).Inc()
	metrics.ExchangeDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	s.obs.RecordSubmission(context.Background(), status)
	s.obs.RecordSubmissionDuration(context.Background(), elapsed, status)

	log.Info("exchange finished", map[string]interface{}{
		"status":     status,
		"durationMs": elapsed.Milliseconds(),
	})

	if stored != nil {
		s.publish(stored, log)
	}
}

// exchange reads, decodes and stores one request. A nil reply means the
// connection is closed without responding.
func (s *Server) exchange(conn net.Conn, log logger.Logger) (reply *protocol.Response, errCode string, stored *models.StoredApplication) {
	handler := apperrors.NewErrorHandler(log)
	fail := func(err *apperrors.StandardError) (*protocol.Response, string, *models.StoredApplication) {
		resp := protocol.Failure(handler.Handle(err, nil))
		return &resp, string(err.Code), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			resp := protocol.Failure(handler.Handle(err, map[string]interface{}{
				"stack": string(debug.Stack()),
			}))
			reply, errCode, stored = &resp, string(err.Code), nil
		}
	}()

	if err := conn.SetReadDeadline(deadline(s.cfg.ReadTimeout)); err != nil {
		log.Warn("set read deadline", map[string]interface{}{"error": err.Error()})
		return nil, string(apperrors.ErrCodeTransport), nil
	}
	payload, err := protocol.ReadFrame(conn, s.cfg.MaxRequestBytes)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		log.Debug("peer closed before sending a request", nil)
		return nil, "", nil
	case errors.Is(err, protocol.ErrFrameTooLarge):
		s.discardBody(conn, err, log)
		return fail(apperrors.NewFrameTooLargeError(err))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fail(apperrors.NewProtocolError(err))
	default:
		log.Warn("read request failed", map[string]interface{}{"error": err.Error()})
		return nil, string(apperrors.ErrCodeTransport), nil
	}

	rec, err := protocol.DecodeRequest(payload)
	if err != nil {
		return fail(apperrors.NewProtocolError(err))
	}

	ctx, cancel := withTimeout(s.cfg.StoreTimeout)
	defer cancel()
	app, err := s.store.Insert(ctx, rec)
	if err != nil {
		return fail(apperrors.NewPersistenceError("insert", err))
	}

	resp := protocol.Success(protocol.MsgReceived, app.ApplicationID)
	return &resp, "", app
}

// discardBody reads the unread body of an oversized frame so that closing
// the socket does not reset the connection before the peer reads the reply.
func (s *Server) discardBody(conn net.Conn, err error, log logger.Logger) {
	var sizeErr *protocol.FrameSizeError
	if !errors.As(err, &sizeErr) {
		return
	}
	n := int64(sizeErr.Declared)
	if n > maxDiscardBytes {
		n = maxDiscardBytes
	}
	discarded, err := io.CopyN(io.Discard, conn, n)
	if err != nil {
		log.Debug("discard oversized body", map[string]interface{}{
			"declared":  sizeErr.Declared,
			"discarded": discarded,
			"error":     err.Error(),
		})
	}
}

func (s *Server) reply(conn net.Conn, resp protocol.Response, log logger.Logger) {
	body, err := protocol.EncodeResponse(resp)
	if err != nil {
		log.Error("encode reply", map[string]interface{}{"error": err.Error()})
		metrics.ReplyWriteFailures.Inc()
		return
	}
	if s.cfg.MaxResponseBytes > 0 && len(body) > s.cfg.MaxResponseBytes {
		log.Warn("reply exceeds max_response_bytes", map[string]interface{}{
			"size":  len(body),
			"limit": s.cfg.MaxResponseBytes,
		})
	}

	if err := conn.SetWriteDeadline(deadline(s.cfg.WriteTimeout)); err == nil {
		err = protocol.WriteFrame(conn, body)
	}
	if err != nil {
		metrics.ReplyWriteFailures.Inc()
		log.Error("write reply failed", map[string]interface{}{
			"error":         err.Error(),
			"status":        resp.Status,
			"applicationId": resp.ApplicationID,
		})
	}
}

func (s *Server) publish(app *models.StoredApplication, log logger.Logger) {
	for _, p := range s.publishers {
		if err := s.publishOne(p, app); err != nil {
			pubErr := apperrors.NewPublishFailedError(p.Name(), err)
			metrics.PublishFailures.WithLabelValues(p.Name()).Inc()
			log.Warn("publish failed", map[string]interface{}{
				"errorCode":     string(pubErr.Code),
				"publisher":     p.Name(),
				"applicationId": app.ApplicationID,
				"details":       pubErr.Details,
			})
		}
	}
}

func (s *Server) publishOne(p Publisher, app *models.StoredApplication) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, cancel := withTimeout(s.cfg.PublishTimeout)
	defer cancel()
	return p.Publish(ctx, app)
}

// deadline converts a timeout into a conn deadline. Zero disables it.
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
