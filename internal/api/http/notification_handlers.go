package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
)

func parseNotificationStatus(s string) (notification.Status, error) {
	switch st := notification.Status(strings.ToUpper(s)); st {
	case notification.StatusPending, notification.StatusSent, notification.StatusDelivered,
		notification.StatusFailed, notification.StatusExpired:
		return st, nil
	}
	return "", apperr.Validation("notification", "unknown status %q", s)
}

// listNotifications returns the caller's own notifications.
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var status *notification.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := parseNotificationStatus(v)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		status = &st
	}
	limit, offset := parseLimitOffset(r, 100, 200)
	ns, err := s.notificationSvc.ListForUser(r.Context(), a.ID, status, limit, offset)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": ns})
}

// notificationStream pushes the caller's notifications as server-sent events
// until the client disconnects or the hub closes the stream.
func (s *Server) notificationStream(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	client := notification.NewSSEClient(a.ID)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(client.ClientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg, open := <-client.MessageChan:
			if !open || msg == nil {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to encode stream message")
				continue
			}
			_, _ = w.Write([]byte("event: " + msg.Event + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
