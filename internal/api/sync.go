package api

import (
	"crypto/subtle"
	"net/http"
)

// ---------------------------------------------------------------------------
// Sync sweep trigger
// ---------------------------------------------------------------------------

// handleSync runs a full sync sweep on demand. It is meant to be called by
// an external cron and is protected by the shared cron secret. A sweep in
// which some sources failed still reports the per-source outcomes, with a
// 207 status instead of 200.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.cronSecret == "" {
		s.respondError(w, http.StatusServiceUnavailable, "sync endpoint is not configured")
		return
	}
	token := bearerToken(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
		s.respondError(w, http.StatusUnauthorized, "invalid cron secret")
		return
	}

	sweep, err := s.svc.SyncStaleSources(r.Context(), s.calendars, s.albums)
	if err != nil {
		s.logger.WithError(err).Error("sync sweep finished with errors")
		s.respondJSON(w, http.StatusMultiStatus, sweep)
		return
	}

	s.respondJSON(w, http.StatusOK, sweep)
}
