package http

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	if s.apiToken != "" && !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authentication token"})
		return
	}

	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat is required and must be a number"})
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lng is required and must be a number"})
		return
	}
	radius := 0.0
	if v := q.Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "radius must be a number"})
			return
		}
	}

	if lat < -90 || lat > 90 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude must be between -90 and 90"})
		return
	}
	if lng < -180 || lng > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "longitude must be between -180 and 180"})
		return
	}
	if radius < 0 || radius > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "radius must be between 0 and 100 miles"})
		return
	}

	if s.distCache != nil {
		if cached := s.distCache.Get(r.Context(), lat, lng, radius); cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := s.distance.NearestCoast(r.Context(), lat, lng, radius)
	if err != nil {
		s.logger.Error("distance query failed", "lat", lat, "lng", lng, "radius", radius, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "distance query failed"})
		return
	}

	if s.distCache != nil {
		s.distCache.Set(r.Context(), result)
	}
	writeJSON(w, http.StatusOK, result)
}

// authorized accepts the token from a Bearer Authorization header or, for
// clients that cannot set headers, a token query parameter.
func (s *Server) authorized(r *http.Request) bool {
	provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if provided == "" || provided == r.Header.Get("Authorization") {
		provided = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.apiToken)) == 1
}
