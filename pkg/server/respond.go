package server

import (
	"encoding/json"
	"net/http"

	"igproxy/pkg/errors"
	"igproxy/pkg/models"
)

const contentTypeJSON = "application/json"

// writeBody sends an already encoded JSON body
func writeBody(w http.ResponseWriter, status int, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentTypeJSON)
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":true,"message":"Internal server error"}`)
	}
	writeBody(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: true, Message: message})
}

// writeError maps err to its status and public message
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	msg := errors.PublicMessage(err)

	log := s.logger.WithContext(r.Context()).WithError(err)
	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		log.ErrorWithFields("Request failed", fields)
	} else {
		log.DebugWithFields("Request rejected", fields)
	}

	writeMessage(w, status, msg)
}

