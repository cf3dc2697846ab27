package api

import (
	"net/http"

	"github.com/vojaudio/voj-server/internal/http/response"
	"github.com/vojaudio/voj-server/internal/service"
)

// handleBackupLogs persists a client log session.
func (s *Server) handleBackupLogs(w http.ResponseWriter, r *http.Request) {
	var input service.LogBackupInput
	if err := s.decodeBody(r, &input); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	backup, err := s.services.Log.Backup(r.Context(), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, backup, s.logger)
}

// handleListLogBackups lists persisted client log sessions, newest first.
func (s *Server) handleListLogBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.services.Log.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, backups, s.logger)
}
