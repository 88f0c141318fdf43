// Package api exposes local HTTP control endpoints for direct testing and
// debugging of an edge controller without MQTT infrastructure. Production
// control flow stays on MQTT; both paths converge on the same executor.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"train-controller/internal/controller"
	"train-controller/internal/models"
)

// Server handles the local control endpoints.
type Server struct {
	exec   *controller.Executor
	router *mux.Router
}

// NewServer creates the local control API around an executor.
func NewServer(exec *controller.Executor) *Server {
	s := &Server{exec: exec}

	r := mux.NewRouter()
	r.HandleFunc("/command", s.handleCommand).Methods("POST")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router = r

	return s
}

// Router returns the HTTP handler for the server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	cmd, err := models.ParseCommand(body)
	if err != nil {
		log.Printf("API: rejecting bad command: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.exec.Execute(cmd)
	writeJSON(w, http.StatusOK, map[string]string{"status": commandMessage(cmd)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.exec.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func commandMessage(cmd models.Command) string {
	switch cmd.Action {
	case models.ActionStart:
		return "train started"
	case models.ActionStop:
		return "train stopped"
	case models.ActionSetSpeed:
		if cmd.Speed != nil {
			return fmt.Sprintf("train speed ramping to %d", models.ClampSpeed(*cmd.Speed))
		}
		return "command ignored"
	case models.ActionSetDirection:
		return "train direction updated"
	default:
		return "command ignored"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: failed to encode response: %v", err)
	}
}
