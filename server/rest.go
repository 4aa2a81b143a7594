package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hupe1980/agentlab"
	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	statusReady       = "ready"
	statusUnavailable = "unavailable"
)

type errorResponse struct {
	Error string `json:"error"`
}

type agentRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type imageRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context"`
}

// OutcomeResponse is the JSON form of one agent outcome.
type OutcomeResponse struct {
	Agent       string `json:"agent"`
	Response    string `json:"response"`
	Status      string `json:"status"`
	Personality string `json:"personality,omitempty"`
	Type        string `json:"type,omitempty"`
	ImageData   string `json:"image_data,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// AgentStatus describes one registered agent.
type AgentStatus struct {
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Status      string `json:"status"`
}

// StatusResponse is returned by GET /agents/status.
type StatusResponse struct {
	Agents            []AgentStatus `json:"agents"`
	ActiveConnections int64         `json:"active_connections"`
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "No text provided.")
		return
	}

	agentID := chi.URLParam(r, "agentId")
	out, err := s.lab.Ask(r.Context(), agentID, req.Text, req.Context)
	if err != nil {
		if errors.Is(err, agentlab.ErrUnknownAgent) {
			writeJSONError(w, http.StatusNotFound, "Unknown agent: "+agentID)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.outcomeResponse(out))
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "No prompt provided.")
		return
	}

	out, err := s.lab.GenerateImage(r.Context(), req.Prompt, req.Context)
	if err != nil {
		if errors.Is(err, agentlab.ErrNoImageAgent) {
			writeJSONError(w, http.StatusNotFound, "No image agent available.")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.outcomeResponse(out))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	providers := s.lab.Registry().Providers()
	resp := StatusResponse{
		Agents:            make([]AgentStatus, 0, len(providers)),
		ActiveConnections: s.ActiveConnections(),
	}
	for _, p := range providers {
		id := p.Identity()
		status := statusReady
		if !agent.IsAvailable(p) {
			status = statusUnavailable
		}
		resp.Agents = append(resp.Agents, AgentStatus{
			Name:        id.ID,
			Personality: string(id.Personality),
			Status:      status,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// outcomeResponse renders an outcome. Failures are reported in-band with a
// 200 status because the request itself was served.
func (s *Server) outcomeResponse(out core.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Agent: out.AgentID}
	if p, ok := s.lab.Registry().Lookup(out.AgentID); ok {
		resp.Personality = string(p.Identity().Personality)
	}

	if out.IsFailure() {
		resp.Status = statusError
		resp.Response = out.Err.Summary()
		resp.ErrorKind = string(out.Err.Kind)
		return resp
	}

	resp.Status = statusSuccess
	resp.Response = out.Text
	resp.Type = string(out.Kind)
	if len(out.ImageData) > 0 {
		resp.ImageData = base64.StdEncoding.EncodeToString(out.ImageData)
	}
	return resp
}
