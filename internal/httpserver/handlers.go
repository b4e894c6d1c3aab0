package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/policy"
)

// routeRequest is the body of POST /api/gate/route.
type routeRequest struct {
	Operation string               `json:"operation"`
	Context   model.RequestContext `json:"context"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "operation is required")
		return
	}

	result, err := s.gate.Authorize(r.Context(), req.Operation, req.Context)
	if err != nil {
		s.log.Error("authorize", "operation", req.Operation, "err", err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	ctx := model.RequestContext{Role: model.Role(r.URL.Query().Get("role"))}
	ops := s.gate.Router().AvailableOperations(ctx)
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

// starRequest is the body of POST /api/stars. Parameters are the
// arguments the caller intends to pass to the operation; they are
// validated against the spec before any star is created.
type starRequest struct {
	Operation  string               `json:"operation"`
	Spec       model.OperationSpec  `json:"spec"`
	Context    model.RequestContext `json:"context"`
	Parameters map[string]any       `json:"parameters,omitempty"`
}

func (s *Server) handleRequestStar(w http.ResponseWriter, r *http.Request) {
	var req starRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "operation is required")
		return
	}

	if v := policy.ValidateParameters(req.Parameters, req.Spec); !v.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, v)
		return
	}

	result, err := s.gate.RequestStar(r.Context(), req.Operation, req.Spec, req.Context)
	if err != nil {
		s.log.Error("request star", "operation", req.Operation, "err", err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	status := http.StatusOK
	if result.Star != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (s *Server) handleListStars(w http.ResponseWriter, _ *http.Request) {
	views := s.gate.Stars().List()
	writeJSON(w, http.StatusOK, map[string]any{"stars": views, "count": len(views)})
}

func (s *Server) handleGetStar(w http.ResponseWriter, r *http.Request) {
	view, ok := s.gate.Stars().Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, string(model.ErrStarNotFound), "no such star")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// challengeRequest is the body of POST /api/stars/{id}/challenges/{cid}.
type challengeRequest struct {
	Response any    `json:"response"`
	Operator string `json:"operator"`
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := s.gate.CompleteChallenge(chi.URLParam(r, "id"), chi.URLParam(r, "cid"), req.Response, req.Operator)
	status := http.StatusOK
	if !result.Success {
		status = statusForCode(result.Error)
	}
	writeJSON(w, status, result)
}

func (s *Server) handleVerifyStar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := s.gate.VerifyStar(chi.URLParam(r, "id"), q.Get("operation"), q.Get("serial"))
	status := http.StatusOK
	if !result.Valid {
		status = statusForCode(result.Error)
	}
	writeJSON(w, status, result)
}

func (s *Server) handleConsumeStar(w http.ResponseWriter, r *http.Request) {
	result, err := s.gate.ConsumeStar(chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error("consume star", "err", err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = statusForCode(result.Error)
	}
	writeJSON(w, status, result)
}

// revokeRequest is the body of POST /api/stars/{id}/revoke.
type revokeRequest struct {
	Operator string `json:"operator"`
	Reason   string `json:"reason"`
}

func (s *Server) handleRevokeStar(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ok, code := s.gate.RevokeStar(chi.URLParam(r, "id"), req.Operator, req.Reason)
	if !ok {
		writeError(w, statusForCode(code), string(code), "revoke failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := authority.AuditFilter{
		Operation: q.Get("operation"),
		Domain:    q.Get("domain"),
	}
	if raw := q.Get("success"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "success must be true or false")
			return
		}
		filter.Success = &v
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	entries := s.gate.AuditLog(filter)
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

// statusForCode maps the domain error taxonomy onto HTTP statuses.
func statusForCode(code model.ErrorCode) int {
	switch code {
	case model.ErrStarNotFound, model.ErrChallengeNotFound, model.ErrRouteNotFound:
		return http.StatusNotFound
	case model.ErrRoleUnauthorized, model.ErrRoleNotInAllowList, model.ErrCategoryPermissionDenied, model.ErrMachineNotAuthorized:
		return http.StatusForbidden
	case model.ErrStarExpired, model.ErrStarRevoked, model.ErrStarNotValid, model.ErrChallengeAlreadyCompleted:
		return http.StatusConflict
	case model.ErrShadowLogFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

type errorEnvelope struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, reason string) {
	writeJSON(w, status, errorEnvelope{Error: code, Reason: reason})
}
