package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/FanzCEO/FanzDash-sub000/internal/auth"
	"github.com/FanzCEO/FanzDash-sub000/internal/vault"
)

type storeIdentityRequest struct {
	UserID   string                 `json:"user_id"`
	Document vault.IdentityDocument `json:"document"`
}

type storeAgeRequest struct {
	UserID string                `json:"user_id"`
	Record vault.AgeVerification `json:"record"`
}

type storeProductionRequest struct {
	UserID string                           `json:"user_id"`
	Record vault.ProductionComplianceRecord `json:"record"`
}

type storeResponse struct {
	RecordID string `json:"record_id"`
}

type retrieveResponse struct {
	RecordID string          `json:"record_id"`
	UserID   string          `json:"user_id"`
	DataType vault.DataType  `json:"data_type"`
	Version  int             `json:"version"`
	Data     json.RawMessage `json:"data"`
}

func (s *Server) handleStoreIdentity(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requirePost(w, r)
	if !ok {
		return
	}
	var req storeIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: "bad request body", Code: "bad_request"})
		return
	}
	id, err := s.vault.StoreIdentityDocument(r.Context(), req.UserID, req.Document, claims.Sub)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, storeResponse{RecordID: id})
}

func (s *Server) handleStoreAge(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requirePost(w, r)
	if !ok {
		return
	}
	var req storeAgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: "bad request body", Code: "bad_request"})
		return
	}
	id, err := s.vault.StoreAgeVerification(r.Context(), req.UserID, req.Record, claims.Sub)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, storeResponse{RecordID: id})
}

func (s *Server) handleStoreProduction(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requirePost(w, r)
	if !ok {
		return
	}
	var req storeProductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: "bad request body", Code: "bad_request"})
		return
	}
	id, err := s.vault.StoreProductionCompliance(r.Context(), req.UserID, req.Record, claims.Sub)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, storeResponse{RecordID: id})
}

// handleRecordByID serves GET (retrieve) and DELETE (secure delete) on
// /api/records/{id}.
func (s *Server) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	reason := r.URL.Query().Get("reason")

	switch r.Method {
	case http.MethodGet:
		p, err := s.vault.RetrieveRecord(r.Context(), id, claims.Sub, reason)
		if err != nil {
			writeVaultError(w, err)
			return
		}
		writeJSON(w, retrieveResponse{
			RecordID: p.RecordID,
			UserID:   p.UserID,
			DataType: p.DataType,
			Version:  p.Version,
			Data:     json.RawMessage(p.Data),
		})
	case http.MethodDelete:
		deleted, err := s.vault.DeleteRecord(r.Context(), id, claims.Sub, reason)
		if err != nil {
			writeVaultError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"deleted": deleted})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.vault.Statistics(r.Context())
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, stats)
}

// handleUserRecords serves GET /api/users/{id}/records.
func (s *Server) handleUserRecords(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	userID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "records" || userID == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	ids, err := s.vault.UserRecords(r.Context(), userID, claims.Sub)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, map[string][]string{"record_ids": ids})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: "start must be RFC3339", Code: "bad_request"})
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: "end must be RFC3339", Code: "bad_request"})
		return
	}
	rep, err := s.vault.ComplianceReport(r.Context(), start, end)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error(), Code: "bad_request"})
		return
	}
	writeJSON(w, rep)
}

func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}
