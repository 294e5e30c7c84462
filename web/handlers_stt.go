package web

import (
	"encoding/json"
	"net/http"

	"github.com/voxway/voxgate/ports"
)

// TokenResponse carries a short-lived provider credential.
type TokenResponse struct {
	Token string `json:"token"`
}

// STTTokenPrimary issues a credential for the primary speech provider.
//
//	@Summary	Issue a primary STT credential
//	@Tags		STT
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	TokenResponse
//	@Failure	403	{object}	errorEnvelope	"STT minutes limit exceeded"
//	@Router		/api/stt/token-primary [post]
func (h *Handler) STTTokenPrimary(w http.ResponseWriter, r *http.Request) {
	h.issueSTTToken(w, r, h.primary)
}

// STTTokenAlternate issues a credential for the alternate speech
// provider. Both providers draw on the same minute quota.
//
//	@Summary	Issue an alternate STT credential
//	@Tags		STT
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	TokenResponse
//	@Failure	403	{object}	errorEnvelope	"STT minutes limit exceeded"
//	@Router		/api/stt/token [post]
func (h *Handler) STTTokenAlternate(w http.ResponseWriter, r *http.Request) {
	h.issueSTTToken(w, r, h.alternate)
}

func (h *Handler) issueSTTToken(w http.ResponseWriter, r *http.Request, provider ports.STTTokenProvider) {
	user, _ := getUser(r.Context())

	token, err := h.stt.IssueToken(r.Context(), user, provider)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HeartbeatRequest refreshes the caller's live session.
type HeartbeatRequest struct {
	Provider string `json:"provider"`
}

// Heartbeat keeps the caller's STT session live.
//
//	@Summary	Refresh the live STT session
//	@Tags		STT
//	@Accept		json
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	map[string]bool
//	@Router		/api/stt/heartbeat [post]
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	user, _ := getUser(r.Context())

	var req HeartbeatRequest
	// An empty or absent body means the primary provider.
	json.NewDecoder(r.Body).Decode(&req)
	if req.Provider == "" {
		req.Provider = h.primary.Name()
	}

	if err := h.stt.Heartbeat(r.Context(), user, req.Provider); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ReportUsageRequest is the minute report body.
type ReportUsageRequest struct {
	Minutes  float64 `json:"minutes"`
	Provider string  `json:"provider"`
}

// ReportUsageResponse is the quota state after a report.
type ReportUsageResponse struct {
	STTMinutesUsed  int `json:"sttMinutesUsed"`
	STTMinutesLimit int `json:"sttMinutesLimit"`
	Added           int `json:"added"`
}

// ReportUsage records minutes consumed and ends the live session.
//
//	@Summary	Report consumed STT minutes
//	@Tags		STT
//	@Accept		json
//	@Produce	json
//	@Security	Bearer
//	@Param		request	body		ReportUsageRequest	true	"Minutes consumed"
//	@Success	200		{object}	ReportUsageResponse
//	@Failure	400		{object}	errorEnvelope	"Invalid minutes value"
//	@Router		/api/stt/report-usage [post]
func (h *Handler) ReportUsage(w http.ResponseWriter, r *http.Request) {
	user, _ := getUser(r.Context())

	var req ReportUsageRequest
	// A malformed body falls through to the clamp, which rejects the
	// zero value.
	json.NewDecoder(r.Body).Decode(&req)

	report, err := h.stt.ReportUsage(r.Context(), user, req.Provider, req.Minutes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportUsageResponse{
		STTMinutesUsed:  report.STTMinutesUsed,
		STTMinutesLimit: report.STTMinutesLimit,
		Added:           report.Added,
	})
}
