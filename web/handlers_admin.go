package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/voxway/voxgate/app"
	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// AdminListUsers returns all users newest first.
//
//	@Summary	List users
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	map[string][]UserDTO
//	@Router		/api/admin/users [get]
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	users, err := h.admin.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]UserDTO{
		"users": lo.Map(users, func(u account.User, _ int) UserDTO { return toUserDTO(u) }),
	})
}

// AdminGetUser returns one user.
//
//	@Summary	Get a user
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	map[string]UserDTO
//	@Failure	404	{object}	errorEnvelope
//	@Router		/api/admin/users/{id} [get]
func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.admin.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]UserDTO{"user": toUserDTO(user)})
}

// PatchUserRequest carries the admin-editable user fields. Absent
// fields are left unchanged.
type PatchUserRequest struct {
	Name            *string  `json:"name"`
	Status          *string  `json:"status"`
	IsAdmin         *bool    `json:"isAdmin"`
	IsDeveloper     *bool    `json:"isDeveloper"`
	STTMinutesUsed  *int     `json:"sttMinutesUsed"`
	STTMinutesLimit *int     `json:"sttMinutesLimit"`
	AICreditsUsed   *float64 `json:"aiCreditsUsed"`
	AICreditsLimit  *float64 `json:"aiCreditsLimit"`
}

// AdminPatchUser updates the set fields of a user.
//
//	@Summary	Update a user
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Security	Bearer
//	@Param		id		path		string				true	"User ID"
//	@Param		request	body		PatchUserRequest	true	"Fields to update"
//	@Success	200		{object}	map[string]UserDTO
//	@Failure	400		{object}	errorEnvelope	"Invalid status value"
//	@Router		/api/admin/users/{id} [patch]
func (h *Handler) AdminPatchUser(w http.ResponseWriter, r *http.Request) {
	var req PatchUserRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.admin.PatchUser(r.Context(), chi.URLParam(r, "id"), app.UserPatch{
		Name:            req.Name,
		Status:          req.Status,
		IsAdmin:         req.IsAdmin,
		IsDeveloper:     req.IsDeveloper,
		STTMinutesUsed:  req.STTMinutesUsed,
		STTMinutesLimit: req.STTMinutesLimit,
		AICreditsUsed:   req.AICreditsUsed,
		AICreditsLimit:  req.AICreditsLimit,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]UserDTO{"user": toUserDTO(user)})
}

// AdminDeleteUser permanently removes a user.
//
//	@Summary	Delete a user
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	map[string]bool
//	@Failure	404	{object}	errorEnvelope
//	@Router		/api/admin/users/{id} [delete]
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AdminActivateUser flips an account to active, provisioning a provider
// key when the account has none.
//
//	@Summary	Activate a user
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	map[string]UserDTO
//	@Failure	400	{object}	errorEnvelope	"User already active"
//	@Router		/api/admin/users/{id}/activate [post]
func (h *Handler) AdminActivateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.admin.ActivateUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]UserDTO{"user": toUserDTO(user)})
}

// InviteUserRequest is the invite request body.
type InviteUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// InviteUserResponse is the invited user plus the generated password,
// returned exactly once.
type InviteUserResponse struct {
	User              UserDTO `json:"user"`
	GeneratedPassword string  `json:"generatedPassword,omitempty"`
}

// AdminInviteUser creates an already active account.
//
//	@Summary	Invite a user
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Security	Bearer
//	@Param		request	body		InviteUserRequest	true	"Invite details"
//	@Success	200		{object}	InviteUserResponse
//	@Failure	409		{object}	errorEnvelope	"Email already registered"
//	@Router		/api/admin/users/invite [post]
func (h *Handler) AdminInviteUser(w http.ResponseWriter, r *http.Request) {
	var req InviteUserRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.admin.InviteUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, InviteUserResponse{
		User:              toUserDTO(result.User),
		GeneratedPassword: result.GeneratedPassword,
	})
}

// DashboardResponse groups the admin overview counters.
type DashboardResponse struct {
	Users struct {
		Total       int `json:"total"`
		Active      int `json:"active"`
		Pending     int `json:"pending"`
		Banned      int `json:"banned"`
		NewToday    int `json:"newToday"`
		NewThisWeek int `json:"newThisWeek"`
	} `json:"users"`
	Sessions struct {
		Active int `json:"active"`
	} `json:"sessions"`
	Usage struct {
		TotalSTTMinutes int     `json:"totalSttMinutes"`
		TotalAICredits  float64 `json:"totalAiCredits"`
	} `json:"usage"`
	Costs struct {
		Last30dUSD float64 `json:"last30dUsd"`
	} `json:"costs"`
	Errors struct {
		LastWeek int `json:"lastWeek"`
	} `json:"errors"`
	Logins struct {
		Today int `json:"today"`
	} `json:"logins"`
}

// AdminDashboard returns the admin overview.
//
//	@Summary	Dashboard stats
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	DashboardResponse
//	@Router		/api/admin/dashboard [get]
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var resp DashboardResponse
	resp.Users.Total = stats.TotalUsers
	resp.Users.Active = stats.ActiveUsers
	resp.Users.Pending = stats.PendingUsers
	resp.Users.Banned = stats.BannedUsers
	resp.Users.NewToday = stats.NewToday
	resp.Users.NewThisWeek = stats.NewThisWeek
	resp.Sessions.Active = stats.ActiveSessions
	resp.Usage.TotalSTTMinutes = stats.TotalSTTMinutes
	resp.Usage.TotalAICredits = stats.TotalAICredits
	resp.Costs.Last30dUSD = stats.CostLast30dUSD
	resp.Errors.LastWeek = stats.ErrorsLastWeek
	resp.Logins.Today = stats.LoginsToday
	writeJSON(w, http.StatusOK, resp)
}

// ProviderTotalDTO is one aggregated spend row.
type ProviderTotalDTO struct {
	Provider string  `json:"provider"`
	Type     string  `json:"type,omitempty"`
	Events   int64   `json:"events"`
	Units    float64 `json:"units"`
	CostUSD  float64 `json:"costUsd"`
}

// UserTotalDTO is one top-spender row.
type UserTotalDTO struct {
	UserID  string  `json:"userId"`
	Email   string  `json:"email"`
	Name    string  `json:"name,omitempty"`
	Events  int64   `json:"events"`
	Units   float64 `json:"units"`
	CostUSD float64 `json:"costUsd"`
}

// CostsResponse is aggregated provider spend over a trailing window.
type CostsResponse struct {
	Days           int                `json:"days"`
	TotalCost      float64            `json:"totalCost"`
	TotalUnits     float64            `json:"totalUnits"`
	ByProvider     []ProviderTotalDTO `json:"byProvider"`
	ByProviderType []ProviderTotalDTO `json:"byProviderType"`
	TopUsers       []UserTotalDTO     `json:"topUsers"`
}

// AdminCosts returns aggregated provider spend.
//
//	@Summary	Cost aggregates
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		days	query		int	false	"Trailing window in days"
//	@Success	200		{object}	CostsResponse
//	@Router		/api/admin/costs [get]
func (h *Handler) AdminCosts(w http.ResponseWriter, r *http.Request) {
	report, err := h.admin.Costs(r.Context(), parseIntQuery(r, "days", 0))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	toProviderDTO := func(t ledger.ProviderTotal, _ int) ProviderTotalDTO {
		return ProviderTotalDTO{
			Provider: t.Provider, Type: t.Type, Events: t.Events,
			Units: t.Units, CostUSD: t.CostUSD,
		}
	}
	writeJSON(w, http.StatusOK, CostsResponse{
		Days:           report.Days,
		TotalCost:      report.TotalCostUSD,
		TotalUnits:     report.TotalUnits,
		ByProvider:     lo.Map(report.ByProvider, toProviderDTO),
		ByProviderType: lo.Map(report.ByProviderType, toProviderDTO),
		TopUsers: lo.Map(report.TopUsers, func(t ledger.UserTotal, _ int) UserTotalDTO {
			return UserTotalDTO{
				UserID: t.UserID, Email: t.Email, Name: t.Name,
				Events: t.Events, Units: t.Units, CostUSD: t.CostUSD,
			}
		}),
	})
}

// SessionDTO is one session row joined with user identity.
type SessionDTO struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	UserEmail  string     `json:"userEmail,omitempty"`
	UserName   string     `json:"userName,omitempty"`
	Type       string     `json:"type"`
	Provider   string     `json:"provider"`
	StartedAt  time.Time  `json:"startedAt"`
	LastSeenAt time.Time  `json:"lastSeenAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

// SessionsResponse lists sessions.
type SessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
	Count    int          `json:"count"`
}

// AdminSessions lists sessions, active ones unless ?active=false.
//
//	@Summary	List sessions
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		active	query		bool	false	"Only sessions live right now (default true)"
//	@Success	200		{object}	SessionsResponse
//	@Router		/api/admin/sessions [get]
func (h *Handler) AdminSessions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"

	views, err := h.admin.Sessions(r.Context(), activeOnly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sessions := lo.Map(views, func(v ports.SessionView, _ int) SessionDTO {
		return SessionDTO{
			ID:         v.ID,
			UserID:     v.UserID,
			UserEmail:  v.UserEmail,
			UserName:   v.UserName,
			Type:       v.Type,
			Provider:   v.Provider,
			StartedAt:  v.StartedAt,
			LastSeenAt: v.LastSeenAt,
			EndedAt:    v.EndedAt,
		}
	})
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// AuthLogDTO is one authentication audit row.
type AuthLogDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email"`
	Action    string    `json:"action"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorLogDTO is one operational failure row.
type ErrorLogDTO struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId,omitempty"`
	UserEmail string            `json:"userEmail,omitempty"`
	Type      string            `json:"type"`
	Provider  string            `json:"provider,omitempty"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// AdminLogs lists paginated audit entries: ?type=auth|error.
//
//	@Summary	List audit logs
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Param		type	query		string	false	"auth or error (default auth)"
//	@Param		limit	query		int		false	"Page size, capped at 200"
//	@Param		offset	query		int		false	"Page offset"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	errorEnvelope	"Invalid log type"
//	@Router		/api/admin/logs [get]
func (h *Handler) AdminLogs(w http.ResponseWriter, r *http.Request) {
	logType := r.URL.Query().Get("type")
	if logType == "" {
		logType = "auth"
	}
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	switch logType {
	case "auth":
		entries, total, err := h.admin.AuthLogs(r.Context(), limit, offset)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		logs := lo.Map(entries, func(e ledger.AuthEntry, _ int) AuthLogDTO {
			return AuthLogDTO{
				ID: e.ID, UserID: e.UserID, Email: e.Email, Action: e.Action,
				IP: e.IP, UserAgent: e.UserAgent, UserName: e.UserName,
				CreatedAt: e.CreatedAt,
			}
		})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs": logs, "total": total, "type": "auth",
		})

	case "error":
		entries, total, err := h.admin.ErrorLogs(r.Context(), limit, offset)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		logs := lo.Map(entries, func(e ledger.ErrorEntry, _ int) ErrorLogDTO {
			return ErrorLogDTO{
				ID: e.ID, UserID: e.UserID, UserEmail: e.UserEmail, Type: e.Type,
				Provider: e.Provider, Message: e.Message, Metadata: e.Metadata,
				CreatedAt: e.CreatedAt,
			}
		})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs": logs, "total": total, "type": "error",
		})

	default:
		writeError(w, h.logger, apierr.Validation("Invalid log type"))
	}
}

// ProviderHealthDTO is one provider probe result.
type ProviderHealthDTO struct {
	Provider      string `json:"provider"`
	Status        string `json:"status"`
	LatencyMs     *int64 `json:"latencyMs"`
	Error         string `json:"error,omitempty"`
	KeyConfigured bool   `json:"keyConfigured"`
}

// ProvidersResponse is the provider health snapshot.
type ProvidersResponse struct {
	Providers []ProviderHealthDTO `json:"providers"`
	AllOK     bool                `json:"allOk"`
}

// AdminProviders probes all configured providers.
//
//	@Summary	Provider health snapshot
//	@Tags		Admin
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	ProvidersResponse
//	@Router		/api/admin/providers [get]
func (h *Handler) AdminProviders(w http.ResponseWriter, r *http.Request) {
	results, allOK := h.admin.ProviderHealth(r.Context())

	providers := lo.Map(results, func(p ports.ProviderHealth, _ int) ProviderHealthDTO {
		dto := ProviderHealthDTO{
			Provider:      p.Provider,
			Status:        "error",
			Error:         p.Error,
			KeyConfigured: p.KeyConfigured,
		}
		if p.OK {
			dto.Status = "ok"
		}
		// An unconfigured key means no request was made, so no latency.
		if p.KeyConfigured {
			latency := p.LatencyMs
			dto.LatencyMs = &latency
		}
		return dto
	})
	writeJSON(w, http.StatusOK, ProvidersResponse{Providers: providers, AllOK: allOK})
}

func parseIntQuery(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return n
}
