package usuarios

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniconnect/uniconnect/internal/platform/httpx"
	"github.com/uniconnect/uniconnect/internal/shared"
	"github.com/uniconnect/uniconnect/internal/view"
)

// loadingRefreshSeconds is the meta refresh interval while a fetch is pending.
const loadingRefreshSeconds = 1

// Handler serves the usuarios screen.
type Handler struct {
	logger     *slog.Logger
	controller *Controller
	templates  *view.Engine
	csrf       *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, controller *Controller, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, controller: controller, templates: templates, csrf: csrf}
}

// MountRoutes registers screen routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showScreen)
	r.Get("/api/state", h.showState)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) showScreen(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	state := h.controller.State()
	data := view.TemplateData{
		Title:       ScreenTitle,
		CSRFToken:   h.csrf.EnsureToken(w, r),
		CurrentPath: r.URL.Path,
		Data:        BuildScreen(state),
	}
	if state.Phase == PhaseLoading {
		data.RefreshSeconds = loadingRefreshSeconds
	}
	if err := h.templates.Render(w, "pages/usuarios.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

type userResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Career    *string `json:"career,omitempty"`
}

type stateResponse struct {
	Phase   Phase          `json:"phase"`
	Records []userResponse `json:"records"`
	Message string         `json:"message,omitempty"`
}

func (h *Handler) showState(w http.ResponseWriter, r *http.Request) {
	state := h.controller.State()
	resp := stateResponse{Phase: state.Phase, Message: state.Message}
	if state.Phase == PhaseSuccess {
		resp.Records = make([]userResponse, len(state.Records))
		for i, u := range state.Records {
			resp.Records[i] = userResponse{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Career: u.Career}
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	// The fetch outlives this request.
	h.controller.Activate(context.WithoutCancel(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
