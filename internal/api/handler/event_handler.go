package handler

import (
	"net/http"

	"ctfbot/internal/app/service"
	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// EventHandler exposes the read-only REST view of events: runtime status
// and the live scoreboard. Mutations only happen through chat commands.
type EventHandler struct {
	eventService      *service.EventService
	scoreboardService *service.ScoreboardService
}

func NewEventHandler(es *service.EventService, sb *service.ScoreboardService) *EventHandler {
	return &EventHandler{eventService: es, scoreboardService: sb}
}

func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{eventName}/status", h.getStatus)
	r.Get("/{eventName}/scoreboard", h.getScoreboard)
}

type eventStatusResponse struct {
	Event        *model.Event       `json:"event"`
	RuntimeState model.RuntimeState `json:"runtime_state"`
}

func (h *EventHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "eventName")
	event, state, err := h.eventService.Status(r.Context(), name)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, eventStatusResponse{Event: event, RuntimeState: state})
}

type scoreboardResponse struct {
	Event   *model.Event            `json:"event"`
	Entries []model.ScoreboardEntry `json:"entries"`
}

func (h *EventHandler) getScoreboard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "eventName")
	event, entries, err := h.scoreboardService.Live(r.Context(), name)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, scoreboardResponse{Event: event, Entries: entries})
}
