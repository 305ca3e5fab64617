package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"ctfbot/internal/app/service"
	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
	"ctfbot/internal/platform/config"
	"ctfbot/internal/platform/gateway"

	"github.com/go-chi/chi/v5"
)

// Interaction is a slash-command invocation forwarded by the gateway
// connector. Args carries the command's named string options.
type Interaction struct {
	Command string            `json:"command"`
	UserID  string            `json:"user_id"`
	Args    map[string]string `json:"args"`
}

// Reply is the payload the connector relays back to the invoking user.
type Reply struct {
	Content   string         `json:"content"`
	Ephemeral bool           `json:"ephemeral"`
	Embed     *gateway.Embed `json:"embed,omitempty"`
}

type InteractionHandler struct {
	eventService      *service.EventService
	onboardingService *service.OnboardingService
	submissionService *service.SubmissionService
	scoreboardService *service.ScoreboardService
}

func NewInteractionHandler(
	es *service.EventService,
	os *service.OnboardingService,
	ss *service.SubmissionService,
	sb *service.ScoreboardService,
) *InteractionHandler {
	return &InteractionHandler{
		eventService:      es,
		onboardingService: os,
		submissionService: ss,
		scoreboardService: sb,
	}
}

func (h *InteractionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleInteraction)
}

func (h *InteractionHandler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var in Interaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid interaction payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if in.Args == nil {
		in.Args = map[string]string{}
	}

	reply := h.Dispatch(r, &in)
	common.RespondWithJSON(w, http.StatusOK, reply)
}

// Dispatch routes a command to its handler. Domain failures become error
// replies, not transport errors: the connector always gets a payload to
// show the user.
func (h *InteractionHandler) Dispatch(r *http.Request, in *Interaction) Reply {
	switch in.Command {
	case "create_ctf":
		return h.adminOnly(r, in, h.createCTF)
	case "end_ctf":
		return h.adminOnly(r, in, h.endCTF)
	case "allflags":
		return h.adminOnly(r, in, h.allFlags)
	case "join_ctf":
		return h.joinCTF(r, in)
	case "verify_otp":
		return h.verifyOTP(r, in)
	case "flag":
		return h.submitFlag(r, in)
	case "scoreboard":
		return h.scoreboard(r, in)
	case "timeleft":
		return h.timeLeft(r, in)
	default:
		return ephemeral("Unknown command: " + in.Command)
	}
}

func (h *InteractionHandler) adminOnly(r *http.Request, in *Interaction, next func(*http.Request, *Interaction) Reply) Reply {
	if in.UserID == "" || in.UserID != config.AppConfig.AdminUserID {
		return errorReply(common.ErrAdminOnly)
	}
	return next(r, in)
}

func (h *InteractionHandler) createCTF(r *http.Request, in *Interaction) Reply {
	event, err := h.eventService.Create(r.Context(), service.CreateEventRequest{
		Name:   in.Args["name"],
		Start:  in.Args["start"],
		End:    in.Args["end"],
		URL:    in.Args["url"],
		Format: in.Args["format"],
	})
	if err != nil {
		return errorReply(err)
	}
	return Reply{Content: fmt.Sprintf("**%s** Created & Announced!", event.Name)}
}

func (h *InteractionHandler) endCTF(r *http.Request, in *Interaction) Reply {
	ctx := r.Context()
	event, report, err := h.eventService.End(ctx, in.Args["name"])
	if err != nil {
		return errorReply(err)
	}
	h.eventService.PublishFinalReport(ctx, event, report)
	return Reply{Content: "CTF Ended. Results published to Announcements."}
}

func (h *InteractionHandler) allFlags(r *http.Request, in *Interaction) Reply {
	_, submissions, err := h.submissionService.AllFlags(r.Context(), in.Args["name"])
	if err != nil {
		return errorReply(err)
	}
	if len(submissions) == 0 {
		return ephemeral("No flags submitted yet.")
	}

	// Bounded by the platform's message length limit. Room for the hidden
	// suffix is reserved up front so appending it never overflows.
	const (
		maxLen        = 2000
		suffixReserve = len("\n... 99999 more flags hidden (limit reached).")
	)
	output := "**All Submitted Flags**\n\n"
	shown := 0
	for i, s := range submissions {
		line := fmt.Sprintf("%d. <@%s> | **%s** (%s) | `%s`\n", i+1, s.UserID, s.Challenge, s.Category, s.FlagValue)
		if len(output)+len(line)+suffixReserve >= maxLen {
			break
		}
		output += line
		shown++
	}
	if hidden := len(submissions) - shown; hidden > 0 {
		output += fmt.Sprintf("\n... %d more flags hidden (limit reached).", hidden)
	}
	return ephemeral(output)
}

func (h *InteractionHandler) joinCTF(r *http.Request, in *Interaction) Reply {
	challenge, err := h.onboardingService.RequestJoin(r.Context(), in.UserID, in.Args["name"])
	if err != nil {
		return errorReply(err)
	}
	minutes := int(config.AppConfig.VerificationCodeTTL.Minutes())
	content := fmt.Sprintf(
		"**%s**\n**Verification Required**\nYour OTP is: `%s`\n\nRun command: `/verify_otp code:%s`\n(Valid for %d minutes)",
		challenge.Event.Name, challenge.Code, challenge.Code, minutes,
	)
	return ephemeral(content)
}

func (h *InteractionHandler) verifyOTP(r *http.Request, in *Interaction) Reply {
	result, err := h.onboardingService.Verify(r.Context(), in.UserID, in.Args["code"])
	if err != nil {
		return errorReply(err)
	}
	if result.ProvisioningErr != nil {
		return ephemeral("Joined, but failed to set up role/channels. Check bot permissions.")
	}
	return ephemeral(fmt.Sprintf("**Verification Successful!** You have joined **%s**.", result.Event.Name))
}

func (h *InteractionHandler) submitFlag(r *http.Request, in *Interaction) Reply {
	submission, err := h.submissionService.Submit(r.Context(), in.UserID, in.Args["name"], in.Args["submission"])
	if err != nil {
		return errorReply(err)
	}
	return ephemeral(fmt.Sprintf("Correct! Flag accepted for **%s**.", submission.Challenge))
}

func (h *InteractionHandler) scoreboard(r *http.Request, in *Interaction) Reply {
	event, entries, err := h.scoreboardService.Live(r.Context(), in.Args["name"])
	if err != nil {
		return errorReply(err)
	}
	if len(entries) == 0 {
		return Reply{Content: "No solves yet."}
	}

	desc := ""
	for _, e := range entries {
		desc += fmt.Sprintf("**%d.** <@%s> : `%d`\n", e.Rank, e.UserID, e.Score)
	}
	return Reply{Embed: &gateway.Embed{
		Title:       fmt.Sprintf("Live Scoreboard - %s", event.Name),
		Color:       "purple",
		Description: desc,
	}}
}

func (h *InteractionHandler) timeLeft(r *http.Request, in *Interaction) Reply {
	event, state, err := h.eventService.Status(r.Context(), in.Args["name"])
	if err != nil {
		return errorReply(err)
	}

	var msg string
	switch state {
	case model.StateEnded:
		msg = "CTF has officially ended."
	case model.StateNotStarted:
		msg = fmt.Sprintf("Starts at %s (in %s)", event.StartAt.Format(time.RFC1123), until(event.StartAt))
	case model.StateElapsed:
		msg = "Time is up! Waiting for Admin to finalize."
	default:
		msg = fmt.Sprintf("Remaining: %s (ends %s)", until(event.EndAt), event.EndAt.Format(time.RFC1123))
	}
	return ephemeral(msg)
}

func until(t time.Time) string {
	return time.Until(t).Round(time.Minute).String()
}

func ephemeral(content string) Reply {
	return Reply{Content: content, Ephemeral: true}
}

// errorReply translates domain errors into the user-facing wording.
func errorReply(err error) Reply {
	switch {
	case errors.Is(err, common.ErrAdminOnly):
		return ephemeral("Admin only.")
	case errors.Is(err, common.ErrInvalidTime):
		return ephemeral("Invalid date format. Use ISO 8601 (e.g. 2026-02-09T10:00:00)")
	case errors.Is(err, common.ErrInvalidRange):
		return ephemeral("End time must be after Start time.")
	case errors.Is(err, common.ErrNotFound):
		return ephemeral("No active CTF at the moment.")
	case errors.Is(err, common.ErrEventClosed):
		return ephemeral("CTF has ended. Submissions closed.")
	case errors.Is(err, common.ErrEventNotStarted):
		return ephemeral("CTF hasn't started yet.")
	case errors.Is(err, common.ErrAlreadyJoined):
		return ephemeral("You have already joined!")
	case errors.Is(err, common.ErrNoPendingCode):
		return ephemeral("No OTP found. Run `/join_ctf` first.")
	case errors.Is(err, common.ErrCodeExpired):
		return ephemeral("OTP Expired. Run `/join_ctf` again.")
	case errors.Is(err, common.ErrCodeMismatch):
		return ephemeral("Invalid OTP.")
	case errors.Is(err, common.ErrNotJoined):
		return ephemeral("You must `/join_ctf` & verify first.")
	case errors.Is(err, common.ErrDuplicateFlag):
		return ephemeral("Flag already submitted (by someone).")
	case errors.Is(err, common.ErrBadFormat):
		return ephemeral("**Format Error!**\nUse strict format:\n`==Challenge== ==Category== ==Flag==`\n\nExample:\n`==Web 1== ==Web== ==CTF{123}==`")
	case errors.Is(err, common.ErrBadRequest):
		return ephemeral("Missing or invalid command arguments.")
	default:
		log.Printf("ERROR: interaction failed: %v", err)
		return ephemeral("Infrastructure error. Please try again later.")
	}
}
