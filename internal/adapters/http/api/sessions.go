package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/model"
)

const maxBodyBytes = 4 << 10

// SessionsHandler serves session lifecycle and player actions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type createRequest struct {
	Player string `json:"player"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type guessRequest struct {
	Text *string `json:"text"`
}

type categoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
}

// HandleCategories handles GET /v1/categories.
func (h *SessionsHandler) HandleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: h.deps.Categories()})
}

// HandleCreate handles POST /v1/sessions. The body is optional.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, err))
		return
	}
	snap, err := h.deps.CreateSession(r.Context(), strings.TrimSpace(req.Player))
	if err != nil {
		status, code, _ := classify(err)
		writeError(w, status, code, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+snap.ID)
	writeJSON(w, http.StatusCreated, actionResponse{Snapshot: snap})
}

// HandleGet handles GET /v1/sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code, _ := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Snapshot: snap})
}

// HandleDelete handles DELETE /v1/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		status, code, _ := classify(err)
		writeError(w, status, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// action builds the handler for one player action.
func (h *SessionsHandler) action(kind model.Kind) http.HandlerFunc {
	op := "api." + string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		cmd := model.NewCommand(id, kind)
		cmd.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))

		switch kind {
		case model.KindChooseCategory:
			var req categoryRequest
			if err := decodeRequired(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, err))
				return
			}
			cmd.Category = req.Category
		case model.KindUpdateGuess:
			var req guessRequest
			if err := decodeRequired(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, err))
				return
			}
			if req.Text == nil {
				writeError(w, http.StatusBadRequest, codeBadRequest, badRequest(op, errors.New("missing text")))
				return
			}
			cmd.Text = *req.Text
		}

		reply, err := h.deps.Do(r.Context(), id, cmd)
		if err != nil {
			status, code, _ := classify(err)
			writeError(w, status, code, err)
			return
		}
		writeReply(w, reply)
	}
}

// writeReply renders a game outcome. Rejected guesses and hints are not
// errors: they come back as 200 with a failure notice.
func writeReply(w http.ResponseWriter, reply model.Reply) { //nolint:gocritic // hugeParam: Reply mirrors the channel payload
	if status, code, isErr := classify(reply.Err); isErr {
		snap := reply.Snapshot
		writeJSON(w, status, errorResponse{Code: code, Message: reply.Err.Error(), Snapshot: &snap})
		return
	}
	resp := actionResponse{Snapshot: reply.Snapshot, Duplicate: reply.Duplicate}
	if !reply.Notice.IsZero() {
		n := reply.Notice
		resp.Notice = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeRequired(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
