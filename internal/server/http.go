// Package server exposes the scorekeeper over HTTP and gRPC.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/xtding233/doko-backend/internal/doko"
	"github.com/xtding233/doko-backend/internal/rules"
	"github.com/xtding233/doko-backend/internal/session"
)

// Defaults fill in fields a client leaves empty when opening a game.
type Defaults struct {
	Ruleset   string
	ValuePair string
	SoloValue string
}

func (d Defaults) apply(st session.Settings) session.Settings {
	if st.Ruleset == "" {
		st.Ruleset = d.Ruleset
	}
	if st.ValuePair == "" {
		st.ValuePair = d.ValuePair
	}
	if st.SoloValue == "" {
		st.SoloValue = d.SoloValue
	}
	return st
}

// RulesetNames lists selectable rulesets.
type RulesetNames interface {
	Names() []string
}

// API is the HTTP front of a session.Service.
type API struct {
	router   *mux.Router
	sessions *session.Service
	rules    RulesetNames
	defaults Defaults
}

// NewAPI builds the router.
func NewAPI(sessions *session.Service, names RulesetNames, defaults Defaults) *API {
	a := &API{
		router:   mux.NewRouter(),
		sessions: sessions,
		rules:    names,
		defaults: defaults,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/rulesets", a.handleRulesets).Methods("GET")

	a.router.HandleFunc("/games", a.handleListGames).Methods("GET")
	a.router.HandleFunc("/games", a.handleNewGame).Methods("POST")
	a.router.HandleFunc("/games/{id}", a.handleGetGame).Methods("GET")
	a.router.HandleFunc("/games/{id}/players", a.handleSetPlayers).Methods("PUT")
	a.router.HandleFunc("/games/{id}/players/{pid}", a.handleRemovePlayer).Methods("DELETE")
	a.router.HandleFunc("/games/{id}/config", a.handleSetConfig).Methods("PUT")
	a.router.HandleFunc("/games/{id}/preview", a.handlePreview).Methods("POST")
	a.router.HandleFunc("/games/{id}/rounds", a.handleSubmitRound).Methods("POST")
	a.router.HandleFunc("/games/{id}/rounds/{rid}", a.handleRemoveRound).Methods("DELETE")
	a.router.HandleFunc("/games/{id}/recompute", a.handleRecompute).Methods("POST")
	a.router.HandleFunc("/games/{id}/stats", a.handleStats).Methods("GET")
	a.router.HandleFunc("/games/{id}/archive", a.handleArchive).Methods("POST")

	a.router.HandleFunc("/archive", a.handleListArchive).Methods("GET")
	a.router.HandleFunc("/archive/{id}", a.handleViewArchived).Methods("GET")
	a.router.HandleFunc("/archive/{id}/continue", a.handleContinue).Methods("POST")
	a.router.HandleFunc("/archive/{id}", a.handleDeleteArchived).Methods("DELETE")
}

// Handler returns the router wrapped for browser access from origins.
func (a *API) Handler(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(a.router)
}

type errResp struct {
	Err string `json:"err"`
}

type roundReq struct {
	Options  []doko.Option          `json:"options"`
	Statuses map[string]doko.Status `json:"statuses"`
}

type roundResp struct {
	session.Round
	DisplayOptions []string `json:"display_options"`
}

func newRoundResp(r session.Round) roundResp {
	return roundResp{Round: r, DisplayOptions: r.DisplayOptions()}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case session.IsNotFound(err):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrGameRunning):
		code = http.StatusConflict
	case isInvalid(err):
		code = http.StatusBadRequest
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, code, errResp{Err: err.Error()})
}

func isInvalid(err error) bool {
	for _, target := range []error{
		doko.ErrNoGameType, doko.ErrConflictingGameTypes, doko.ErrUnknownOption,
		doko.ErrExcludedOption, doko.ErrParticipantCount, doko.ErrInvalidStatus,
		session.ErrUnknownParticipant, session.ErrInvalidPlayers, session.ErrNothingToArchive,
		rules.ErrUnknownRuleset,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (a *API) handleRulesets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rulesets": a.rules.Names(),
		"default":  a.defaults.Ruleset,
	})
}

func (a *API) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"games": a.sessions.IDs()})
}

func (a *API) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var st session.Settings
	if r.ContentLength != 0 && !decode(w, r, &st) {
		return
	}
	v, err := a.sessions.NewGame(a.defaults.apply(st))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := a.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleSetPlayers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Players []string `json:"players"`
	}
	if !decode(w, r, &req) {
		return
	}
	v, err := a.sessions.SetPlayers(mux.Vars(r)["id"], req.Players)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := a.sessions.RemovePlayer(vars["id"], vars["pid"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ValuePair string `json:"value_pair"`
		SoloValue string `json:"solo_value"`
	}
	if !decode(w, r, &req) {
		return
	}
	v, err := a.sessions.SetConfig(mux.Vars(r)["id"], req.ValuePair, req.SoloValue)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req roundReq
	if !decode(w, r, &req) {
		return
	}
	round, err := a.sessions.Preview(mux.Vars(r)["id"], req.Options, req.Statuses)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoundResp(round))
}

func (a *API) handleSubmitRound(w http.ResponseWriter, r *http.Request) {
	var req roundReq
	if !decode(w, r, &req) {
		return
	}
	round, err := a.sessions.SubmitRound(mux.Vars(r)["id"], req.Options, req.Statuses)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRoundResp(round))
}

func (a *API) handleRemoveRound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := a.sessions.RemoveRound(vars["id"], vars["rid"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleRecompute(w http.ResponseWriter, r *http.Request) {
	v, err := a.sessions.Recompute(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.sessions.Stats(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleArchive(w http.ResponseWriter, r *http.Request) {
	g, err := a.sessions.ArchiveGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleListArchive(w http.ResponseWriter, r *http.Request) {
	games, err := a.sessions.ListArchive(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	type entry struct {
		ID           string                `json:"id"`
		CreatedAt    string                `json:"created_at"`
		Ruleset      string                `json:"ruleset"`
		Participants []session.Participant `json:"participants"`
		Rounds       int                   `json:"rounds"`
	}
	out := make([]entry, len(games))
	for i, g := range games {
		out[i] = entry{
			ID:           g.ID,
			CreatedAt:    g.CreatedAt.Format("2006-01-02 15:04"),
			Ruleset:      g.Ruleset,
			Participants: g.Participants,
			Rounds:       len(g.Rounds),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

func (a *API) handleViewArchived(w http.ResponseWriter, r *http.Request) {
	v, err := a.sessions.ViewArchived(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleContinue(w http.ResponseWriter, r *http.Request) {
	v, err := a.sessions.ContinueArchived(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleDeleteArchived(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.DeleteArchived(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
