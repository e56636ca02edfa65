package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/sonyflake"
	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/auth"
	"github.com/g21-super-team/funny-movies-be/internal/config"
	"github.com/g21-super-team/funny-movies-be/internal/gate"
	"github.com/g21-super-team/funny-movies-be/internal/hub"
	"github.com/g21-super-team/funny-movies-be/internal/metrics"
	"github.com/g21-super-team/funny-movies-be/internal/reaction"
	"github.com/g21-super-team/funny-movies-be/internal/repo"
	"github.com/g21-super-team/funny-movies-be/internal/youtube"
)

type app struct {
	cfg       *config.Config
	log       *zap.Logger
	users     *repo.UserRepo
	movies    *repo.MovieRepo
	svc       *reaction.Service
	sessions  *auth.SessionStore
	validator *auth.Validator
	hub       *hub.Hub
	sup       *gate.Supervisor
	sf        *sonyflake.Sonyflake
	yt        *youtube.Client
}

func (a *app) extractOpts() auth.ExtractOptions {
	return auth.ExtractOptions{
		Header:       a.cfg.Auth.Token.Header,
		BearerPrefix: a.cfg.Auth.Token.BearerPrefix,
		QueryKey:     a.cfg.Auth.Token.QueryKey,
	}
}

func (a *app) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return auth.RequireUser(a.validator, a.extractOpts(), next)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *app) nextID() (int64, error) {
	id, err := a.sf.NextID()
	return int64(id), err
}

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type movieJSON struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Thumbnail     string         `json:"thumbnail"`
	URL           string         `json:"url"`
	Sharer        userJSON       `json:"sharer"`
	LikeCount     int64          `json:"like_count"`
	UnlikeCount   int64          `json:"unlike_count"`
	ReactionState reaction.State `json:"reaction_state,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

/* ---------------- auth ---------------- */

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *credentials) validate() error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if !strings.Contains(c.Email, "@") || len(c.Email) < 5 {
		return errors.New("invalid email")
	}
	if len(c.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func (a *app) issueSession(w http.ResponseWriter, r *http.Request, u *repo.User) {
	token, err := auth.IssueToken(auth.Payload{UserID: u.ID, IssuedAt: time.Now().Unix()}, a.cfg.Auth.Token.Secret)
	if err != nil {
		a.log.Error("token issue failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := a.sessions.Put(r.Context(), token, u.ID); err != nil {
		a.log.Error("session put failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON{ID: strconv.FormatInt(u.ID, 10), Email: u.Email},
	})
}

func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := c.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := repo.HashPassword(c.Password)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	id, err := a.nextID()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	u := &repo.User{ID: id, Email: c.Email, PasswordHash: hash}
	if err := a.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		a.log.Error("user create failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	a.issueSession(w, r, u)
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))

	u, ok, err := a.users.FindByEmail(r.Context(), c.Email)
	if err != nil {
		a.log.Error("user lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok || repo.CheckPassword(u.PasswordHash, c.Password) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	a.issueSession(w, r, u)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	uid, _ := auth.UserID(r.Context())
	opts := a.extractOpts()
	token := auth.ExtractToken(r, opts.Header, opts.BearerPrefix, opts.QueryKey)
	if err := a.sessions.Delete(r.Context(), token); err != nil {
		a.log.Warn("session delete failed", zap.Error(err))
	}
	// stop broadcasts to this user's live connections; the sockets stay up
	a.sup.Logout(uid)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- movies ---------------- */

func (a *app) handleMovies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listMovies(w, r)
	case http.MethodPost:
		a.requireUser(a.shareMovie)(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *app) shareMovie(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r.Context())

	var q struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	videoID, err := youtube.ParseVideoID(q.URL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	video, err := a.yt.Lookup(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, youtube.ErrVideoNotFound) {
			http.Error(w, "video not found", http.StatusBadRequest)
			return
		}
		a.log.Warn("youtube lookup failed", zap.String("video_id", videoID), zap.Error(err))
		http.Error(w, "video lookup unavailable", http.StatusBadGateway)
		return
	}

	sharer, ok, err := a.users.FindByID(r.Context(), uid)
	if err != nil || !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	id, err := a.nextID()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	m := &repo.Movie{
		ID:          id,
		Title:       video.Title,
		Description: video.Description,
		Thumbnail:   video.Thumbnail,
		URL:         q.URL,
		SharerID:    sharer.ID,
		SharerEmail: sharer.Email,
	}
	if err := a.movies.Create(r.Context(), m); err != nil {
		a.log.Error("movie create failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := toMovieJSON(m)
	a.hub.EmitToGroup(gate.ShareGroup, "share:new-movie", map[string]any{
		"movie": out,
		"user":  out.Sharer,
	})
	metrics.ShareBroadcast.Inc()

	writeJSON(w, http.StatusCreated, out)
}

func (a *app) listMovies(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rowsData, total, err := a.movies.List(r.Context(), skip, limit)
	if err != nil {
		a.log.Error("movie list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	results := make([]movieJSON, 0, len(rowsData))
	ids := make([]int64, 0, len(rowsData))
	for i := range rowsData {
		results = append(results, toMovieJSON(&rowsData[i]))
		ids = append(ids, rowsData[i].ID)
	}

	// anonymous callers get counts only; authenticated callers also get
	// their own reaction state per post
	opts := a.extractOpts()
	if token := auth.ExtractToken(r, opts.Header, opts.BearerPrefix, opts.QueryKey); token != "" {
		if uid, err := a.validator.Validate(r.Context(), token); err == nil {
			states, err := a.svc.StatesFor(r.Context(), ids, uid)
			if err == nil {
				for i := range results {
					results[i].ReactionState = states[ids[i]]
				}
			} else {
				a.log.Warn("reaction states lookup failed", zap.Error(err))
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": results,
		"count":  total,
	})
}

func toMovieJSON(m *repo.Movie) movieJSON {
	return movieJSON{
		ID:          strconv.FormatInt(m.ID, 10),
		Title:       m.Title,
		Description: m.Description,
		Thumbnail:   m.Thumbnail,
		URL:         m.URL,
		Sharer:      userJSON{ID: strconv.FormatInt(m.SharerID, 10), Email: m.SharerEmail},
		LikeCount:   m.LikeCount,
		UnlikeCount: m.UnlikeCount,
		CreatedAt:   m.CreatedAt,
	}
}

/* ---------------- reactions ---------------- */

func (a *app) handleReact(requested reaction.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		uid, _ := auth.UserID(r.Context())

		var q struct {
			PostID string `json:"post_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		postID, err := strconv.ParseInt(q.PostID, 10, 64)
		if err != nil || postID <= 0 {
			http.Error(w, "invalid post_id", http.StatusBadRequest)
			return
		}

		res, err := a.svc.React(r.Context(), postID, uid, requested)
		if err != nil {
			if errors.Is(err, reaction.ErrUnknownPost) {
				http.Error(w, "unknown post", http.StatusNotFound)
				return
			}
			a.log.Error("reaction failed",
				zap.Int64("post_id", postID), zap.Int64("user_id", uid), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
