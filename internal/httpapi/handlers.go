package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hiragana-drop/internal/history"
	"github.com/DoyleJ11/hiragana-drop/internal/hub"
	"github.com/DoyleJ11/hiragana-drop/internal/lobby"
	"github.com/DoyleJ11/hiragana-drop/internal/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if findLobby(h, c) == nil {
				code = c
				break
			}
			log.Debug("lobby_code_collision", zap.String("code", c))
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.EnsureLobby{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, types.CreateLobbyResponse{Code: code})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb := findLobby(h, code)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		reply := make(chan lobby.View, 1)
		select {
		case lb.Inbox() <- lobby.GetState{Reply: reply}:
		case <-lb.Done():
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, types.LobbyResponse{Code: code, Version: v.Version, NumClients: v.NumClients, State: v.State})
		case <-time.After(2 * time.Second):
			http.Error(w, "lobby busy", http.StatusServiceUnavailable)
		}
	}
}

func LobbyHistory(h *hub.Hub, store history.Store, maxLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		limit := maxLimit
		if q := r.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 1 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			if maxLimit <= 0 || n < maxLimit {
				limit = n
			}
		}

		recs, err := store.List(r.Context(), code, limit)
		if err != nil {
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if len(recs) == 0 && findLobby(h, code) == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func findLobby(h *hub.Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
	return <-reply
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
