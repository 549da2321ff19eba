package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/email"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/push"
	"github.com/mlahtinen/paced/internal/store"
	"github.com/mlahtinen/paced/internal/websocket"
)

type SocialHandler struct {
	connections *store.ConnectionStore
	invitations *store.InvitationStore
	cheers      *store.CheerStore
	users       *store.UserStore
	mail        *email.Client
	notifier    *push.Notifier
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewSocialHandler(cn *store.ConnectionStore, inv *store.InvitationStore, ch *store.CheerStore, us *store.UserStore, mail *email.Client, notifier *push.Notifier, hub *websocket.Hub, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		connections: cn,
		invitations: inv,
		cheers:      ch,
		users:       us,
		mail:        mail,
		notifier:    notifier,
		hub:         hub,
		logger:      logger,
	}
}

func (h *SocialHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendTo(userID, msg)
	}
}

func (h *SocialHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.connections.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	if friends == nil {
		friends = []store.Friend{}
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *SocialHandler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudyCode string `json:"study_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.StudyCode = strings.TrimSpace(req.StudyCode)
	if req.StudyCode == "" {
		writeError(w, http.StatusBadRequest, "study_code is required")
		return
	}

	friend, err := h.users.GetByStudyCode(req.StudyCode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up study code")
		return
	}
	if friend == nil {
		writeError(w, http.StatusNotFound, "no user with that study code")
		return
	}

	userID := auth.UserID(r.Context())
	conn, err := h.connections.Request(userID, friend.ID)
	if err != nil {
		writeStoreError(w, err, "failed to send friend request")
		return
	}

	h.notify(friend.ID, websocket.NewMessage("friend", "requested", conn.ID, nil))
	writeJSON(w, http.StatusCreated, conn)
}

func (h *SocialHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.connections.Accept(id, userID); err != nil {
		writeStoreError(w, err, "failed to accept friend request")
		return
	}

	conn, err := h.connections.GetByID(id)
	if err != nil || conn == nil {
		writeError(w, http.StatusInternalServerError, "failed to load connection")
		return
	}

	// Tell the requester their request was accepted.
	h.notify(conn.UserID, websocket.NewMessage("friend", "accepted", conn.ID, nil))
	writeJSON(w, http.StatusOK, conn)
}

func (h *SocialHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.connections.Remove(id, auth.UserID(r.Context())); err != nil {
		writeStoreError(w, err, "failed to remove connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SocialHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	inv, err := h.invitations.Create(userID, req.Email)
	if err != nil {
		writeStoreError(w, err, "failed to create invitation")
		return
	}

	if h.mail != nil && h.mail.Configured() {
		sender, err := h.users.GetByID(userID)
		if err != nil || sender == nil {
			h.logger.Error("Failed to load inviter for email", "error", err)
		} else if err := h.mail.SendInvitation(inv.ToEmail, sender.Name, inv.InviteCode, inv.Token); err != nil {
			// The invitation stands; the code can still be shared by hand.
			h.logger.Error("Failed to send invitation email", "error", err, "invitation_id", inv.ID)
		}
	}

	writeJSON(w, http.StatusCreated, inv)
}

func (h *SocialHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var (
		inv *model.Invitation
		err error
	)
	switch {
	case req.Token != "":
		inv, err = h.invitations.GetByToken(req.Token)
	case req.Code != "":
		inv, err = h.invitations.GetByCode(req.Code)
	default:
		writeError(w, http.StatusBadRequest, "code or token is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.invitations.Accept(inv, userID, time.Now()); err != nil {
		writeStoreError(w, err, "failed to accept invitation")
		return
	}

	h.notify(inv.FromUserID, websocket.NewMessage("friend", "invitation_accepted", inv.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *SocialHandler) ListCheers(w http.ResponseWriter, r *http.Request) {
	cheers, err := h.cheers.ListForUser(auth.UserID(r.Context()), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cheers")
		return
	}
	if cheers == nil {
		cheers = []*model.Cheer{}
	}
	writeJSON(w, http.StatusOK, cheers)
}

func (h *SocialHandler) SendCheer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToUserID int64  `json:"to_user_id"`
		Message  string `json:"message"`
		Emoji    string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	friends, err := h.connections.AreFriends(userID, req.ToUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check connection")
		return
	}
	if !friends {
		writeError(w, http.StatusForbidden, "cheers can only be sent to friends")
		return
	}

	cheer, err := h.cheers.Create(userID, req.ToUserID, req.Message, req.Emoji)
	if err != nil {
		writeStoreError(w, err, "failed to send cheer")
		return
	}

	h.notify(req.ToUserID, websocket.NewMessage("cheer", "received", cheer.ID, nil))
	if h.notifier != nil {
		sender, err := h.users.GetByID(userID)
		name := "A friend"
		if err == nil && sender != nil && sender.Name != "" {
			name = sender.Name
		}
		h.notifier.NotifyUser(req.ToUserID, push.Payload{
			Title: fmt.Sprintf("%s sent you a cheer", name),
			Body:  cheer.Message,
			URL:   "/friends",
			Tag:   fmt.Sprintf("cheer-%d", cheer.ID),
		})
	}

	writeJSON(w, http.StatusCreated, cheer)
}

func (h *SocialHandler) MarkCheerRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.cheers.MarkRead(id, auth.UserID(r.Context())); err != nil {
		writeStoreError(w, err, "failed to mark cheer read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SocialHandler) MarkAllCheersRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.cheers.MarkAllRead(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark cheers read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

func (h *SocialHandler) UnreadCheerCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.cheers.UnreadCount(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count unread cheers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}
