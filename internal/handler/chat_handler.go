package handler

import (
	"errors"
	"net/http"
	"strings"

	"studyhive/internal/app/chat"
	"studyhive/internal/app/storage"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

// HandleGetChats lists the caller's chats, or resolves a single chat when one
// of chatId, studyJamId or userId is given. Group and direct chats are created
// on first use.
func HandleGetChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := CurrentUser(r)
		q := r.URL.Query()

		var (
			c    *chat.Chat
			cErr *errs.CustomError
		)
		switch {
		case q.Get("chatId") != "":
			c, cErr = deps.Chats.Get(r.Context(), current.ID, q.Get("chatId"))
		case q.Get("studyJamId") != "":
			c, cErr = deps.Chats.GroupChat(r.Context(), current.ID, q.Get("studyJamId"))
		case q.Get("userId") != "":
			c, cErr = deps.Chats.DirectChat(r.Context(), current.ID, q.Get("userId"))
		default:
			chats, cErr := deps.Chats.ListForUser(r.Context(), current.ID)
			if cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
			resp.RespondSuccess(w, r, chats)
			return
		}
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, c)
	}
}

type OpenChatInput struct {
	StudyJamID string `json:"studyJamId"`
	UserID     string `json:"userId"`
}

// HandleOpenChat gets or creates a group chat (studyJamId) or direct chat (userId).
func HandleOpenChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input OpenChatInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		current := CurrentUser(r)
		var (
			c    *chat.Chat
			cErr *errs.CustomError
		)
		switch {
		case input.StudyJamID != "":
			c, cErr = deps.Chats.GroupChat(r.Context(), current.ID, input.StudyJamID)
		case input.UserID != "":
			c, cErr = deps.Chats.DirectChat(r.Context(), current.ID, input.UserID)
		default:
			cErr = errs.NewError(errs.ErrMissingFields)
		}
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, c)
	}
}

// HandleGetMessages returns a chat's history and marks it read.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := r.URL.Query().Get("chatId")
		if chatID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		msgs, cErr := deps.Chats.Messages(r.Context(), CurrentUser(r).ID, chatID)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, msgs)
	}
}

type SendMessageInput struct {
	ChatID string `json:"chatId"`
	chat.SendInput
}

// HandleSendMessage posts a message. Attachments must already be uploaded;
// their stored size and type are checked against the bucket.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ChatID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		if input.Type == chat.TypeFile || input.Type == chat.TypeImage {
			if cErr := checkAttachment(r, deps, input.ChatID, &input.SendInput); cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
		}

		msg, cErr := deps.Chats.Send(r.Context(), CurrentUser(r).ID, input.ChatID, input.SendInput)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondCreated(w, r, msg)
	}
}

func checkAttachment(r *http.Request, deps *AppDeps, chatID string, in *chat.SendInput) *errs.CustomError {
	if in.FileKey == "" {
		return errs.NewError(errs.ErrMissingFields)
	}
	if !strings.HasPrefix(in.FileKey, chat.ChatKeyPrefix(chatID)) {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	info, err := deps.StorageService.Stat(r.Context(), in.FileKey)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		return errs.NewError(errs.ErrFileStorageDisabled)
	case errors.Is(err, storage.ErrObjectNotFound):
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	case err != nil:
		return errs.NewError(errs.ErrFileStorageFailed)
	}

	if in.Type == chat.TypeImage && !chat.IsImage(info.ContentType) {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}
	in.FileSize = info.Size
	return nil
}
