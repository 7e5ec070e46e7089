// Package handler exposes the chat engine over HTTP, server-sent events and websockets.
package handler

import (
	"context"
	"randomchat/backend/internal/auth"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/models"

	"go.uber.org/zap"
)

// ChatService is the part of the engine the HTTP layer drives.
type ChatService interface {
	BeginOrResume(ctx context.Context, req chathub.BeginRequest) (chathub.BeginResult, error)
	Submit(ctx context.Context, id, token, text string) (chathub.SendResult, error)
	Stream(ctx context.Context, id, token string, emit func(models.Fragment) error) error
	Owns(id, token string) bool
}

// Handler holds the engine and the credential signer.
type Handler struct {
	Hub    ChatService
	Signer *auth.Signer
	Log    *zap.Logger
}

func NewHandler(hub ChatService, signer *auth.Signer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Hub: hub, Signer: signer, Log: log}
}

var _ ChatService = (*chathub.ManagerService)(nil)
