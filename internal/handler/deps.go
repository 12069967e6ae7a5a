package handler

import (
	"studyhive/internal/app/chat"
	"studyhive/internal/app/live"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/review"
	"studyhive/internal/app/seed"
	"studyhive/internal/app/storage"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/configs"
	"studyhive/internal/pkg/pow"
)

type AppDeps struct {
	Config         *configs.AppConfig
	Users          *user.Service
	StudyJams      *studyjam.Service
	Notifications  *notification.Service
	Chats          *chat.Service
	Reviews        *review.Service
	StorageService storage.StorageService
	Hub            *live.Hub
	Pow            *pow.Manager
	Seeder         *seed.Seeder
}
