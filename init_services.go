// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Yazma yapan service'ler change feed'e (feed.Publisher) yayın yapar.
package main

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/akinalp/unread/config"
	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/services"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Token     services.TokenService
	Message   services.MessageService
	Group     services.GroupService
	ReadState services.ReadStateService
	Unread    services.UnreadService
}

func initServices(
	cfg *config.Config,
	conn *sql.DB,
	repos *Repositories,
	publisher feed.Publisher,
	stack *UnreadStack,
	log *zap.Logger,
) *Services {
	return &Services{
		Token:     services.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry),
		Message:   services.NewMessageService(repos.Message, repos.Group, publisher),
		Group:     services.NewGroupService(conn, repos.Group, publisher),
		ReadState: services.NewReadStateService(repos.Group, repos.ReadMarker, publisher),
		Unread:    services.NewUnreadService(stack.Manager, stack.Counter, stack.Limiter, log.Named("unread")),
	}
}
