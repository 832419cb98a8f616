package repository

import (
	"context"
	"time"

	"github.com/akinalp/unread/models"
)

// GroupRepository, grup ve üyelik veritabanı işlemleri.
//
// ListUserGroupIDs unread aggregator tarafından kullanılır: hem fallback
// sayımında hem de session'ın grup aboneliklerini kurarken/yeniden eşlerken.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)

	AddMember(ctx context.Context, groupID, userID string, joinedAt time.Time) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)
	ListUserGroups(ctx context.Context, userID string) ([]models.Group, error)
}
