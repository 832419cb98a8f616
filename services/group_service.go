package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/unread/database"
	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/repository"
)

// GroupService, grup ve üyelik iş mantığı interface'i.
//
// Üyelik değişiklikleri group_members tablosuna yayınlanır: kullanıcının
// açık unread session'ı grup aboneliklerini buna göre yeniden eşler.
type GroupService interface {
	Create(ctx context.Context, userID string, req *models.CreateGroupRequest) (*models.Group, error)
	Join(ctx context.Context, userID, groupID string) error
	Leave(ctx context.Context, userID, groupID string) error
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
}

type groupService struct {
	db        *sql.DB
	groupRepo repository.GroupRepository
	publisher feed.Publisher
}

// NewGroupService, constructor. db, grup + kurucu üyeliğini tek transaction'da
// yazmak için gereklidir.
func NewGroupService(db *sql.DB, groupRepo repository.GroupRepository, publisher feed.Publisher) GroupService {
	return &groupService{
		db:        db,
		groupRepo: groupRepo,
		publisher: publisher,
	}
}

// Create, grubu oluşturur ve kurucuyu üye yapar (tek transaction).
func (s *groupService) Create(ctx context.Context, userID string, req *models.CreateGroupRequest) (*models.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	now := time.Now().UTC()
	group := &models.Group{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: now,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewSQLiteGroupRepo(tx)
		if err := repo.Create(ctx, group); err != nil {
			return err
		}
		return repo.AddMember(ctx, group.ID, userID, now)
	})
	if err != nil {
		return nil, err
	}

	s.publishMembership(feed.OpInsert, group.ID, userID)
	return group, nil
}

func (s *groupService) Join(ctx context.Context, userID, groupID string) error {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return err
	}
	if err := s.groupRepo.AddMember(ctx, groupID, userID, time.Now().UTC()); err != nil {
		return err
	}

	s.publishMembership(feed.OpInsert, groupID, userID)
	return nil
}

func (s *groupService) Leave(ctx context.Context, userID, groupID string) error {
	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.publishMembership(feed.OpDelete, groupID, userID)
	return nil
}

func (s *groupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return s.groupRepo.ListUserGroups(ctx, userID)
}

func (s *groupService) publishMembership(op feed.Op, groupID, userID string) {
	s.publisher.Publish(feed.Change{
		Table: feed.TableGroupMembers,
		Op:    op,
		Row: map[string]string{
			"group_id": groupID,
			"user_id":  userID,
		},
	})
}
