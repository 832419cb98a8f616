package services

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/repository"
)

// ReadStateService, grup okuma işaretçisi iş mantığı interface'i.
//
// İşaretçi sunucu tarafında tutulur: tüm cihazlar aynı değeri görür.
// MarkGroupRead işaretçiyi "şimdi"ye çeker: bu andan önceki mesajlar okunmuş sayılır.
type ReadStateService interface {
	MarkGroupRead(ctx context.Context, userID, groupID string) (*models.ReadMarker, error)
	GetMarker(ctx context.Context, userID, groupID string) (*models.ReadMarker, error)
}

type readStateService struct {
	groupRepo  repository.GroupRepository
	markerRepo repository.ReadMarkerRepository
	publisher  feed.Publisher
}

func NewReadStateService(
	groupRepo repository.GroupRepository,
	markerRepo repository.ReadMarkerRepository,
	publisher feed.Publisher,
) ReadStateService {
	return &readStateService{
		groupRepo:  groupRepo,
		markerRepo: markerRepo,
		publisher:  publisher,
	}
}

func (s *readStateService) MarkGroupRead(ctx context.Context, userID, groupID string) (*models.ReadMarker, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.markerRepo.Upsert(ctx, groupID, userID, now); err != nil {
		return nil, err
	}

	s.publisher.Publish(feed.Change{
		Table: feed.TableGroupReads,
		Op:    feed.OpUpdate,
		Row: map[string]string{
			"group_id": groupID,
			"user_id":  userID,
		},
		At: now,
	})

	// Upsert MAX ile yazdığı için geçerli değeri geri oku
	return s.GetMarker(ctx, userID, groupID)
}

func (s *readStateService) GetMarker(ctx context.Context, userID, groupID string) (*models.ReadMarker, error) {
	at, ok, err := s.markerRepo.Get(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: read marker", pkg.ErrNotFound)
	}
	return &models.ReadMarker{GroupID: groupID, UserID: userID, LastReadAt: at}, nil
}

func (s *readStateService) requireMember(ctx context.Context, userID, groupID string) error {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return err
	}
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: not a member of this group", pkg.ErrForbidden)
	}
	return nil
}
