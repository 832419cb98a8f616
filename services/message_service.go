package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/repository"
)

// MessageService, DM ve grup mesajı iş mantığı interface'i.
//
// Her yazma işlemi commit'ten SONRA change feed'e yayınlanır: aboneler
// yeniden saydığında yeni satırı görür.
type MessageService interface {
	SendDirect(ctx context.Context, senderID, receiverID string, req *models.SendMessageRequest) (*models.DirectMessage, error)
	MarkDirectRead(ctx context.Context, receiverID, senderID string) (int64, error)
	SendGroupMessage(ctx context.Context, senderID, groupID string, req *models.SendMessageRequest) (*models.GroupMessage, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	groupRepo   repository.GroupRepository
	publisher   feed.Publisher
}

// NewMessageService, constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	groupRepo repository.GroupRepository,
	publisher feed.Publisher,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		publisher:   publisher,
	}
}

func (s *messageService) SendDirect(ctx context.Context, senderID, receiverID string, req *models.SendMessageRequest) (*models.DirectMessage, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, fmt.Errorf("%w: receiver is required", pkg.ErrBadRequest)
	}
	if receiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send a direct message to yourself", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg := &models.DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messageRepo.CreateDirect(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.Publish(feed.Change{
		Table: feed.TableDirectMessages,
		Op:    feed.OpInsert,
		Row: map[string]string{
			"id":          msg.ID,
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
		},
		At: msg.CreatedAt,
	})
	return msg, nil
}

// MarkDirectRead, senderID'den gelen okunmamış DM'leri okundu yapar.
// Hiç satır değişmediyse feed'e yayın yapılmaz.
func (s *messageService) MarkDirectRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if strings.TrimSpace(senderID) == "" {
		return 0, fmt.Errorf("%w: sender is required", pkg.ErrBadRequest)
	}

	affected, err := s.messageRepo.MarkDirectRead(ctx, receiverID, senderID)
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.publisher.Publish(feed.Change{
			Table: feed.TableDirectMessages,
			Op:    feed.OpUpdate,
			Row: map[string]string{
				"sender_id":   senderID,
				"receiver_id": receiverID,
			},
		})
	}
	return affected, nil
}

func (s *messageService) SendGroupMessage(ctx context.Context, senderID, groupID string, req *models.SendMessageRequest) (*models.GroupMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this group", pkg.ErrForbidden)
	}

	msg := &models.GroupMessage{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.CreateGroupMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.Publish(feed.Change{
		Table: feed.TableGroupMessages,
		Op:    feed.OpInsert,
		Row: map[string]string{
			"id":        msg.ID,
			"group_id":  msg.GroupID,
			"sender_id": msg.SenderID,
		},
		At: msg.CreatedAt,
	})
	return msg, nil
}
