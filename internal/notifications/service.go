package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
)

// Service defines the seller-facing notification operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, sellerID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, sellerID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// ListParams configures pagination for the notification feed.
type ListParams struct {
	SellerID   uuid.UUID
	UnreadOnly bool
	Pagination pagination.Params
}

type notificationRepository interface {
	List(ctx context.Context, params listParams) ([]models.Notification, string, error)
	UnreadCount(ctx context.Context, sellerID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, sellerID uuid.UUID, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, sellerID uuid.UUID, now time.Time) (int64, error)
}

type service struct {
	repo notificationRepository
}

// NewService wires the notification service dependencies.
func NewService(repo notificationRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	rows, nextCursor, err := s.repo.List(ctx, listParams{
		SellerID:   params.SellerID,
		UnreadOnly: params.UnreadOnly,
		Pagination: params.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	dtos := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, fromModel(row))
	}
	return &ListResult{Notifications: dtos, NextCursor: nextCursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	count, err := s.repo.UnreadCount(ctx, sellerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, sellerID, notificationID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, notificationID, sellerID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if !result.OwnedByMe {
		return pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another seller")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	count, err := s.repo.MarkAllRead(ctx, sellerID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
