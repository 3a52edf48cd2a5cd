package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/mongodb"
)

type RoomUsecase interface {
	// Create makes a new room with a globally unique name. The creator is
	// recorded as the first member.
	Create(ctx context.Context, creatorID primitive.ObjectID, name, description string) (*models.Room, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
}

type roomUsecase struct {
	roomRepo mongodb.RoomRepository
}

func NewRoomUsecase(roomRepo mongodb.RoomRepository) RoomUsecase {
	return &roomUsecase{roomRepo: roomRepo}
}

func (uc *roomUsecase) Create(ctx context.Context, creatorID primitive.ObjectID, name, description string) (*models.Room, error) {
	if _, err := uc.roomRepo.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("room name already taken: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check room name: %w", err)
	}

	room := &models.Room{
		Name:        name,
		Description: description,
		Users:       []primitive.ObjectID{creatorID},
	}
	if err := uc.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (uc *roomUsecase) Get(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	return uc.roomRepo.GetByID(ctx, id)
}

func (uc *roomUsecase) List(ctx context.Context) ([]*models.Room, error) {
	return uc.roomRepo.List(ctx)
}
