package friendship

import (
	"context"
	"errors"

	"chatapp/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the relational Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db. The friendships table must carry the
// unique pair index from models.Friendship.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Account(ctx context.Context, id uint) (Account, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "username").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrUnknownAccount
	}
	if err != nil {
		return Account{}, err
	}
	return Account{ID: user.ID, Username: user.Username}, nil
}

func (s *GormStore) InsertPending(ctx context.Context, requesterID, receiverID uint) (Edge, bool, error) {
	low, high := models.OrderedPair(requesterID, receiverID)
	row := models.Friendship{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		UserLowID:   low,
		UserHighID:  high,
		Status:      models.StatusPending,
	}

	// The pair index turns a duplicate into a no-op instead of a second row,
	// so two racing requests cannot both succeed.
	result := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return Edge{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return Edge{}, false, nil
	}
	return toEdge(row), true, nil
}

func (s *GormStore) AcceptPending(ctx context.Context, requesterID, receiverID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("requester_id = ? AND receiver_id = ? AND status = ?", requesterID, receiverID, models.StatusPending).
		Update("status", models.StatusAccepted)
	return result.RowsAffected, result.Error
}

func (s *GormStore) DeletePending(ctx context.Context, requesterID, receiverID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("requester_id = ? AND receiver_id = ? AND status = ?", requesterID, receiverID, models.StatusPending).
		Delete(&models.Friendship{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) DeleteAccepted(ctx context.Context, a, b uint) (int64, error) {
	low, high := models.OrderedPair(a, b)
	result := s.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ? AND status = ?", low, high, models.StatusAccepted).
		Delete(&models.Friendship{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) Find(ctx context.Context, a, b uint) (*Edge, error) {
	low, high := models.OrderedPair(a, b)
	var row models.Friendship
	err := s.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	edge := toEdge(row)
	return &edge, nil
}

func (s *GormStore) ListFriends(ctx context.Context, id uint) ([]Account, error) {
	return s.listAccounts(ctx,
		"JOIN friendships ON (friendships.requester_id = ? AND friendships.receiver_id = users.id) OR (friendships.receiver_id = ? AND friendships.requester_id = users.id)",
		[]interface{}{id, id}, models.StatusAccepted)
}

func (s *GormStore) ListIncoming(ctx context.Context, id uint) ([]Account, error) {
	return s.listAccounts(ctx,
		"JOIN friendships ON friendships.requester_id = users.id AND friendships.receiver_id = ?",
		[]interface{}{id}, models.StatusPending)
}

func (s *GormStore) ListOutgoing(ctx context.Context, id uint) ([]Account, error) {
	return s.listAccounts(ctx,
		"JOIN friendships ON friendships.receiver_id = users.id AND friendships.requester_id = ?",
		[]interface{}{id}, models.StatusPending)
}

func (s *GormStore) listAccounts(ctx context.Context, join string, args []interface{}, status models.FriendshipStatus) ([]Account, error) {
	accounts := []Account{}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.username").
		Joins(join, args...).
		Where("friendships.status = ?", status).
		Order("users.username").
		Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func toEdge(row models.Friendship) Edge {
	return Edge{
		ID:          row.ID,
		RequesterID: row.RequesterID,
		ReceiverID:  row.ReceiverID,
		Status:      row.Status,
	}
}
