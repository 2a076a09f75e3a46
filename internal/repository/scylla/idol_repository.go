package scylla

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/model"
	"idol-platform/internal/util"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdolRepository stores idol records, with a handle lookup table enforcing
// xHandle uniqueness at the application level.
type IdolRepository interface {
	CreateIdol(ctx context.Context, idol *model.Idol) error
	GetIdolByID(ctx context.Context, idolID uuid.UUID) (*model.Idol, error)
	XHandleTaken(ctx context.Context, xHandle string) (bool, error)
	ListIdols(ctx context.Context) ([]*model.Idol, error)
	DeleteIdol(ctx context.Context, idolID uuid.UUID) error
}

type idolRepository struct {
	client *Client
}

func NewIdolRepository(client *Client) IdolRepository {
	return &idolRepository{client: client}
}

func (r *idolRepository) CreateIdol(ctx context.Context, idol *model.Idol) error {
	if idol.IdolID == uuid.Nil {
		idol.IdolID = uuid.New()
	}

	now := time.Now().UTC()
	idol.CreatedAt = now
	idol.UpdatedAt = now

	batch := r.client.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(r.client.Prepared.CreateIdol.Statement(),
		idol.IdolID, idol.XHandle, idol.Name, idol.CharacterDescription,
		idol.Setting, idol.IdolType, idol.IdolImage, idol.LaunchTiming,
		idol.CreatedAt, idol.UpdatedAt)

	batch.Query(r.client.Prepared.CreateIdolHandleRef.Statement(),
		idol.XHandle, idol.IdolID, now)

	if err := r.client.ExecuteBatch(batch); err != nil {
		util.Error("Failed to create idol",
			zap.String("x_handle", idol.XHandle),
			zap.Error(err))
		return fmt.Errorf("failed to create idol: %w", err)
	}

	util.Info("Idol created",
		zap.String("idol_id", idol.IdolID.String()),
		zap.String("x_handle", idol.XHandle))

	return nil
}

func (r *idolRepository) GetIdolByID(ctx context.Context, idolID uuid.UUID) (*model.Idol, error) {
	idol := &model.Idol{}

	err := r.client.Prepared.GetIdol.WithContext(ctx).Bind(idolID).Scan(
		&idol.IdolID, &idol.XHandle, &idol.Name, &idol.CharacterDescription,
		&idol.Setting, &idol.IdolType, &idol.IdolImage, &idol.LaunchTiming,
		&idol.CreatedAt, &idol.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idol: %w", err)
	}

	return idol, nil
}

func (r *idolRepository) XHandleTaken(ctx context.Context, xHandle string) (bool, error) {
	var idolID uuid.UUID

	err := r.client.Prepared.GetIdolRefByXHandle.WithContext(ctx).Bind(xHandle).Scan(&idolID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("handle lookup failed: %w", err)
	}
	return true, nil
}

func (r *idolRepository) ListIdols(ctx context.Context) ([]*model.Idol, error) {
	iter := r.client.Session.Query(`
        SELECT idol_id, x_handle, name, character_description, setting,
            idol_type, idol_image, launch_timing, created_at, updated_at
        FROM idols`).WithContext(ctx).Iter()

	var idols []*model.Idol
	for {
		idol := &model.Idol{}
		if !iter.Scan(
			&idol.IdolID, &idol.XHandle, &idol.Name, &idol.CharacterDescription,
			&idol.Setting, &idol.IdolType, &idol.IdolImage, &idol.LaunchTiming,
			&idol.CreatedAt, &idol.UpdatedAt) {
			break
		}
		idols = append(idols, idol)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list idols: %w", err)
	}
	return idols, nil
}

func (r *idolRepository) DeleteIdol(ctx context.Context, idolID uuid.UUID) error {
	idol, err := r.GetIdolByID(ctx, idolID)
	if err != nil {
		return err
	}
	if idol == nil {
		return nil
	}

	batch := r.client.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(r.client.Prepared.DeleteIdol.Statement(), idolID)
	batch.Query(r.client.Prepared.DeleteIdolHandleRef.Statement(), idol.XHandle)

	if err := r.client.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to delete idol: %w", err)
	}

	util.Info("Idol deleted", zap.String("idol_id", idolID.String()))
	return nil
}
