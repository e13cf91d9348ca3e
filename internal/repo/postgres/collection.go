package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CollectionRepo stores one model in its own table. Attributes live in a
// jsonb column so the table shape is the same for every model.
type CollectionRepo struct {
	db    DBTX
	obs   DBObserver
	model string
	table string // quoted identifier
}

func NewCollectionRepo(db DBTX, model string, obs DBObserver) *CollectionRepo {
	return &CollectionRepo{
		db:    db,
		obs:   observerOrNoop(obs),
		model: model,
		table: pgx.Identifier{model}.Sanitize(),
	}
}

// EnsureTable creates the backing table when it does not exist yet.
func (r *CollectionRepo) EnsureTable(ctx context.Context) error {
	return r.obs.ObserveDB(r.op("ensure_table"), func() error {
		_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+r.table+` (
			id uuid PRIMARY KEY,
			data jsonb NOT NULL DEFAULT '{}'::jsonb,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`)
		return err
	})
}

func (r *CollectionRepo) Create(ctx context.Context, attrs item.Attributes) (item.Item, error) {
	data, err := encodeAttrs(attrs)
	if err != nil {
		return item.Item{}, err
	}

	now := time.Now().UTC()
	it := item.Item{
		ID:         uuid.NewString(),
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = r.obs.ObserveDB(r.op("create"), func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO `+r.table+` (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			it.ID, data, it.CreatedAt, it.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return item.Item{}, err
	}

	return it, nil
}

func (r *CollectionRepo) List(ctx context.Context) ([]item.Item, error) {
	out := make([]item.Item, 0)

	err := r.obs.ObserveDB(r.op("list"), func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id::text, data, created_at, updated_at FROM `+r.table+` ORDER BY created_at ASC, id ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return err
			}
			out = append(out, it)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CollectionRepo) GetByID(ctx context.Context, id string) (item.Item, error) {
	if !validID(id) {
		return item.Item{}, item.ErrNotFound
	}

	var it item.Item
	err := r.obs.ObserveDB(r.op("get"), func() error {
		var err error
		it, err = scanItem(r.db.QueryRow(ctx,
			`SELECT id::text, data, created_at, updated_at FROM `+r.table+` WHERE id = $1`, id,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}
		return item.Item{}, err
	}

	return it, nil
}

func (r *CollectionRepo) Update(ctx context.Context, id string, attrs item.Attributes) (item.Item, error) {
	if !validID(id) {
		return item.Item{}, item.ErrNotFound
	}

	data, err := encodeAttrs(attrs)
	if err != nil {
		return item.Item{}, err
	}

	var it item.Item
	err = r.obs.ObserveDB(r.op("update"), func() error {
		var err error
		it, err = scanItem(r.db.QueryRow(ctx,
			`UPDATE `+r.table+`
			SET data = $2,
				updated_at = NOW()
			WHERE id = $1
			RETURNING id::text, data, created_at, updated_at`,
			id, data,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}
		return item.Item{}, err
	}

	return it, nil
}

// Delete is idempotent: removing a missing row is not an error.
func (r *CollectionRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}

	return r.obs.ObserveDB(r.op("delete"), func() error {
		_, err := r.db.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
		return err
	})
}

func (r *CollectionRepo) op(name string) string {
	return r.model + "." + name
}

// ids are uuids; anything else can never match a row
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func encodeAttrs(attrs item.Attributes) ([]byte, error) {
	if attrs == nil {
		attrs = item.Attributes{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	return data, nil
}

func scanItem(row pgx.Row) (item.Item, error) {
	var (
		it   item.Item
		data []byte
	)

	if err := row.Scan(&it.ID, &data, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return item.Item{}, err
	}

	it.Attributes = item.Attributes{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &it.Attributes); err != nil {
			return item.Item{}, fmt.Errorf("decode attributes: %w", err)
		}
	}

	return it, nil
}
