package providerrepo

import (
	"context"

	"bikerental/model"
	"bikerental/util/database"
)

type Repo interface {
	Create(ctx context.Context, p *model.Provider) error
	ByID(ctx context.Context, id string) (*model.Provider, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, p *model.Provider) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO providers (id, kind, full_name, email, company_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Kind, p.FullName, p.Email, p.CompanyName, p.CreatedAt.UTC(),
	)
	return err
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Provider, error) {
	p := &model.Provider{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, full_name, email, company_name, created_at
		FROM providers
		WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Kind, &p.FullName, &p.Email, &p.CompanyName, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
