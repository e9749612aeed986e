package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// AddPerson inserts p and returns it with its assigned ID.
func (r *Repository) AddPerson(ctx context.Context, p types.Person) (types.Person, error) {
	if p.Name == "" {
		return types.Person{}, types.ErrInvalidName
	}
	_, res, err := r.write(ctx, sq.Insert("people").Columns("name").Values(p.Name))
	if err != nil {
		return types.Person{}, fmt.Errorf("adding person %q: %w", p.Name, err)
	}
	if p.ID, err = lastInsertID(res); err != nil {
		return types.Person{}, err
	}
	return p, nil
}

// GetPerson returns the person with id.
func (r *Repository) GetPerson(ctx context.Context, id int64) (types.Person, error) {
	return selectOne(ctx, r, sq.Select(personColumns...).From("people").Where(sq.Eq{"id": id}), scanPerson)
}

// GetPersonByName returns the person with the exact name.
func (r *Repository) GetPersonByName(ctx context.Context, name string) (types.Person, error) {
	return selectOne(ctx, r, sq.Select(personColumns...).From("people").Where(sq.Eq{"name": name}), scanPerson)
}

// UpdatePerson renames p.
func (r *Repository) UpdatePerson(ctx context.Context, p types.Person) error {
	if p.Name == "" {
		return types.ErrInvalidName
	}
	n, _, err := r.write(ctx, sq.Update("people").Set("name", p.Name).Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("updating person %d: %w", p.ID, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeletePerson removes the person and their trip participation.
func (r *Repository) DeletePerson(ctx context.Context, id int64) error {
	n, _, err := r.write(ctx, sq.Delete("people").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("deleting person %d: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ListPeople returns everyone, ordered by name.
func (r *Repository) ListPeople(ctx context.Context) ([]types.Person, error) {
	return selectAll(ctx, r, sq.Select(personColumns...).From("people").OrderBy("name"), scanPerson)
}
