package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/dareg/internal/db"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
)

// Grants lists the grants held by an actor, ordered by model then id.
func (s *Store) Grants(ctx context.Context, actorID string) ([]permission.Grant, error) {
	q := s.query(`SELECT model, object_id, role FROM grants WHERE actor = $1 ORDER BY model, object_id`)
	rows, err := s.db.QueryContext(ctx, q, actorID)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []permission.Grant
	for rows.Next() {
		g := permission.Grant{Actor: actorID}
		var role string
		if err := rows.Scan(&g.Model, &g.ObjectID, &role); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		if g.Role, err = permission.ParseRole(role); err != nil {
			return nil, fmt.Errorf("grant %s %s/%s: %w", actorID, g.Model, g.ObjectID, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// Replace overwrites all grants of an actor.
func (s *Store) Replace(ctx context.Context, actorID string, grants []permission.Grant) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.query(`DELETE FROM grants WHERE actor = $1`), actorID); err != nil {
			return &db.Error{Op: "DELETE", Err: err}
		}
		ins := s.query(`INSERT INTO grants (actor, model, object_id, role) VALUES ($1, $2, $3, $4)`)
		for _, g := range grants {
			if g.Role == permission.None {
				continue
			}
			if _, err := tx.ExecContext(ctx, ins, actorID, g.Model, g.ObjectID, g.Role.String()); err != nil {
				return &db.Error{Op: db.OpInsert, Err: err}
			}
		}
		return nil
	})
}
