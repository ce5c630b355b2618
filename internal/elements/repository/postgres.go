package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"analytics-pipeline/ingestcore/internal/elements/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an element-chain repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FetchByHash returns the chain for (teamID, hash) ordered by chain_index.
// Relational storage does not guarantee order, so the index column is explicit.
func (r *PostgresRepository) FetchByHash(ctx context.Context, teamID int64, hash string) ([]domain.Element, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.tag_name, e.text, e.attr_class, e.attr_id, e.href, e.nth_child, e.nth_of_type, e.attributes
		FROM elements e
		JOIN element_groups g ON e.group_id = g.id
		WHERE g.team_id = $1 AND g.hash = $2
		ORDER BY e.chain_index ASC`,
		teamID, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chain := []domain.Element{}
	for rows.Next() {
		var (
			el         domain.Element
			text       sql.NullString
			attrClass  []byte
			attrID     sql.NullString
			href       sql.NullString
			nthChild   sql.NullInt64
			nthOfType  sql.NullInt64
			attributes []byte
		)
		if err := rows.Scan(&el.TagName, &text, &attrClass, &attrID, &href, &nthChild, &nthOfType, &attributes); err != nil {
			return nil, err
		}
		if text.Valid {
			el.Text = &text.String
		}
		if attrID.Valid {
			el.AttrID = &attrID.String
		}
		if href.Valid {
			el.Href = &href.String
		}
		if nthChild.Valid {
			n := int(nthChild.Int64)
			el.NthChild = &n
		}
		if nthOfType.Valid {
			n := int(nthOfType.Int64)
			el.NthOfType = &n
		}
		if len(attrClass) > 0 {
			if err := json.Unmarshal(attrClass, &el.AttrClass); err != nil {
				return nil, fmt.Errorf("decode attr_class: %w", err)
			}
		}
		el.Attributes = map[string]string{}
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &el.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes: %w", err)
			}
		}
		chain = append(chain, el)
	}
	return chain, rows.Err()
}

// CreateGroup inserts the group and its member rows in one transaction.
// The group insert is conditional on (team_id, hash); a conflict means the
// identical chain is already stored, and the member insert is skipped.
func (r *PostgresRepository) CreateGroup(ctx context.Context, teamID int64, hash string, chain []domain.Element) (created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var groupID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO element_groups (team_id, hash) VALUES ($1, $2)
		ON CONFLICT (team_id, hash) DO NOTHING
		RETURNING id`,
		teamID, hash).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		// Group already exists; content-addressing guarantees it is identical.
		err = tx.Rollback()
		return false, err
	}
	if err != nil {
		return false, err
	}

	for i, el := range chain {
		var attrClass, attributes any
		if el.AttrClass != nil {
			b, merr := json.Marshal(el.AttrClass)
			if merr != nil {
				err = fmt.Errorf("encode attr_class: %w", merr)
				return false, err
			}
			attrClass = b
		}
		attrs := el.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		b, merr := json.Marshal(attrs)
		if merr != nil {
			err = fmt.Errorf("encode attributes: %w", merr)
			return false, err
		}
		attributes = b

		_, err = tx.ExecContext(ctx, `
			INSERT INTO elements (group_id, chain_index, tag_name, text, attr_class, attr_id, href, nth_child, nth_of_type, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			groupID, i, el.TagName, nullString(el.Text), attrClass, nullString(el.AttrID),
			nullString(el.Href), nullInt(el.NthChild), nullInt(el.NthOfType), attributes)
		if err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
