package group

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository handles group and membership data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group and its owner membership in one transaction
func (r *Repository) Create(ctx context.Context, name, currency string, ownerUserID uuid.UUID) (*Group, *Membership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group := &Group{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (name, currency)
		VALUES ($1, $2)
		RETURNING id, name, currency, created_at
	`, name, currency).Scan(&group.ID, &group.Name, &group.Currency, &group.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create group: %w", err)
	}

	owner := &Membership{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO memberships (group_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, user_id, role, created_at
	`, group.ID, ownerUserID, RoleOwner).Scan(
		&owner.ID, &owner.GroupID, &owner.UserID, &owner.Role, &owner.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit group creation: %w", err)
	}

	return group, owner, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	query := `
		SELECT id, name, currency, created_at
		FROM groups
		WHERE id = $1
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Currency,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// AddMember inserts a membership for a user
func (r *Repository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role MembershipRole) (*Membership, error) {
	query := `
		INSERT INTO memberships (group_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, user_id, role, created_at
	`

	membership := &Membership{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, role).Scan(
		&membership.ID,
		&membership.GroupID,
		&membership.UserID,
		&membership.Role,
		&membership.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return membership, nil
}

// ListMemberships retrieves all memberships of a group
func (r *Repository) ListMemberships(ctx context.Context, groupID uuid.UUID) ([]*Membership, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.role, m.created_at, u.display_name
		FROM memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.group_id = $1
		ORDER BY m.created_at, m.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.CreatedAt, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

// GetMembershipForUser retrieves the membership of a user in a group
func (r *Repository) GetMembershipForUser(ctx context.Context, groupID, userID uuid.UUID) (*Membership, error) {
	query := `
		SELECT id, group_id, user_id, role, created_at
		FROM memberships
		WHERE group_id = $1 AND user_id = $2
	`

	membership := &Membership{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&membership.ID,
		&membership.GroupID,
		&membership.UserID,
		&membership.Role,
		&membership.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return membership, nil
}
