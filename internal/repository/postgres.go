package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pingup/backend/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	pairConstraint = "connection_requests_pair_idx"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements the relationship store, the connection request
// repository and the message log on PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates tables and indexes if they are missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// EnsureUser registers a user id issued by the identity provider
func (r *PostgresRepository) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	query := `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// UserExists checks if a user is known
func (r *PostgresRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return userExists(ctx, r.db, userID)
}

func userExists(ctx context.Context, q querier, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err := q.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

// AddFollow inserts a follow edge; it reports false when the edge already exists
func (r *PostgresRepository) AddFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if followerID == followeeID {
		return false, domain.ErrSelfReference
	}

	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveFollow deletes a follow edge if present
func (r *PostgresRepository) RemoveFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	tag, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AddConnection links two users in both directions
func (r *PostgresRepository) AddConnection(ctx context.Context, aID, bID uuid.UUID) error {
	if aID == bID {
		return domain.ErrSelfReference
	}
	_, err := r.db.Exec(ctx, insertConnectionsQuery, aID, bID, time.Now())
	return mapPgError(err)
}

const insertConnectionsQuery = `
	INSERT INTO connections (user_id, peer_id, created_at)
	VALUES ($1, $2, $3), ($2, $1, $3)
	ON CONFLICT (user_id, peer_id) DO NOTHING
`

// GetRelationships reads the three relationship sets of a user
func (r *PostgresRepository) GetRelationships(ctx context.Context, userID uuid.UUID) (*domain.Relationships, error) {
	return getRelationships(ctx, r.db, userID)
}

// GetRelationshipsView reads the sets and the pending senders inside one
// repeatable-read transaction, so they come from the same snapshot
func (r *PostgresRepository) GetRelationshipsView(ctx context.Context, userID uuid.UUID) (*domain.RelationshipsView, error) {
	var view *domain.RelationshipsView

	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.db, txOpts, func(tx pgx.Tx) error {
		rels, err := getRelationships(ctx, tx, userID)
		if err != nil {
			return err
		}
		pending, err := listPendingIncoming(ctx, tx, userID)
		if err != nil {
			return err
		}

		senders := make([]uuid.UUID, 0, len(pending))
		for _, req := range pending {
			senders = append(senders, req.FromUserID)
		}
		view = &domain.RelationshipsView{
			Relationships:   *rels,
			PendingIncoming: senders,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func getRelationships(ctx context.Context, q querier, userID uuid.UUID) (*domain.Relationships, error) {
	exists, err := userExists(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	rels := &domain.Relationships{UserID: userID}
	sets := []struct {
		query string
		dst   *[]uuid.UUID
	}{
		{`SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY followee_id`, &rels.Following},
		{`SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY follower_id`, &rels.Followers},
		{`SELECT peer_id FROM connections WHERE user_id = $1 ORDER BY peer_id`, &rels.Connections},
	}
	for _, set := range sets {
		ids, err := collectIDs(ctx, q, set.query, userID)
		if err != nil {
			return nil, err
		}
		*set.dst = ids
	}
	return rels, nil
}

// CountRequestsSince counts requests sent after since
func (r *PostgresRepository) CountRequestsSince(ctx context.Context, fromUserID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM connection_requests WHERE from_user_id = $1 AND created_at > $2`
	var count int
	err := r.db.QueryRow(ctx, query, fromUserID, since).Scan(&count)
	return count, err
}

// FindRequestBetween finds the request for a pair in either direction
func (r *PostgresRepository) FindRequestBetween(ctx context.Context, aID, bID uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE (from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1)
	`
	return scanConnectionRequest(r.db.QueryRow(ctx, query, aID, bID))
}

// FindRequest finds a request sent by fromUserID to toUserID
func (r *PostgresRepository) FindRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE from_user_id = $1 AND to_user_id = $2
	`
	return scanConnectionRequest(r.db.QueryRow(ctx, query, fromUserID, toUserID))
}

// CreateRequest stores a new pending request
func (r *PostgresRepository) CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID, createdAt time.Time) (*domain.ConnectionRequest, error) {
	query := `
		INSERT INTO connection_requests (id, from_user_id, to_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
	`
	row := r.db.QueryRow(ctx, query,
		uuid.New(),
		fromUserID,
		toUserID,
		string(domain.ConnectionStatusPending),
		createdAt,
	)
	req, err := scanConnectionRequest(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return req, nil
}

// AcceptRequest flips the status and writes both connection rows in one transaction
func (r *PostgresRepository) AcceptRequest(ctx context.Context, requestID uuid.UUID, acceptedAt time.Time) (*domain.ConnectionRequest, error) {
	var accepted *domain.ConnectionRequest

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE connection_requests SET status = $2, updated_at = $3
			WHERE id = $1 AND status = $4
			RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
		`
		row := tx.QueryRow(ctx, query,
			requestID,
			string(domain.ConnectionStatusAccepted),
			acceptedAt,
			string(domain.ConnectionStatusPending),
		)
		req, err := scanConnectionRequest(row)
		if errors.Is(err, domain.ErrRequestNotFound) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM connection_requests WHERE id = $1)`, requestID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return domain.ErrAlreadyAccepted
			}
			return domain.ErrRequestNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, insertConnectionsQuery, req.ToUserID, req.FromUserID, acceptedAt); err != nil {
			return mapPgError(err)
		}
		accepted = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// ListPendingIncoming lists pending requests addressed to userID, newest first
func (r *PostgresRepository) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	return listPendingIncoming(ctx, r.db, userID)
}

func listPendingIncoming(ctx context.Context, q querier, userID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE to_user_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
	`
	rows, err := q.Query(ctx, query, userID, string(domain.ConnectionStatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*domain.ConnectionRequest
	for rows.Next() {
		req, err := scanConnectionRequest(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, req)
	}
	return pending, rows.Err()
}

// ListInbound reads the newest inbound messages of a user
func (r *PostgresRepository) ListInbound(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, from_user_id, to_user_id, text, media_url, seen, created_at
		FROM messages
		WHERE to_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func collectIDs(ctx context.Context, q querier, query string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// Helper functions for scanning rows

func scanConnectionRequest(row pgx.Row) (*domain.ConnectionRequest, error) {
	var req domain.ConnectionRequest
	var status string
	err := row.Scan(
		&req.ID,
		&req.FromUserID,
		&req.ToUserID,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	req.Status = domain.ConnectionStatus(status)
	return &req, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	var from uuid.NullUUID
	err := row.Scan(
		&msg.ID,
		&from,
		&msg.ToUserID,
		&msg.Text,
		&msg.MediaURL,
		&msg.Seen,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if from.Valid {
		msg.FromUserID = from.UUID
	}
	return &msg, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == pairConstraint:
		return domain.ErrRequestExists
	case pgErr.Code == pgForeignKeyViolation:
		return domain.ErrUserNotFound
	case pgErr.Code == pgCheckViolation:
		return domain.ErrSelfReference
	}
	return err
}
