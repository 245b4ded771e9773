package repository

import (
	"context"
	"errors"

	"github.com/edufeedback/backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownOwner is returned when feedback references a user that does not exist.
var ErrUnknownOwner = errors.New("feedback owner does not exist")

// FeedbackRepository handles feedback data access.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create inserts f and fills in its ID, timestamp and status from the database.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO feedback (user_id, category, rating, comments)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, status`,
		f.UserID, f.Category, f.Rating, f.Comments,
	).Scan(&f.ID, &f.CreatedAt, &f.Status)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownOwner
		}
		return err
	}
	return nil
}

// ListByUser returns a user's feedback, most recent first.
func (r *FeedbackRepository) ListByUser(ctx context.Context, userID int) ([]model.Feedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, category, rating, comments, created_at, status
		 FROM feedback
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Category, &f.Rating, &f.Comments, &f.CreatedAt, &f.Status); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// ListAllWithSubmitter returns every feedback row with its owner's name, most recent first.
func (r *FeedbackRepository) ListAllWithSubmitter(ctx context.Context) ([]model.FeedbackWithSubmitter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.user_id, f.category, f.rating, f.comments, f.created_at, f.status, u.name
		 FROM feedback f
		 JOIN users u ON f.user_id = u.id
		 ORDER BY f.created_at DESC, f.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.FeedbackWithSubmitter{}
	for rows.Next() {
		var f model.FeedbackWithSubmitter
		if err := rows.Scan(&f.ID, &f.UserID, &f.Category, &f.Rating, &f.Comments, &f.CreatedAt, &f.Status, &f.StudentName); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// Delete removes a feedback row. Deleting a missing row is not an error.
func (r *FeedbackRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	return err
}
