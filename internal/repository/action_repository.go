package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// ActionRepo encapsulates queries on actions and their user and category
// associations.  It also owns the verification transition, which is the
// only place where user points and volunteered minutes change.
type ActionRepo struct {
	db *database.DB
}

// NewActionRepo constructs an ActionRepo with the provided DB handle.
func NewActionRepo(db *database.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

// VerifyResult describes the credit applied by a successful verification.
type VerifyResult struct {
	ActionID       uint64
	Rate           int64    // highest point value among the action's categories
	MinuteDuration int64    // minutes credited to each user
	Points         int64    // Rate * MinuteDuration, credited to each user
	UserIDs        []uint64 // users that received the credit
}

const actionColumns = "id, title, description, spot_id, time, minute_duration, is_verified"

func scanAction(row interface{ Scan(...any) error }, a *model.Action) error {
	return row.Scan(&a.ID, &a.Title, &a.Description, &a.SpotID, &a.Time, &a.MinuteDuration, &a.IsVerified)
}

// Create inserts a new unverified action at its spot and links the given
// users and categories.  Every referenced row must exist; the whole insert
// is rolled back otherwise.  Duplicate ids in userIDs or categoryIDs are
// linked once.
func (r *ActionRepo) Create(ctx context.Context, a *model.Action, userIDs, categoryIDs []uint64) error {
	if a.Time.IsZero() {
		a.Time = time.Now().UTC()
	}
	a.Time = a.Time.UTC()
	a.IsVerified = false
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "spots", a.SpotID, ErrSpotNotFound); err != nil {
			return err
		}
		userIDs, categoryIDs := unique(userIDs), unique(categoryIDs)
		for _, uid := range userIDs {
			if err := mustExist(ctx, r.db, tx, "users", uid, ErrUserNotFound); err != nil {
				return err
			}
		}
		for _, cid := range categoryIDs {
			if err := mustExist(ctx, r.db, tx, "action_categories", cid, ErrCategoryNotFound); err != nil {
				return err
			}
		}
		id, err := r.db.InsertID(ctx, tx,
			"INSERT INTO actions (title, description, spot_id, time, minute_duration, is_verified) VALUES (?, ?, ?, ?, ?, ?)",
			a.Title, a.Description, a.SpotID, a.Time, a.MinuteDuration, false)
		if err != nil {
			return err
		}
		a.ID = id
		for _, uid := range userIDs {
			if _, err := tx.ExecContext(ctx, r.db.Rebind("INSERT INTO action_users (action_id, user_id) VALUES (?, ?)"), id, uid); err != nil {
				return err
			}
		}
		for _, cid := range categoryIDs {
			if _, err := tx.ExecContext(ctx, r.db.Rebind("INSERT INTO action_category_links (action_id, category_id) VALUES (?, ?)"), id, cid); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID fetches an action by id whether or not it is verified.
func (r *ActionRepo) GetByID(ctx context.Context, id uint64) (*model.Action, error) {
	var a model.Action
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+actionColumns+" FROM actions WHERE id = ?"), id)
	if err := scanAction(row, &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListVerifiedBySpot returns the verified actions logged at a spot.
func (r *ActionRepo) ListVerifiedBySpot(ctx context.Context, spotID uint64) ([]model.Action, error) {
	if err := mustExist(ctx, r.db, r.db, "spots", spotID, ErrSpotNotFound); err != nil {
		return nil, err
	}
	return r.list(ctx,
		"SELECT "+actionColumns+" FROM actions WHERE spot_id = ? AND is_verified = ? ORDER BY id",
		spotID, true)
}

// ListVerifiedByCategory returns the verified actions tagged with a
// category.
func (r *ActionRepo) ListVerifiedByCategory(ctx context.Context, categoryID uint64) ([]model.Action, error) {
	if err := mustExist(ctx, r.db, r.db, "action_categories", categoryID, ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return r.list(ctx,
		"SELECT "+actionColumns+" FROM actions WHERE is_verified = ? AND id IN "+
			"(SELECT action_id FROM action_category_links WHERE category_id = ?) ORDER BY id",
		true, categoryID)
}

// ListByUser returns every action a user took part in, verified or not.
func (r *ActionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Action, error) {
	return r.list(ctx,
		"SELECT "+actionColumns+" FROM actions WHERE id IN "+
			"(SELECT action_id FROM action_users WHERE user_id = ?) ORDER BY id",
		userID)
}

func (r *ActionRepo) list(ctx context.Context, query string, args ...any) ([]model.Action, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Action, 0)
	for rows.Next() {
		var a model.Action
		if err := scanAction(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Users returns the users associated with an action.
func (r *ActionRepo) Users(ctx context.Context, actionID uint64) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT u.id, u.username, u.points, u.volunteered_minutes FROM users u "+
			"JOIN action_users au ON au.user_id = u.id WHERE au.action_id = ? ORDER BY u.id"), actionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Points, &u.VolunteeredMinutes); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Categories returns the categories an action is tagged with.
func (r *ActionRepo) Categories(ctx context.Context, actionID uint64) ([]model.ActionCategory, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT c.id, c.name, c.point FROM action_categories c "+
			"JOIN action_category_links l ON l.category_id = c.id WHERE l.action_id = ? ORDER BY c.id"), actionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ActionCategory, 0)
	for rows.Next() {
		var c model.ActionCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Point); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddUser associates a user with an action.  Linking the same pair twice
// returns ErrAlreadyExists.
func (r *ActionRepo) AddUser(ctx context.Context, actionID, userID uint64) error {
	return r.link(ctx, "action_users", "user_id", "users", actionID, userID, ErrUserNotFound)
}

// AddCategory tags an action with a category.  Tagging the same pair twice
// returns ErrAlreadyExists.
func (r *ActionRepo) AddCategory(ctx context.Context, actionID, categoryID uint64) error {
	return r.link(ctx, "action_category_links", "category_id", "action_categories", actionID, categoryID, ErrCategoryNotFound)
}

func (r *ActionRepo) link(ctx context.Context, table, column, target string, actionID, targetID uint64, targetMissing error) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "actions", actionID, ErrActionNotFound); err != nil {
			return err
		}
		if err := mustExist(ctx, r.db, tx, target, targetID, targetMissing); err != nil {
			return err
		}
		q := fmt.Sprintf("INSERT INTO %s (action_id, %s) VALUES (?, ?)", table, column)
		if _, err := tx.ExecContext(ctx, r.db.Rebind(q), actionID, targetID); err != nil {
			return normalize(err)
		}
		return nil
	})
}

// Verify flips an action from unverified to verified and credits every
// associated user with Rate*MinuteDuration points and MinuteDuration
// minutes, where Rate is the highest point value among its categories.
//
// The flag is flipped with a compare-and-swap update so two concurrent
// calls cannot both credit the users.  Everything happens in one
// transaction: on any failure nothing changes.
//
// Errors: ErrActionNotFound, ErrAlreadyVerified, ErrInvalidState when the
// action has no categories or the credit does not fit a user's totals.
func (r *ActionRepo) Verify(ctx context.Context, id uint64) (*VerifyResult, error) {
	var out *VerifyResult
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			r.db.Rebind("UPDATE actions SET is_verified = ? WHERE id = ? AND is_verified = ?"), true, id, false)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			ok, err := exists(ctx, r.db, tx, "actions", id)
			if err != nil {
				return err
			}
			if !ok {
				return ErrActionNotFound
			}
			return ErrAlreadyVerified
		}

		var (
			rate  sql.NullInt64
			count int64
		)
		err = tx.QueryRowContext(ctx, r.db.Rebind(
			"SELECT MAX(c.point), COUNT(*) FROM action_categories c "+
				"JOIN action_category_links l ON l.category_id = c.id WHERE l.action_id = ?"), id).Scan(&rate, &count)
		if err != nil {
			return err
		}
		if count == 0 || !rate.Valid {
			return fmt.Errorf("action %d has no categories: %w", id, ErrInvalidState)
		}

		var minutes int64
		if err := tx.QueryRowContext(ctx, r.db.Rebind("SELECT minute_duration FROM actions WHERE id = ?"), id).Scan(&minutes); err != nil {
			return err
		}

		userIDs, err := selectIDs(ctx, r.db, tx, "SELECT user_id FROM action_users WHERE action_id = ? ORDER BY user_id", id)
		if err != nil {
			return err
		}
		if rate.Int64 < 0 || minutes < 0 || (rate.Int64 != 0 && minutes > math.MaxInt64/rate.Int64) {
			return fmt.Errorf("action %d: %d points for %d minutes is out of range: %w", id, rate.Int64, minutes, ErrInvalidState)
		}
		points := rate.Int64 * minutes
		if len(userIDs) > 0 {
			var saturated int64
			err = tx.QueryRowContext(ctx, r.db.Rebind(
				"SELECT COUNT(*) FROM users WHERE id IN (SELECT user_id FROM action_users WHERE action_id = ?) "+
					"AND (points > ? OR volunteered_minutes > ?)"),
				id, math.MaxInt64-points, math.MaxInt64-minutes).Scan(&saturated)
			if err != nil {
				return err
			}
			if saturated > 0 {
				return fmt.Errorf("action %d: crediting %d points would overflow %d user totals: %w", id, points, saturated, ErrInvalidState)
			}
			_, err = tx.ExecContext(ctx, r.db.Rebind(
				"UPDATE users SET points = points + ?, volunteered_minutes = volunteered_minutes + ? "+
					"WHERE id IN (SELECT user_id FROM action_users WHERE action_id = ?)"), points, minutes, id)
			if err != nil {
				return err
			}
		}
		out = &VerifyResult{ActionID: id, Rate: rate.Int64, MinuteDuration: minutes, Points: points, UserIDs: userIDs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an action with its images and association rows.
func (r *ActionRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "actions", id, ErrActionNotFound); err != nil {
			return err
		}
		return deleteActions(ctx, r.db, tx, []uint64{id})
	})
}

func unique(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
