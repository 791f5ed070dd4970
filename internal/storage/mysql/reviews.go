package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hotel_directory/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, name string) (domain.User, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, name)
	if err != nil {
		return domain.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: id, Name: name}, nil
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	if err := r.db.QueryRowContext(ctx, getUserSQL, id).Scan(&u.ID, &u.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteUser removes a user and, by cascade, their reviews and review images.
func (r *Repo) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteUserSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateReview checks that hotel and user exist and writes the review and its
// images in one transaction.
func (r *Repo) CreateReview(ctx context.Context, in domain.NewReview) (int64, error) {
	if len(in.ImageURLs) != len(in.ImageKinds) {
		return 0, fmt.Errorf("%w: %d images, %d types", domain.ErrImageArity, len(in.ImageURLs), len(in.ImageKinds))
	}
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, hotelExistsSQL, in.HotelID, "hotel"); err != nil {
			return err
		}
		if err := exists(ctx, tx, userExistsSQL, in.UserID, "user"); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, insertReviewSQL,
			in.HotelID,
			in.UserID,
			valStr(in.SettingReview),
			valStr(in.RoomReview),
			valStr(in.ServiceReview),
			valStr(in.FoodReview),
			in.OverallReview,
		)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if len(in.ImageURLs) == 0 {
			return nil
		}
		values := make([]string, 0, len(in.ImageURLs))
		args := make([]any, 0, 3*len(in.ImageURLs))
		for i, u := range in.ImageURLs {
			values = append(values, "(?, ?, ?)")
			args = append(args, id, u, in.ImageKinds[i])
		}
		_, err = tx.ExecContext(ctx, insertReviewImagesPrefix+strings.Join(values, ","), args...)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, id int64, what string) error {
	var one int
	if err := tx.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *Repo) GetReview(ctx context.Context, id int64) (domain.ReviewView, error) {
	out, err := r.queryReviews(ctx, selectReviewViewSQL+"WHERE r.id = ?", id)
	if err != nil {
		return domain.ReviewView{}, err
	}
	if len(out) == 0 {
		return domain.ReviewView{}, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
	}
	return out[0], nil
}

func (r *Repo) ListReviews(ctx context.Context, f domain.ReviewFilter) ([]domain.ReviewView, error) {
	var (
		where []string
		args  []any
	)
	if f.HotelID != 0 {
		where = append(where, "r.hotel_id = ?")
		args = append(args, f.HotelID)
	}
	if f.UserID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	q := selectReviewViewSQL
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	return r.queryReviews(ctx, q+"ORDER BY r.id", args...)
}

func (r *Repo) queryReviews(ctx context.Context, query string, args ...any) ([]domain.ReviewView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ReviewView{}
	for rows.Next() {
		var (
			v                             domain.ReviewView
			setting, room, service, food sql.NullString
		)
		if err := rows.Scan(
			&v.ID,
			&v.HotelID,
			&v.UserID,
			&setting, &room, &service, &food,
			&v.OverallReview,
			&v.User.Name,
			&v.Hotel.Name,
			&v.Hotel.Description,
			&v.Hotel.Address,
		); err != nil {
			return nil, err
		}
		v.SettingReview = nullStr(setting)
		v.RoomReview = nullStr(room)
		v.ServiceReview = nullStr(service)
		v.FoodReview = nullStr(food)
		v.User.ID = v.UserID
		v.Hotel.ID = v.HotelID
		v.Images = []domain.ReviewImage{}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := attachReviewImages(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

func attachReviewImages(ctx context.Context, q queryer, vs []domain.ReviewView) error {
	idx := make(map[int64]int, len(vs))
	for i := range vs {
		idx[vs[i].ID] = i
	}
	for start := 0; start < len(vs); start += inChunk {
		end := min(start+inChunk, len(vs))
		args := make([]any, 0, end-start)
		for _, v := range vs[start:end] {
			args = append(args, v.ID)
		}
		rows, err := q.QueryContext(ctx, listReviewImagesPrefix+placeholders(len(args))+" ORDER BY id", args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			var img domain.ReviewImage
			if err := rows.Scan(&img.ID, &img.ReviewID, &img.URL, &img.Kind); err != nil {
				rows.Close()
				return err
			}
			i := idx[img.ReviewID]
			vs[i].Images = append(vs[i].Images, img)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
