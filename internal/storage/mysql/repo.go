package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"

	"hotel_directory/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullF64(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// MySQL 1062 is ER_DUP_ENTRY; the SQLite message covers the test database.
func isDuplicate(err error) bool {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "(?,?,...)" with n markers.
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

// inChunk bounds the size of IN (...) lists.
const inChunk = 500

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Repo is the relational store. One Repo wraps one *sql.DB and is shared by
// every component of a process.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertHotel writes one listing in a single transaction: update by
// property token when present (coalescing absent fields), insert otherwise,
// and in both cases replace the image set.
func (r *Repo) UpsertHotel(ctx context.Context, p domain.HotelPatch) (int64, domain.UpsertOutcome, error) {
	if p.PropertyToken == "" {
		return 0, 0, fmt.Errorf("%w: empty property token", domain.ErrInvalidInput)
	}
	var (
		id      int64
		outcome domain.UpsertOutcome
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, selectHotelIDByTokenSQL, p.PropertyToken).Scan(&id)
		switch {
		case err == nil:
			outcome = domain.Updated
			if _, err := tx.ExecContext(ctx, updateHotelSQL,
				valStr(p.Name),
				valStr(p.Description),
				valStr(p.Address),
				valStr(p.Region.Country),
				valStr(p.Region.City),
				valStr(p.Region.State),
				valStr(p.Region.Province),
				valStr(p.Region.PostalCode),
				valStr(p.Region.Continent),
				p.Tier,
				p.Rate,
				valF64(p.OverallRating),
				valF64(p.LocationRating),
				valStr(p.Type),
				valStr(p.Link),
				id,
			); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, deleteImagesOfHotelSQL, id); err != nil {
				return err
			}
		case errors.Is(err, sql.ErrNoRows):
			outcome = domain.Inserted
			if id, err = insertHotel(ctx, tx, p.NewHotel()); err != nil {
				return err
			}
		default:
			return err
		}
		return insertHotelImages(ctx, tx, id, p.ImageURLs)
	})
	if err != nil {
		if isDuplicate(err) {
			return 0, 0, fmt.Errorf("%w: %s: %v", domain.ErrDuplicate, p.PropertyToken, err)
		}
		return 0, 0, err
	}
	return id, outcome, nil
}

// CreateHotel inserts a fully specified hotel with its images. A property
// token already in use yields ErrDuplicate.
func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	var out domain.Hotel
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := insertHotel(ctx, tx, h)
		if err != nil {
			return err
		}
		urls := make([]string, 0, len(h.Images))
		for _, img := range h.Images {
			urls = append(urls, img.URL)
		}
		if err := insertHotelImages(ctx, tx, id, urls); err != nil {
			return err
		}
		out, err = getHotel(ctx, tx, id)
		return err
	})
	if err != nil {
		if isDuplicate(err) {
			return domain.Hotel{}, fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
		}
		return domain.Hotel{}, err
	}
	return out, nil
}

func insertHotel(ctx context.Context, tx *sql.Tx, h domain.Hotel) (int64, error) {
	res, err := tx.ExecContext(ctx, insertHotelSQL,
		valStr(h.PropertyToken),
		h.Name,
		h.Description,
		h.Address,
		valStr(h.Country),
		valStr(h.City),
		valStr(h.State),
		valStr(h.Province),
		valStr(h.PostalCode),
		valStr(h.Continent),
		h.Tier,
		h.Rate,
		valF64(h.OverallRating),
		valF64(h.LocationRating),
		valStr(h.Type),
		valStr(h.Link),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertHotelImages(ctx context.Context, tx *sql.Tx, hotelID int64, urls []string) error {
	for start := 0; start < len(urls); start += inChunk {
		end := min(start+inChunk, len(urls))
		values := make([]string, 0, end-start)
		args := make([]any, 0, 2*(end-start))
		for _, u := range urls[start:end] {
			values = append(values, "(?, ?)")
			args = append(args, hotelID, u)
		}
		if _, err := tx.ExecContext(ctx, insertHotelImagesPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if h, err = getHotel(ctx, tx, id); err != nil {
			return err
		}
		// images, reviews and review images go with it (ON DELETE CASCADE)
		_, err = tx.ExecContext(ctx, deleteHotelSQL, id)
		return err
	})
	if err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) ListHotelImages(ctx context.Context) ([]domain.HotelImage, error) {
	rows, err := r.db.QueryContext(ctx, listAllHotelImagesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelImage
	for rows.Next() {
		var img domain.HotelImage
		if err := rows.Scan(&img.ID, &img.HotelID, &img.URL); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteHotelImages removes the given image rows in one transaction and
// reports how many rows were deleted.
func (r *Repo) DeleteHotelImages(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += inChunk {
			end := min(start+inChunk, len(ids))
			args := make([]any, 0, end-start)
			for _, id := range ids[start:end] {
				args = append(args, id)
			}
			res, err := tx.ExecContext(ctx, deleteHotelImagesPrefix+placeholders(len(args)), args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return getHotel(ctx, r.db, id)
}

// ListHotels returns every hotel, or those whose city or country contains
// location (case-insensitive) when location is non-empty.
func (r *Repo) ListHotels(ctx context.Context, location string) ([]domain.Hotel, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if loc := strings.TrimSpace(location); loc != "" {
		pat := likePattern(loc)
		rows, err = r.db.QueryContext(ctx, searchHotelsSQL, pat, pat)
	} else {
		rows, err = r.db.QueryContext(ctx, listHotelsSQL)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := attachHotelImages(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
	return "%" + s + "%"
}

func getHotel(ctx context.Context, q queryer, id int64) (domain.Hotel, error) {
	rows, err := q.QueryContext(ctx, getHotelSQL, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Hotel{}, err
		}
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	h, err := scanHotel(rows)
	if err != nil {
		return domain.Hotel{}, err
	}
	rows.Close()

	hs := []domain.Hotel{h}
	if err := attachHotelImages(ctx, q, hs); err != nil {
		return domain.Hotel{}, err
	}
	return hs[0], nil
}

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var (
		h                                                 domain.Hotel
		token, country, city, state, province, zip, cont sql.NullString
		hotelType, link                                   sql.NullString
		overall, location                                 sql.NullFloat64
	)
	if err := row.Scan(
		&h.ID,
		&token,
		&h.Name,
		&h.Description,
		&h.Address,
		&country, &city, &state, &province, &zip, &cont,
		&h.Tier,
		&h.Rate,
		&overall, &location,
		&hotelType,
		&link,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.PropertyToken = nullStr(token)
	h.Country = nullStr(country)
	h.City = nullStr(city)
	h.State = nullStr(state)
	h.Province = nullStr(province)
	h.PostalCode = nullStr(zip)
	h.Continent = nullStr(cont)
	h.OverallRating = nullF64(overall)
	h.LocationRating = nullF64(location)
	h.Type = nullStr(hotelType)
	h.Link = nullStr(link)
	return h, nil
}

// attachHotelImages loads the image sets of hs with one query per chunk.
func attachHotelImages(ctx context.Context, q queryer, hs []domain.Hotel) error {
	if len(hs) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(hs))
	for i := range hs {
		idx[hs[i].ID] = i
		hs[i].Images = []domain.HotelImage{}
	}
	for start := 0; start < len(hs); start += inChunk {
		end := min(start+inChunk, len(hs))
		args := make([]any, 0, end-start)
		for _, h := range hs[start:end] {
			args = append(args, h.ID)
		}
		rows, err := q.QueryContext(ctx, listHotelImagesPrefix+placeholders(len(args))+" ORDER BY id", args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			var img domain.HotelImage
			if err := rows.Scan(&img.ID, &img.HotelID, &img.URL); err != nil {
				rows.Close()
				return err
			}
			i := idx[img.HotelID]
			hs[i].Images = append(hs[i].Images, img)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
