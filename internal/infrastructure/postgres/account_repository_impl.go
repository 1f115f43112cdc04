package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
)

const uniqueViolation = "23505"

const accountColumns = `id::text, name, email, password_hash, role, status, profile_photo, created_at, updated_at`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*entity.Account, error) {
	a := &entity.Account{}
	var role, status string
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &status,
		&a.ProfilePhoto, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = entity.Role(role)
	a.Status = entity.Status(status)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID rejects identifiers that can never match a row, saving a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, role, status, profile_photo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, a.Name, a.Email, a.PasswordHash, string(a.Role), string(a.Status), a.ProfilePhoto)

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return r.one(row, "get account by id")
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return r.one(row, "get account by email")
}

func (r *AccountRepository) one(row pgx.Row, op string) (*entity.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// escapeLike makes s match literally inside an ILIKE pattern using '\' as escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// listFilter builds the WHERE clause shared by the count and page queries.
func listFilter(q repository.ListQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, `(name ILIKE $`+n+` ESCAPE '\' OR email ILIKE $`+n+` ESCAPE '\')`)
	}
	if q.Role != "" {
		args = append(args, string(q.Role))
		clauses = append(clauses, `role = $`+strconv.Itoa(len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *AccountRepository) List(ctx context.Context, q repository.ListQuery) ([]*entity.Account, int64, error) {
	where, args := listFilter(q)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Skip, q.Limit)
	offset := strconv.Itoa(len(pageArgs) - 1)
	limit := strconv.Itoa(len(pageArgs))
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts`+where+
		` ORDER BY created_at, id OFFSET $`+offset+` LIMIT $`+limit, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Account, 0, q.Limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return out, total, nil
}

func optString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func (r *AccountRepository) Update(ctx context.Context, id string, p entity.AccountPatch) (*entity.Account, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    role = COALESCE($4, role),
		    status = COALESCE($5, status),
		    profile_photo = COALESCE($6, profile_photo),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, p.Name, p.Email, optString(p.Role), optString(p.Status), p.ProfilePhoto)

	a, err := scanAccount(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, repository.ErrNotFound
		case isUniqueViolation(err):
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
