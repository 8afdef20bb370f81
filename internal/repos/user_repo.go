package repos

import (
	"github.com/Gupta12p/HouseListing/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,name,email,password,is_admin,created_at`

// Create inserts u and sets its ID. A second account with the same email
// (case-insensitive) fails with ErrDuplicate.
func (r *UserRepo) Create(u *domain.User) error {
	if u.CreatedAt == "" {
		u.CreatedAt = domain.Now()
	}
	err := r.DB.Get(&u.ID, r.DB.Rebind(`
		INSERT INTO users(name,email,password,is_admin,created_at)
		VALUES(?,?,?,?,?)
		RETURNING id`), u.Name, u.Email, u.Hash, u.IsAdmin, u.CreatedAt)
	return wrap(err, "repo: CreateUser")
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, wrap(err, "repo: UserByEmail")
	}
	return &u, nil
}

func (r *UserRepo) ByID(id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id=?`), id)
	if err != nil {
		return nil, wrap(err, "repo: UserByID")
	}
	return &u, nil
}

func (r *UserRepo) Count() (int, error) {
	var n int
	err := r.DB.Get(&n, `SELECT COUNT(*) FROM users`)
	return n, wrap(err, "repo: CountUsers")
}

func (r *UserRepo) CreateSession(s domain.Session) error {
	_, err := r.DB.Exec(r.DB.Rebind(`
		INSERT INTO sessions(id,user_id,created_at,expires_at)
		VALUES(?,?,?,?)`), s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return wrap(err, "repo: CreateSession")
}

// SessionUser resolves an unexpired session to its user.
func (r *UserRepo) SessionUser(sid, now string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`
      SELECT u.id,u.name,u.email,u.password,u.is_admin,u.created_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=? AND s.expires_at > ?`), sid, now)
	if err != nil {
		return nil, wrap(err, "repo: SessionUser")
	}
	return &u, nil
}

func (r *UserRepo) DeleteSession(sid string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`DELETE FROM sessions WHERE id=?`), sid)
	return wrap(err, "repo: DeleteSession")
}

// DeleteExpiredSessions removes sessions that expired before now and returns how many went.
func (r *UserRepo) DeleteExpiredSessions(now string) (int64, error) {
	res, err := r.DB.Exec(r.DB.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	if err != nil {
		return 0, wrap(err, "repo: DeleteExpiredSessions")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
