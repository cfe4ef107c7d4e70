package inmemdb

import (
	"context"
	"strconv"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query returns copies of the users in insertion order.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		users = append(users, copyUser(*repo.db.table[id]))
	}
	return users
}

func copyUser(usr user.User) user.User {
	clone := func(items []string) []string {
		if items == nil {
			return nil
		}
		return append(make([]string, 0, len(items)), items...)
	}
	usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	usr.EnrolledCourses = clone(usr.EnrolledCourses)
	usr.CompletedLessons = clone(usr.CompletedLessons)
	usr.Courses = clone(usr.Courses)
	usr.Skills = clone(usr.Skills)
	usr.Interests = clone(usr.Interests)
	return usr
}

func (repo *userRepository) emailTaken(email, exceptID string) bool {
	for _, id := range repo.db.order {
		if usr := repo.db.table[id]; usr.Email == email && usr.ID != exceptID {
			return true
		}
	}
	return false
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return copyUser(*usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.emailTaken(usr.Email, "") {
		return user.User{}, user.ErrEmailExists
	}

	repo.db.lastPK++
	usr.ID = strconv.Itoa(repo.db.lastPK)
	usr = copyUser(usr)
	repo.db.insert(&usr)
	return copyUser(usr), nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}

	// a sanitized user keeps its stored credential
	if usr.PasswordHash == nil {
		usr.PasswordHash = origUsr.PasswordHash
	}
	usr.CreatedAt = origUsr.CreatedAt
	usr = copyUser(usr)
	repo.db.table[usr.ID] = &usr
	return copyUser(usr), nil
}
