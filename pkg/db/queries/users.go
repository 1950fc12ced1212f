package queries

import (
	"database/sql"
	"time"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateUser inserts a new user into the database and fills in the
// generated ID and timestamps.
func CreateUser(user *db.User) (*db.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES (:email, :password_hash)
		RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, user)
	if err != nil {
		log.Errorf("Error creating user: %v", err)
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(user); err != nil {
			log.Errorf("Error scanning user data after creation: %v", err)
			return nil, err
		}
	} else {
		log.Error("No rows returned after user creation.")
		return nil, sql.ErrNoRows
	}

	log.Infof("User %s created with ID: %s", user.Email, user.ID.String())
	return user, nil
}

// FindUserByEmail retrieves a user by email. Returns nil, nil when no such
// user exists.
func FindUserByEmail(email string) (*db.User, error) {
	user := &db.User{}
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`
	err := db.DB.Get(user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("User with email '%s' not found.", email)
			return nil, nil
		}
		log.Errorf("Error finding user by email '%s': %v", email, err)
		return nil, err
	}
	return user, nil
}

// FindUserByID retrieves a user by ID. Returns nil, nil when not found.
func FindUserByID(id uuid.UUID) (*db.User, error) {
	user := &db.User{}
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`
	err := db.DB.Get(user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("User with ID '%s' not found.", id.String())
			return nil, nil
		}
		log.Errorf("Error finding user by ID '%s': %v", id.String(), err)
		return nil, err
	}
	return user, nil
}

// UpdateUserPassword replaces a user's password hash.
func UpdateUserPassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := db.DB.Exec(query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		log.Errorf("Error updating password for user '%s': %v", id.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No user found with ID '%s' for password update.", id.String())
		return sql.ErrNoRows
	}

	log.Infof("Password updated for user '%s'.", id.String())
	return nil
}

// DeleteUser deletes a user by ID. Owned rows (profile, matches, points,
// reel jobs) cascade at the database level.
func DeleteUser(id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := db.DB.Exec(query, id)
	if err != nil {
		log.Errorf("Error deleting user with ID '%s': %v", id.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No user found with ID '%s' for deletion.", id.String())
		return nil
	}

	log.Infof("User with ID '%s' deleted.", id.String())
	return nil
}
