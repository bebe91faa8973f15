package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq" // also registers the PostgreSQL driver

	"github.com/velarchat/velar/internal/models"
)

// uniqueViolation is the class 23 error code Postgres reports when a
// unique constraint is hit.
const uniqueViolation = "23505"

// PostgresStore is the Postgres-backed directory. Id sequences come from
// BIGSERIAL columns, so concurrent creates never collide.
type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

const userColumns = `id, username, password_hash, is_admin, status, public_key, created_at, last_seen`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var publicKey []byte

	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin,
		&user.Status, &publicKey, &user.CreatedAt, &user.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.PublicKey = models.Base64Bytes(publicKey)
	return &user, nil
}

func (db *PostgresStore) GetUser(id int64) (*models.User, error) {
	return scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (db *PostgresStore) GetUserByUsername(username string) (*models.User, error) {
	return scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

func (db *PostgresStore) GetAllUsers() ([]*models.User, error) {
	rows, err := db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var publicKey []byte

		err := rows.Scan(
			&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin,
			&user.Status, &publicKey, &user.CreatedAt, &user.LastSeen,
		)
		if err != nil {
			return nil, err
		}

		user.PublicKey = models.Base64Bytes(publicKey)
		users = append(users, &user)
	}

	return users, rows.Err()
}

func (db *PostgresStore) CreateUser(username, passwordHash string) (*models.User, error) {
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Status:       models.StatusOffline,
	}

	err := db.QueryRow(
		`INSERT INTO users (username, password_hash, is_admin, status, created_at, last_seen)
		 VALUES ($1, $2, false, $3, now(), now())
		 RETURNING id, created_at, last_seen`,
		username, passwordHash, models.StatusOffline,
	).Scan(&user.ID, &user.CreatedAt, &user.LastSeen)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) UpdateStatus(id int64, status string) (*models.User, error) {
	_, err := db.Exec(
		"UPDATE users SET status = $1, last_seen = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, err
	}
	return db.GetUser(id)
}

func (db *PostgresStore) UpdateUser(id int64, update models.UserUpdate) (*models.User, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if update.Username != nil {
		if _, err := tx.Exec("UPDATE users SET username = $1 WHERE id = $2", *update.Username, id); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
				return nil, ErrDuplicateUsername
			}
			return nil, err
		}
	}
	if update.IsAdmin != nil {
		if _, err := tx.Exec("UPDATE users SET is_admin = $1 WHERE id = $2", *update.IsAdmin, id); err != nil {
			return nil, err
		}
	}
	if update.PublicKey != nil {
		if _, err := tx.Exec("UPDATE users SET public_key = $1 WHERE id = $2", []byte(*update.PublicKey), id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetUser(id)
}

func (db *PostgresStore) BanUser(id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM contacts WHERE owner_id = $1 OR contact_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM users WHERE id = $1", id); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PostgresStore) GetMessages(userA, userB int64) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT id, sender_id, receiver_id, content, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

func (db *PostgresStore) CreateMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}

	err := db.QueryRow(
		`INSERT INTO messages (sender_id, receiver_id, content, created_at)
		 VALUES ($1, $2, $3, now())
		 RETURNING id, created_at`,
		senderID, receiverID, content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (db *PostgresStore) DeleteMessage(id int64) error {
	result, err := db.Exec("DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (db *PostgresStore) GetContacts(ownerID int64) ([]*models.User, error) {
	// The join drops edges whose target no longer resolves.
	rows, err := db.Query(
		`SELECT u.id, u.username, u.password_hash, u.is_admin, u.status, u.public_key, u.created_at, u.last_seen
		 FROM contacts c
		 JOIN users u ON u.id = c.contact_id
		 WHERE c.owner_id = $1
		 ORDER BY u.id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*models.User
	for rows.Next() {
		var user models.User
		var publicKey []byte

		err := rows.Scan(
			&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin,
			&user.Status, &publicKey, &user.CreatedAt, &user.LastSeen,
		)
		if err != nil {
			return nil, err
		}

		user.PublicKey = models.Base64Bytes(publicKey)
		contacts = append(contacts, &user)
	}

	return contacts, rows.Err()
}

func (db *PostgresStore) AddContact(ownerID, contactID int64) error {
	_, err := db.Exec(
		`INSERT INTO contacts (owner_id, contact_id) VALUES ($1, $2)
		 ON CONFLICT (owner_id, contact_id) DO NOTHING`,
		ownerID, contactID,
	)
	return err
}

func (db *PostgresStore) Close() error {
	return db.DB.Close()
}
