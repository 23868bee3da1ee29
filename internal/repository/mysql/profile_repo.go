package mysql

import (
	"database/sql"

	"github.com/heyirisdotdev/hades-kitten/internal/model"
)

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *profileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, handle, guild_id, user_id, display_name, profile_picture, notifications_enabled, created_at`

func (r *profileRepository) scanProfile(row *sql.Row) (*model.Profile, error) {
	var profile model.Profile
	var picture sql.NullString
	err := row.Scan(
		&profile.ID, &profile.Handle, &profile.GuildID, &profile.UserID,
		&profile.DisplayName, &picture, &profile.NotificationsEnabled, &profile.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	profile.ProfilePicture = picture.String
	return &profile, nil
}

func (r *profileRepository) FindByID(id string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`
	return r.scanProfile(r.db.QueryRow(query, id))
}

func (r *profileRepository) FindByHandle(guildID, handle string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE guild_id = ? AND handle = ?`
	return r.scanProfile(r.db.QueryRow(query, guildID, handle))
}

func (r *profileRepository) FindOwned(guildID, userID, handle string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
              WHERE guild_id = ? AND user_id = ? AND handle = ?`
	return r.scanProfile(r.db.QueryRow(query, guildID, userID, handle))
}

func (r *profileRepository) FindAllByOwner(guildID, userID string) ([]*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
              WHERE guild_id = ? AND user_id = ?
              ORDER BY created_at ASC`

	rows, err := r.db.Query(query, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		var profile model.Profile
		var picture sql.NullString
		err := rows.Scan(
			&profile.ID, &profile.Handle, &profile.GuildID, &profile.UserID,
			&profile.DisplayName, &picture, &profile.NotificationsEnabled, &profile.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = picture.String
		profiles = append(profiles, &profile)
	}

	return profiles, rows.Err()
}

func (r *profileRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&count)
	return count, err
}
