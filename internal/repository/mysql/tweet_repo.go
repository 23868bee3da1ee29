package mysql

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

type tweetRepository struct {
	db *sql.DB
}

func NewTweetRepository(db *sql.DB) *tweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(tweet *model.Tweet) error {
	query := `INSERT INTO tweets (id, profile_id, content, timestamp, reply_to_tweet_id)
              VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, tweet.ID, tweet.ProfileID, tweet.Content, tweet.Timestamp, tweet.ReplyToTweetID)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err), zap.String("profile_id", tweet.ProfileID))
		return err
	}

	util.Logger.Info("帖子创建成功",
		zap.String("tweet_id", tweet.ID),
		zap.Bool("is_reply", tweet.IsReply()))
	return nil
}

func (r *tweetRepository) FindByID(id string) (*model.Tweet, error) {
	query := `SELECT id, profile_id, content, timestamp, message_id, reply_to_tweet_id
              FROM tweets WHERE id = ?`

	var tweet model.Tweet
	var messageID sql.NullString
	var replyTo sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&tweet.ID, &tweet.ProfileID, &tweet.Content,
		&tweet.Timestamp, &messageID, &replyTo,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	tweet.MessageID = messageID.String
	if replyTo.Valid {
		tweet.ReplyToTweetID = &replyTo.String
	}

	// 加载点赞集合
	rows, err := r.db.Query(`SELECT profile_id FROM tweet_likes WHERE tweet_id = ? ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var profileID string
		if err := rows.Scan(&profileID); err != nil {
			return nil, err
		}
		tweet.Likes = append(tweet.Likes, profileID)
	}

	return &tweet, rows.Err()
}

func (r *tweetRepository) AttachMessageID(id, messageID string) error {
	query := `UPDATE tweets SET message_id = ? WHERE id = ?`
	_, err := r.db.Exec(query, messageID, id)
	if err != nil {
		util.Logger.Error("写入消息ID失败", zap.Error(err), zap.String("tweet_id", id))
		return err
	}
	return nil
}

func (r *tweetRepository) ToggleLike(tweetID, profileID string) (bool, error) {
	// 使用事务确保原子性：同一点赞者的连续切换不会在读写之间交错
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM tweets WHERE id = ?)", tweetID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("tweet not found")
	}

	var liked bool
	err = tx.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM tweet_likes
            WHERE tweet_id = ? AND profile_id = ?
        )`, tweetID, profileID).Scan(&liked)
	if err != nil {
		return false, err
	}

	if liked {
		_, err = tx.Exec(`DELETE FROM tweet_likes WHERE tweet_id = ? AND profile_id = ?`, tweetID, profileID)
	} else {
		_, err = tx.Exec(`INSERT INTO tweet_likes (tweet_id, profile_id, created_at) VALUES (?, ?, NOW())`, tweetID, profileID)
	}
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	util.Logger.Info("切换点赞成功",
		zap.String("tweet_id", tweetID),
		zap.String("profile_id", profileID),
		zap.Bool("liked", !liked))
	return !liked, nil
}

func (r *tweetRepository) CountLikes(tweetID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
        SELECT COUNT(*)
        FROM tweet_likes
        WHERE tweet_id = ?
    `, tweetID).Scan(&count)
	return count, err
}

func (r *tweetRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tweets").Scan(&count)
	return count, err
}
