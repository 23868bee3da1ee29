package mysql

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

type regionRepository struct {
	db *sql.DB
}

func NewRegionRepository(db *sql.DB) *regionRepository {
	return &regionRepository{db: db}
}

func (r *regionRepository) FindByGuild(guildID string) (*model.Region, error) {
	query := `SELECT guild_id, tweet_channel_id FROM regions WHERE guild_id = ?`

	var region model.Region
	var channelID sql.NullString
	err := r.db.QueryRow(query, guildID).Scan(&region.GuildID, &channelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	region.TweetChannelID = channelID.String
	return &region, nil
}

func (r *regionRepository) Upsert(region *model.Region) error {
	query := `INSERT INTO regions (guild_id, tweet_channel_id) VALUES (?, ?)
              ON DUPLICATE KEY UPDATE tweet_channel_id = VALUES(tweet_channel_id)`
	_, err := r.db.Exec(query, region.GuildID, region.TweetChannelID)
	if err != nil {
		util.Logger.Error("写入社区配置失败", zap.Error(err), zap.String("guild_id", region.GuildID))
		return err
	}

	util.Logger.Info("社区配置已更新",
		zap.String("guild_id", region.GuildID),
		zap.String("tweet_channel_id", region.TweetChannelID))
	return nil
}
