package model

// Region 结构体表示社区配置，映射社区到指定的帖子频道
type Region struct {
	GuildID        string `json:"guild_id"`
	TweetChannelID string `json:"tweet_channel_id"`
}
