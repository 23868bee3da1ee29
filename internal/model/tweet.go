package model

import "time"

// Tweet 结构体表示一条帖子，可以是根帖或回复帖
type Tweet struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profile_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	MessageID      string    `json:"message_id"`                 // 消息发送成功后才会写入
	ReplyToTweetID *string   `json:"reply_to_tweet_id,omitempty"`
	Likes          []string  `json:"likes"` // 点赞的 Profile ID 集合，无重复
}

// IsReply 判断该帖子是否为回复帖
func (t *Tweet) IsReply() bool {
	return t.ReplyToTweetID != nil
}
