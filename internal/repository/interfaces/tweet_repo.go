package interfaces

import "github.com/heyirisdotdev/hades-kitten/internal/model"

// TweetRepository 定义了帖子相关的数据库操作接口
type TweetRepository interface {
	Create(tweet *model.Tweet) error
	FindByID(id string) (*model.Tweet, error)
	AttachMessageID(id, messageID string) error
	// ToggleLike 在一个事务内完成读取和增删，返回切换后是否为点赞状态
	ToggleLike(tweetID, profileID string) (bool, error)
	CountLikes(tweetID string) (int, error)
	Count() (int, error)
}
