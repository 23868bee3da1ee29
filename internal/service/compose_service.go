package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/action"
	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// ComposeService 处理发帖流程：/post 命令弹出表单，表单提交后创建帖子并发送到帖子频道
type ComposeService struct {
	profiles interfaces.ProfileRepository
	tweets   interfaces.TweetRepository
	regions  interfaces.RegionRepository
	client   chat.Client
	avatars  *storage.AvatarStorage
}

func NewComposeService(
	profiles interfaces.ProfileRepository,
	tweets interfaces.TweetRepository,
	regions interfaces.RegionRepository,
	client chat.Client,
	avatars *storage.AvatarStorage,
) *ComposeService {
	return &ComposeService{
		profiles: profiles,
		tweets:   tweets,
		regions:  regions,
		client:   client,
		avatars:  avatars,
	}
}

// HandlePostCommand 校验身份归属后向发起者展示发帖表单
func (s *ComposeService) HandlePostCommand(ctx context.Context, it *chat.Interaction) error {
	handle := it.Value
	if !util.IsValidHandle(handle) {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found or you don't own it!")
	}

	profile, err := s.profiles.FindOwned(it.GuildID, it.UserID, handle)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found or you don't own it!")
	}

	token, err := action.ID{ObjectID: profile.Handle, Kind: action.KindModal}.Encode()
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	return s.client.ShowForm(ctx, it, chat.Form{
		Token:     token,
		Title:     "Create Post",
		Label:     "What's on your mind?",
		MaxLength: maxContentLength,
	})
}

// HandleFormSubmit 处理发帖表单提交。
// 帖子记录在频道解析之前创建，频道缺失时记录保留且不携带消息ID。
func (s *ComposeService) HandleFormSubmit(ctx context.Context, it *chat.Interaction, handle string) error {
	content := it.Value
	if err := validateContent(content); err != nil {
		return err
	}

	profile, err := s.profiles.FindByHandle(it.GuildID, handle)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	tweet := &model.Tweet{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.tweets.Create(tweet); err != nil {
		return err
	}

	channelID, err := resolveFeedChannel(ctx, s.regions, s.client, it.GuildID)
	if err != nil {
		return err
	}

	buttons, err := tweetButtons(tweet.ID, profile.Handle, 0)
	if err != nil {
		return err
	}
	embed := tweetEmbed(profile, s.avatars.URL(profile.ProfilePicture), content, tweet.Timestamp)

	msg, err := s.client.SendMessage(ctx, channelID, embed, buttons)
	if err != nil {
		return err
	}
	if err := s.tweets.AttachMessageID(tweet.ID, msg.ID); err != nil {
		return err
	}

	util.Logger.Info("发帖成功",
		zap.String("tweet_id", tweet.ID),
		zap.String("handle", profile.Handle),
		zap.String("guild_id", it.GuildID))

	return s.client.RespondEphemeral(ctx, it, "Posted! Find it here "+msg.URL)
}
