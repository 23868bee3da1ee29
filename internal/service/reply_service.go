package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/action"
	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/common"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// ReplyService 处理回复流程：回复按钮弹出身份选择菜单，
// 选中身份后弹出回复表单，表单提交后创建回复并结构化地回复到原消息
type ReplyService struct {
	profiles interfaces.ProfileRepository
	tweets   interfaces.TweetRepository
	regions  interfaces.RegionRepository
	client   chat.Client
	avatars  *storage.AvatarStorage
}

func NewReplyService(
	profiles interfaces.ProfileRepository,
	tweets interfaces.TweetRepository,
	regions interfaces.RegionRepository,
	client chat.Client,
	avatars *storage.AvatarStorage,
) *ReplyService {
	return &ReplyService{
		profiles: profiles,
		tweets:   tweets,
		regions:  regions,
		client:   client,
		avatars:  avatars,
	}
}

// PresentProfilePicker 列出发起者在本社区拥有的全部身份供选择
func (s *ReplyService) PresentProfilePicker(ctx context.Context, it *chat.Interaction, tweet *model.Tweet) error {
	owned, err := s.profiles.FindAllByOwner(it.GuildID, it.UserID)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return svcerrors.New(svcerrors.ErrNoOwnedProfiles, "Create a profile first.")
	}

	token, err := action.ID{ObjectID: tweet.ID, Kind: action.KindPickProfile}.Encode()
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	return s.client.ShowSelect(ctx, it, "Pick a profile", token, profileOptions(owned))
}

// HandleProfilePicked 选中回复身份后重新解析目标帖子并弹出回复表单。
// 目标帖子、原作者身份和所选身份都按当前状态重新解析，期间任一被删除则流程终止。
func (s *ReplyService) HandleProfilePicked(ctx context.Context, it *chat.Interaction, tweetID string) error {
	tweet, err := s.tweets.FindByID(tweetID)
	if err != nil {
		return err
	}
	if tweet == nil {
		return svcerrors.New(svcerrors.ErrTweetNotFound, "Tweet not found!")
	}

	author, err := s.profiles.FindByID(tweet.ProfileID)
	if err != nil {
		return err
	}
	if author == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	profile, err := s.profiles.FindByHandle(it.GuildID, it.Value)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	if tweet.MessageID == "" {
		return svcerrors.New(svcerrors.ErrMessageNotFound, "Message not found!")
	}
	if _, err := s.client.FetchMessage(ctx, it.ChannelID, tweet.MessageID); err != nil {
		return svcerrors.Wrap(svcerrors.ErrMessageNotFound, "Message not found!", err)
	}

	token, err := action.ID{
		ObjectID: profile.Handle,
		Kind:     action.KindReply,
		Args:     []string{tweet.ID},
	}.Encode()
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	return s.client.ShowForm(ctx, it, chat.Form{
		Token:     token,
		Title:     fmt.Sprintf("Reply to @%s's post", author.Handle),
		Label:     "What's on your mind?",
		MaxLength: maxContentLength,
	})
}

// HandleFormSubmit 处理回复表单提交
func (s *ReplyService) HandleFormSubmit(ctx context.Context, it *chat.Interaction, handle, tweetID string) error {
	content := it.Value
	if err := validateContent(content); err != nil {
		return err
	}

	parent, err := s.tweets.FindByID(tweetID)
	if err != nil {
		return err
	}
	if parent == nil {
		return svcerrors.New(svcerrors.ErrTweetNotFound, "Tweet not found!")
	}

	parentAuthor, err := s.profiles.FindByID(parent.ProfileID)
	if err != nil {
		return err
	}
	if parentAuthor == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	profile, err := s.profiles.FindByHandle(it.GuildID, handle)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	if parent.MessageID == "" {
		return svcerrors.New(svcerrors.ErrMessageNotFound, "Message not found!")
	}
	parentMsg, err := s.client.FetchMessage(ctx, it.ChannelID, parent.MessageID)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMessageNotFound, "Message not found!", err)
	}

	channelID, err := resolveFeedChannel(ctx, s.regions, s.client, it.GuildID)
	if err != nil {
		return err
	}

	reply := &model.Tweet{
		ID:             uuid.NewString(),
		ProfileID:      profile.ID,
		Content:        content,
		Timestamp:      time.Now().UTC(),
		ReplyToTweetID: &parent.ID,
	}
	if err := s.tweets.Create(reply); err != nil {
		return err
	}

	buttons, err := tweetButtons(reply.ID, profile.Handle, 0)
	if err != nil {
		return err
	}
	replyEmbed := tweetEmbed(profile, s.avatars.URL(profile.ProfilePicture), content, reply.Timestamp)
	replyEmbed.ReplyToName = parentAuthor.Handle
	replyEmbed.ReplyToURL = parentMsg.URL

	msg, err := s.client.ReplyToMessage(ctx, channelID, parentMsg.ID, replyEmbed, buttons)
	if err != nil {
		return err
	}
	if err := s.tweets.AttachMessageID(reply.ID, msg.ID); err != nil {
		return err
	}

	if err := s.client.Acknowledge(ctx, it); err != nil {
		util.Logger.Warn("确认回复交互失败", zap.Error(err))
	}

	util.Logger.Info("回复成功",
		zap.String("tweet_id", reply.ID),
		zap.String("parent_tweet_id", parent.ID),
		zap.String("handle", profile.Handle))

	// 通知失败不影响已完成的回复流程
	parentEmbed := tweetEmbed(parentAuthor, s.avatars.URL(parentAuthor.ProfilePicture), parent.Content, parent.Timestamp)
	s.notifyAuthor(ctx, parent, profile, parentEmbed, replyEmbed)
	return nil
}

// notifyAuthor 尽力而为地私信通知原作者：重新解析作者身份，
// 未开启通知则跳过，发送失败只记录日志
func (s *ReplyService) notifyAuthor(ctx context.Context, parent *model.Tweet, replier *model.Profile, parentEmbed, replyEmbed chat.Embed) {
	author, err := s.profiles.FindByID(parent.ProfileID)
	if err != nil || author == nil {
		util.Logger.Warn("通知前解析作者身份失败",
			zap.Error(err),
			zap.String("profile_id", parent.ProfileID))
		return
	}
	if !author.NotificationsEnabled {
		return
	}

	content := fmt.Sprintf("@%s (%s) replied to your post", replier.Handle, replier.DisplayName)
	err = common.WithRetry(func() error {
		return s.client.SendDirectMessage(ctx, author.UserID, content, []chat.Embed{parentEmbed, replyEmbed})
	}, 3)
	if err != nil {
		util.Logger.Warn("私信通知发送失败",
			zap.Error(err),
			zap.String("user_id", author.UserID),
			zap.String("tweet_id", parent.ID))
	}
}
