package service

import (
	"context"

	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
)

// MirrorService 把帖子消息的按钮行与持久状态保持同步
type MirrorService struct {
	profiles interfaces.ProfileRepository
	tweets   interfaces.TweetRepository
	client   chat.Client
}

func NewMirrorService(
	profiles interfaces.ProfileRepository,
	tweets interfaces.TweetRepository,
	client chat.Client,
) *MirrorService {
	return &MirrorService{
		profiles: profiles,
		tweets:   tweets,
		client:   client,
	}
}

// Refresh 按帖子的当前持久状态重建按钮行并原地编辑消息。
// 刷新只读取状态，不做任何写入。
func (s *MirrorService) Refresh(ctx context.Context, it *chat.Interaction, tweetID string) error {
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

	if tweet.MessageID == "" {
		return svcerrors.New(svcerrors.ErrMessageNotFound, "Message not found!")
	}
	msg, err := s.client.FetchMessage(ctx, it.ChannelID, tweet.MessageID)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMessageNotFound, "Message not found!", err)
	}

	count, err := s.tweets.CountLikes(tweet.ID)
	if err != nil {
		return err
	}
	buttons, err := tweetButtons(tweet.ID, author.Handle, count)
	if err != nil {
		return err
	}
	return s.client.EditMessageButtons(ctx, msg.ChannelID, msg.ID, buttons)
}
