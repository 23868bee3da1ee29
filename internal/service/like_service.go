package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/action"
	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// LikeService 处理点赞流程：点赞按钮弹出身份选择菜单，选中后按身份切换点赞状态
type LikeService struct {
	profiles interfaces.ProfileRepository
	tweets   interfaces.TweetRepository
	client   chat.Client
}

func NewLikeService(
	profiles interfaces.ProfileRepository,
	tweets interfaces.TweetRepository,
	client chat.Client,
) *LikeService {
	return &LikeService{
		profiles: profiles,
		tweets:   tweets,
		client:   client,
	}
}

// PresentLikePicker 列出发起者拥有的身份供选择点赞身份
func (s *LikeService) PresentLikePicker(ctx context.Context, it *chat.Interaction, tweet *model.Tweet) error {
	owned, err := s.profiles.FindAllByOwner(it.GuildID, it.UserID)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return svcerrors.New(svcerrors.ErrNoOwnedProfiles, "Create a profile first.")
	}

	token, err := action.ID{ObjectID: tweet.ID, Kind: action.KindPickLikeProfile}.Encode()
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	return s.client.ShowSelect(ctx, it, "Pick a profile to like this post with.", token, profileOptions(owned))
}

// HandleLikePicked 按所选身份原子地切换点赞状态。
// 同一身份再次点赞即撤销，不同身份互不影响。
func (s *LikeService) HandleLikePicked(ctx context.Context, it *chat.Interaction, tweetID string) error {
	profile, err := s.profiles.FindByHandle(it.GuildID, it.Value)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	liked, err := s.tweets.ToggleLike(tweetID, profile.ID)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrTweetNotFound, "Tweet not found!", err)
	}

	util.Logger.Info("点赞状态已切换",
		zap.String("tweet_id", tweetID),
		zap.String("handle", profile.Handle),
		zap.Bool("liked", liked))

	return s.client.Acknowledge(ctx, it)
}
