package service

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/heyirisdotdev/hades-kitten/internal/action"
	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
)

// maxContentLength 是帖子内容的长度上限（按字符计）
const maxContentLength = 280

// validateContent 在创建帖子之前校验表单内容
func validateContent(content string) error {
	if content == "" {
		return svcerrors.New(svcerrors.ErrValidation, "Content is required.")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return svcerrors.New(svcerrors.ErrValidation, "Content must be 280 characters or fewer.")
	}
	return nil
}

// tweetEmbed 按身份和内容渲染帖子卡片
func tweetEmbed(profile *model.Profile, iconURL, content string, timestamp time.Time) chat.Embed {
	return chat.Embed{
		AuthorName:    "@" + profile.Handle,
		AuthorIconURL: iconURL,
		Description:   content,
		Timestamp:     timestamp,
	}
}

// tweetButtons 重建帖子消息的三按钮行：点赞计数、回复、查看身份
func tweetButtons(tweetID, handle string, likeCount int) ([]chat.Button, error) {
	likeToken, err := action.ID{ObjectID: tweetID, Kind: action.KindLike}.Encode()
	if err != nil {
		return nil, svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}
	replyToken, err := action.ID{ObjectID: tweetID, Kind: action.KindReply}.Encode()
	if err != nil {
		return nil, svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}
	viewToken, err := action.ID{ObjectID: tweetID, Kind: action.KindViewProfile, Args: []string{handle}}.Encode()
	if err != nil {
		return nil, svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	return []chat.Button{
		{Label: strconv.Itoa(likeCount), Emoji: "❤️", Token: likeToken, Primary: true},
		{Label: "Reply", Token: replyToken, Primary: true},
		{Label: "View Profile", Token: viewToken},
	}, nil
}

// profileOptions 把身份列表转换为选择菜单选项
func profileOptions(profiles []*model.Profile) []chat.SelectOption {
	options := make([]chat.SelectOption, 0, len(profiles))
	for _, p := range profiles {
		options = append(options, chat.SelectOption{
			Label: "@" + p.Handle + " (" + p.DisplayName + ")",
			Value: p.Handle,
		})
	}
	return options
}

// resolveFeedChannel 解析社区的帖子频道，按固定顺序产生可恢复的流程错误
func resolveFeedChannel(ctx context.Context, regions interfaces.RegionRepository, client chat.Client, guildID string) (string, error) {
	region, err := regions.FindByGuild(guildID)
	if err != nil {
		return "", err
	}
	if region == nil {
		return "", svcerrors.New(svcerrors.ErrRegionNotFound, ":x: Region not found")
	}
	if region.TweetChannelID == "" {
		return "", svcerrors.New(svcerrors.ErrChannelNotFound, ":x: Tweet channel not found, ask an admin to set it up")
	}

	ok, err := client.IsTextChannel(ctx, region.TweetChannelID)
	if err != nil {
		return "", svcerrors.Wrap(svcerrors.ErrChannelNotFound, ":x: Channel not found", err)
	}
	if !ok {
		return "", svcerrors.New(svcerrors.ErrInvalidChannelType, ":x: Channel is not a text channel")
	}
	return region.TweetChannelID, nil
}
