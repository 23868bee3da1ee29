package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
)

func testTweet() *model.Tweet {
	return &model.Tweet{
		ID:        "t1",
		ProfileID: "p1",
		Content:   "original post",
		Timestamp: time.Now(),
		MessageID: "m1",
	}
}

func TestPresentProfilePickerNoProfiles(t *testing.T) {
	profiles := new(MockProfileRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, new(MockTweetRepository), new(MockRegionRepository), client, testAvatars(t))

	profiles.On("FindAllByOwner", "g1", "u1").Return([]*model.Profile{}, nil)

	it := &chat.Interaction{Kind: chat.KindButton, UserID: "u1", GuildID: "g1"}
	err := s.PresentProfilePicker(context.Background(), it, testTweet())

	assert.Equal(t, svcerrors.ErrNoOwnedProfiles, svcerrors.CodeOf(err))
	client.AssertNotCalled(t, "ShowSelect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPresentProfilePickerListsOwnedProfiles(t *testing.T) {
	profiles := new(MockProfileRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, new(MockTweetRepository), new(MockRegionRepository), client, testAvatars(t))

	owned := []*model.Profile{
		{ID: "p1", Handle: "ada", DisplayName: "Ada Lovelace"},
		{ID: "p2", Handle: "grace", DisplayName: "Grace Hopper"},
	}
	profiles.On("FindAllByOwner", "g1", "u1").Return(owned, nil)
	client.On("ShowSelect", mock.Anything, "Pick a profile", "post:t1:pickProfile",
		mock.MatchedBy(func(options []chat.SelectOption) bool {
			return len(options) == 2 &&
				options[0].Value == "ada" &&
				options[1].Label == "@grace (Grace Hopper)"
		})).Return(nil)

	it := &chat.Interaction{Kind: chat.KindButton, UserID: "u1", GuildID: "g1"}
	err := s.PresentProfilePicker(context.Background(), it, testTweet())

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestHandleProfilePickedShowsReplyForm(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, new(MockRegionRepository), client, testAvatars(t))

	tweets.On("FindByID", "t1").Return(testTweet(), nil)
	profiles.On("FindByID", "p1").Return(testProfile(), nil)
	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2", DisplayName: "Grace Hopper"}
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(&chat.Message{ID: "m1", ChannelID: "c1", URL: "url"}, nil)
	client.On("ShowForm", mock.Anything, mock.MatchedBy(func(form chat.Form) bool {
		return form.Token == "post:grace:reply:t1" && form.Title == "Reply to @ada's post"
	})).Return(nil)

	it := &chat.Interaction{Kind: chat.KindSelect, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "grace"}
	err := s.HandleProfilePicked(context.Background(), it, "t1")

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

// 选择菜单停留期间帖子被删除时，选中事件以流程错误终止
func TestHandleProfilePickedTweetDeleted(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, new(MockRegionRepository), client, testAvatars(t))

	tweets.On("FindByID", "t1").Return(nil, nil)

	it := &chat.Interaction{Kind: chat.KindSelect, GuildID: "g1", Value: "grace"}
	err := s.HandleProfilePicked(context.Background(), it, "t1")

	assert.Equal(t, svcerrors.ErrTweetNotFound, svcerrors.CodeOf(err))
	client.AssertNotCalled(t, "ShowForm", mock.Anything, mock.Anything)
}

func TestHandleFormSubmitRepliesAndNotifies(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	regions := new(MockRegionRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, regions, client, testAvatars(t))

	parent := testTweet()
	author := testProfile()
	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2", DisplayName: "Grace Hopper"}

	tweets.On("FindByID", "t1").Return(parent, nil)
	profiles.On("FindByID", "p1").Return(author, nil)
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(&chat.Message{ID: "m1", ChannelID: "c1", URL: "parent-url"}, nil)
	regions.On("FindByGuild", "g1").Return(&model.Region{GuildID: "g1", TweetChannelID: "feed"}, nil)
	client.On("IsTextChannel", "feed").Return(true, nil)
	tweets.On("Create", mock.MatchedBy(func(tw *model.Tweet) bool {
		return tw.ProfileID == "p2" && tw.ReplyToTweetID != nil && *tw.ReplyToTweetID == "t1"
	})).Return(nil)
	client.On("ReplyToMessage", "feed", "m1", mock.MatchedBy(func(embed chat.Embed) bool {
		return embed.ReplyToName == "ada" && embed.ReplyToURL == "parent-url"
	}), mock.Anything).Return(&chat.Message{ID: "m2", ChannelID: "feed", URL: "reply-url"}, nil)
	tweets.On("AttachMessageID", mock.Anything, "m2").Return(nil)
	client.On("Acknowledge", mock.Anything).Return(nil)
	client.On("SendDirectMessage", "u1", "@grace (Grace Hopper) replied to your post",
		mock.MatchedBy(func(embeds []chat.Embed) bool { return len(embeds) == 2 })).Return(nil)

	it := &chat.Interaction{Kind: chat.KindForm, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "nice one"}
	err := s.HandleFormSubmit(context.Background(), it, "grace", "t1")

	assert.NoError(t, err)
	client.AssertExpectations(t)
	tweets.AssertExpectations(t)
}

func TestHandleFormSubmitNotificationFailureIsSwallowed(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	regions := new(MockRegionRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, regions, client, testAvatars(t))

	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2", DisplayName: "Grace Hopper"}
	tweets.On("FindByID", "t1").Return(testTweet(), nil)
	profiles.On("FindByID", "p1").Return(testProfile(), nil)
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(&chat.Message{ID: "m1", ChannelID: "c1", URL: "url"}, nil)
	regions.On("FindByGuild", "g1").Return(&model.Region{GuildID: "g1", TweetChannelID: "feed"}, nil)
	client.On("IsTextChannel", "feed").Return(true, nil)
	tweets.On("Create", mock.Anything).Return(nil)
	client.On("ReplyToMessage", "feed", "m1", mock.Anything, mock.Anything).
		Return(&chat.Message{ID: "m2", ChannelID: "feed", URL: "reply-url"}, nil)
	tweets.On("AttachMessageID", mock.Anything, "m2").Return(nil)
	client.On("Acknowledge", mock.Anything).Return(nil)
	client.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("dms closed"))

	it := &chat.Interaction{Kind: chat.KindForm, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "hi"}
	err := s.HandleFormSubmit(context.Background(), it, "grace", "t1")

	assert.NoError(t, err)
}

// transientDMError 实现 Temporary() 的临时性投递错误
type transientDMError struct{}

func (transientDMError) Error() string   { return "telegram: try again later" }
func (transientDMError) Temporary() bool { return true }

// 临时性投递失败会重试，回复流程本身不受影响
func TestHandleFormSubmitRetriesTransientNotificationFailure(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	regions := new(MockRegionRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, regions, client, testAvatars(t))

	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2", DisplayName: "Grace Hopper"}
	tweets.On("FindByID", "t1").Return(testTweet(), nil)
	profiles.On("FindByID", "p1").Return(testProfile(), nil)
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(&chat.Message{ID: "m1", ChannelID: "c1", URL: "url"}, nil)
	regions.On("FindByGuild", "g1").Return(&model.Region{GuildID: "g1", TweetChannelID: "feed"}, nil)
	client.On("IsTextChannel", "feed").Return(true, nil)
	tweets.On("Create", mock.Anything).Return(nil)
	client.On("ReplyToMessage", "feed", "m1", mock.Anything, mock.Anything).
		Return(&chat.Message{ID: "m2", ChannelID: "feed", URL: "reply-url"}, nil)
	tweets.On("AttachMessageID", mock.Anything, "m2").Return(nil)
	client.On("Acknowledge", mock.Anything).Return(nil)
	client.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(transientDMError{}).Once()
	client.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	it := &chat.Interaction{Kind: chat.KindForm, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "hi"}
	err := s.HandleFormSubmit(context.Background(), it, "grace", "t1")

	assert.NoError(t, err)
	client.AssertNumberOfCalls(t, "SendDirectMessage", 2)
}

func TestHandleFormSubmitSkipsNotificationWhenDisabled(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	regions := new(MockRegionRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, regions, client, testAvatars(t))

	author := testProfile()
	author.NotificationsEnabled = false
	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2", DisplayName: "Grace Hopper"}

	tweets.On("FindByID", "t1").Return(testTweet(), nil)
	profiles.On("FindByID", "p1").Return(author, nil)
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(&chat.Message{ID: "m1", ChannelID: "c1", URL: "url"}, nil)
	regions.On("FindByGuild", "g1").Return(&model.Region{GuildID: "g1", TweetChannelID: "feed"}, nil)
	client.On("IsTextChannel", "feed").Return(true, nil)
	tweets.On("Create", mock.Anything).Return(nil)
	client.On("ReplyToMessage", "feed", "m1", mock.Anything, mock.Anything).
		Return(&chat.Message{ID: "m2", ChannelID: "feed", URL: "reply-url"}, nil)
	tweets.On("AttachMessageID", mock.Anything, "m2").Return(nil)
	client.On("Acknowledge", mock.Anything).Return(nil)

	it := &chat.Interaction{Kind: chat.KindForm, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "hi"}
	err := s.HandleFormSubmit(context.Background(), it, "grace", "t1")

	assert.NoError(t, err)
	client.AssertNotCalled(t, "SendDirectMessage", mock.Anything, mock.Anything, mock.Anything)
}

// 原消息已不可达时回复流程在创建任何记录之前终止
func TestHandleFormSubmitParentMessageGone(t *testing.T) {
	profiles := new(MockProfileRepository)
	tweets := new(MockTweetRepository)
	client := new(MockChatClient)
	s := NewReplyService(profiles, tweets, new(MockRegionRepository), client, testAvatars(t))

	grace := &model.Profile{ID: "p2", Handle: "grace", GuildID: "g1", UserID: "u2"}
	tweets.On("FindByID", "t1").Return(testTweet(), nil)
	profiles.On("FindByID", "p1").Return(testProfile(), nil)
	profiles.On("FindByHandle", "g1", "grace").Return(grace, nil)
	client.On("FetchMessage", "c1", "m1").Return(nil, errors.New("message to fetch not found"))

	it := &chat.Interaction{Kind: chat.KindForm, UserID: "u2", GuildID: "g1", ChannelID: "c1", Value: "hi"}
	err := s.HandleFormSubmit(context.Background(), it, "grace", "t1")

	assert.Equal(t, svcerrors.ErrMessageNotFound, svcerrors.CodeOf(err))
	tweets.AssertNotCalled(t, "Create", mock.Anything)
}
