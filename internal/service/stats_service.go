package service

import (
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
)

// StatsService 汇总管理端需要的系统统计
type StatsService struct {
	profiles interfaces.ProfileRepository
	tweets   interfaces.TweetRepository
}

func NewStatsService(profiles interfaces.ProfileRepository, tweets interfaces.TweetRepository) *StatsService {
	return &StatsService{profiles: profiles, tweets: tweets}
}

func (s *StatsService) GetSystemStats() (map[string]interface{}, error) {
	profileCount, err := s.profiles.Count()
	if err != nil {
		return nil, err
	}
	tweetCount, err := s.tweets.Count()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_profiles": profileCount,
		"total_tweets":   tweetCount,
	}, nil
}
