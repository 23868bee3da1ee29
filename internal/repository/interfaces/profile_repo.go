package interfaces

import "github.com/heyirisdotdev/hades-kitten/internal/model"

// ProfileRepository 定义了虚拟身份相关的数据库操作接口。
// 身份由独立的创建流程维护，本核心只读。
type ProfileRepository interface {
	FindByID(id string) (*model.Profile, error)
	FindByHandle(guildID, handle string) (*model.Profile, error)
	FindOwned(guildID, userID, handle string) (*model.Profile, error)
	FindAllByOwner(guildID, userID string) ([]*model.Profile, error)
	Count() (int, error)
}
