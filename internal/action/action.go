package action

import (
	"fmt"
	"strings"
)

// Subject 是本功能所有交互标识的固定前缀
const Subject = "post"

// Delimiter 是标识字段之间的分隔符，任何字段内容都不允许包含它
const Delimiter = ":"

// Kind 表示交互标识中的动作类型
type Kind string

const (
	KindModal           Kind = "modal"
	KindReply           Kind = "reply"
	KindLike            Kind = "like"
	KindViewProfile     Kind = "viewProfile"
	KindPickProfile     Kind = "pickProfile"
	KindPickLikeProfile Kind = "pickLikeProfile"
)

var validKinds = map[Kind]bool{
	KindModal:           true,
	KindReply:           true,
	KindLike:            true,
	KindViewProfile:     true,
	KindPickProfile:     true,
	KindPickLikeProfile: true,
}

// ID 结构体表示解码后的交互标识：对象、动作和附加参数
type ID struct {
	ObjectID string
	Kind     Kind
	Args     []string
}

// ErrMalformed 表示标识无法编码或解码
type ErrMalformed struct {
	Token  string
	Reason string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed action id %q: %s", e.Token, e.Reason)
}

// Encode 将标识编码为不透明令牌，字段中出现分隔符时拒绝编码
func (id ID) Encode() (string, error) {
	if id.ObjectID == "" {
		return "", &ErrMalformed{Reason: "empty object id"}
	}
	if !validKinds[id.Kind] {
		return "", &ErrMalformed{Reason: fmt.Sprintf("unknown kind %q", id.Kind)}
	}
	if strings.Contains(id.ObjectID, Delimiter) {
		return "", &ErrMalformed{Token: id.ObjectID, Reason: "object id contains delimiter"}
	}
	parts := []string{Subject, id.ObjectID, string(id.Kind)}
	for _, arg := range id.Args {
		if strings.Contains(arg, Delimiter) {
			return "", &ErrMalformed{Token: arg, Reason: "argument contains delimiter"}
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, Delimiter), nil
}

// Decode 解析令牌，失败时返回 ErrMalformed
func Decode(token string) (ID, error) {
	parts := strings.Split(token, Delimiter)
	if len(parts) < 3 {
		return ID{}, &ErrMalformed{Token: token, Reason: "too few fields"}
	}
	if parts[0] != Subject {
		return ID{}, &ErrMalformed{Token: token, Reason: "unknown subject"}
	}
	kind := Kind(parts[2])
	if !validKinds[kind] {
		return ID{}, &ErrMalformed{Token: token, Reason: fmt.Sprintf("unknown kind %q", parts[2])}
	}
	if parts[1] == "" {
		return ID{}, &ErrMalformed{Token: token, Reason: "empty object id"}
	}
	id := ID{ObjectID: parts[1], Kind: kind}
	if len(parts) > 3 {
		id.Args = parts[3:]
	}
	return id, nil
}
