package enums

type ViolationType string

const (
	ViolationTypeForumPost     ViolationType = "forum_post"
	ViolationTypeForumReply    ViolationType = "forum_reply"
	ViolationTypeChatbotPrompt ViolationType = "chatbot_prompt"
)

func (v ViolationType) Valid() bool {
	switch v {
	case ViolationTypeForumPost, ViolationTypeForumReply, ViolationTypeChatbotPrompt:
		return true
	}
	return false
}
