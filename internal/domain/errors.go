package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrQueryTooLong = errors.New("query too long")
	ErrNoData       = errors.New("no data available")

	ErrMissingParam     = errors.New("required parameter is missing")
	ErrTopicUnavailable = errors.New("data source is not configured")
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyTitle           = errors.New("title is required")
	ErrInvalidRole          = errors.New("invalid message role")
	ErrEmptyContent         = errors.New("empty content")
	ErrEmptyUserID          = errors.New("empty user id")
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrNoMessages   = errors.New("no messages")
	ErrNoUserText   = errors.New("last message must come from the user")
	ErrChatFailed   = errors.New("chat model is unavailable")
)
