package services

import "errors"

var (
	ErrClassificationFailed  = errors.New("classification failed")
	ErrRecommendationFailed  = errors.New("recommendation failed")
	ErrVisualizationFailed   = errors.New("visualization failed")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrNoImageProduced       = errors.New("no image produced")
	ErrDuplicateIdentifier   = errors.New("duplicate item identifier")
	ErrWorkflowBusy          = errors.New("a request is already in progress")
	ErrImageRequired         = errors.New("an image is required")
	ErrInvalidImage          = errors.New("invalid image payload")
	ErrImageTooLarge         = errors.New("image is too large")
	ErrNothingToVisualize    = errors.New("no items to visualize")
	ErrNoSuggestion          = errors.New("no outfit suggestion")
	ErrInvalidWorkflowState  = errors.New("invalid workflow state")
	ErrUsernameTaken         = errors.New("用户名已存在")
	ErrInvalidCredentials    = errors.New("用户名或密码错误")
	ErrSessionNotFound       = errors.New("session not found")
	ErrImageNotFound         = errors.New("image not found")
	ErrUnsupportedImageStore = errors.New("image reference not supported by store")
)

// User facing notices, shown once per failed request.
const (
	NoticeClassificationFailed = "自动识别图片失败，请手动填写详情。"
	NoticeRecommendationFailed = "获取建议失败，请尝试其他关键词。"
	NoticeVisualizationFailed  = "无法生成试穿效果，请稍后重试。"
	NoticeInventoryTooSmall    = "衣橱里的衣服太少了，AI 搭配师需要更多选择！"
	NoticeMissingConditions    = "请输入天气和场合。"
)
