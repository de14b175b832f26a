package domain

const (
	RequesterIdCtxKey = "rc-requesterId"
)
