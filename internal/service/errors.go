package service

import "errors"

var (
	// ErrUnauthorized 未登入的連線一律拒絕
	ErrUnauthorized = errors.New("用戶未登入")
	// ErrRoomNotFound 房間不存在或已停用
	ErrRoomNotFound = errors.New("房間不存在")
	// ErrAccessDenied 用戶沒有進入房間的權限
	ErrAccessDenied = errors.New("沒有進入房間的權限")
	// ErrEmptyRoomName 房間名稱去除空白後不能為空
	ErrEmptyRoomName = errors.New("房間名稱不能為空")
	// ErrEmptyMessage 訊息內容去除空白後不能為空
	ErrEmptyMessage = errors.New("訊息內容不能為空")
	// ErrNotAuthor 只有作者本人可以編輯訊息
	ErrNotAuthor = errors.New("只有作者可以編輯訊息")
	// ErrRoomFull 房間人數已達上限
	ErrRoomFull = errors.New("房間人數已滿")
	// ErrSameUser 私聊房間需要兩個不同的用戶
	ErrSameUser = errors.New("不能和自己建立私聊")
)
