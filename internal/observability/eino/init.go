// Package eino 注册 Eino 全局观测回调
package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var once sync.Once

// Init 注册全局 callbacks，进程级只执行一次
func Init() {
	once.Do(register)
}

func register() {
	handler := cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler()).
		Handler()
	einocallbacks.AppendGlobalHandlers(handler)
}
