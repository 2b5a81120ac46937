//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"palchat/internal/chat/handler"
	"palchat/internal/chat/repository"
	"palchat/internal/chat/service"
	"palchat/internal/dbmysql"
	"palchat/internal/presence"
)

// InitializeChatService builds the full chat application graph. wire
// generates the real body in wire_gen.go.
func InitializeChatService() (*Application, error) {
	wire.Build(
		ProvideConfig,
		dbmysql.NewMySQL,
		repository.NewMessageRepository,
		service.NewChatService,
		presence.NewRegistry,
		handler.NewWSHandler,
		handler.NewHTTPHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
