package database

type ChatRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(id int) (User, error)
	GetAccountByUsername(username string) (User, error)
	CreateChannel(params CreateChannelParams) (Channel, error)
	ListChannels() ([]Channel, error)
	GetChannelByExternalId(externalId string) (Channel, error)
	GetChannelByName(name string) (Channel, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	ListMessages(channelId int) ([]Message, error)
	ListThreadMessages(parentId int) ([]Message, error)
}
