package database

import (
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	args := m.Called(params)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockChatRepository) ListChannels() ([]Channel, error) {
	args := m.Called()
	return args.Get(0).([]Channel), args.Error(1)
}
func (m *MockChatRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	args := m.Called(externalId)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockChatRepository) GetChannelByName(name string) (Channel, error) {
	args := m.Called(name)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) ListMessages(channelId int) ([]Message, error) {
	args := m.Called(channelId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockChatRepository) ListThreadMessages(parentId int) ([]Message, error) {
	args := m.Called(parentId)
	return args.Get(0).([]Message), args.Error(1)
}
